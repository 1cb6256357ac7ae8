package models

import "time"

// Course lifecycle states.
const (
	CourseStatusUpcoming = "upcoming"
	CourseStatusOngoing  = "ongoing"
	CourseStatusEnded    = "ended"
)

// Course is a unit of teaching offered by an organization.
type Course struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrganizationID  uint      `gorm:"index;not null" json:"organization_id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	Category        string    `gorm:"size:64" json:"category"`
	Status          string    `gorm:"size:16;not null;default:upcoming" json:"status"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	EnrollmentLimit int       `gorm:"not null;default:0" json:"enrollment_limit"`
	Fee             float64   `gorm:"not null;default:0" json:"fee"`
	ChatRoomID      *uint     `gorm:"index" json:"chat_room_id"`
	SessionLink     string    `gorm:"size:512" json:"session_link"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsValidCourseStatus reports whether status is one of the known lifecycle values.
func IsValidCourseStatus(status string) bool {
	switch status {
	case CourseStatusUpcoming, CourseStatusOngoing, CourseStatusEnded:
		return true
	default:
		return false
	}
}

// Participant roles within a course.
const (
	RoleStudent   = "student"
	RoleTrainer   = "trainer"
	RoleVolunteer = "volunteer"
)

// Membership states. A membership row only exists once the pair has been touched.
const (
	MembershipEnrolled = "enrolled"
	MembershipRemoved  = "removed"
)

// CourseMembership is the single record of a user's participation in a course.
// Course rosters and a user's enrolled courses are both projections of these rows.
type CourseMembership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_membership_course_user_role" json:"course_id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_membership_course_user_role" json:"user_id"`
	Role      string    `gorm:"size:16;not null;uniqueIndex:idx_membership_course_user_role" json:"role"`
	State     string    `gorm:"size:16;not null;index" json:"state"`
	Version   int       `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
}

// TableName pins the table name used by raw queries.
func (CourseMembership) TableName() string {
	return "course_memberships"
}

// Announcement is a message posted to everyone following a course.
type Announcement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"index;not null" json:"course_id"`
	AuthorID  uint      `gorm:"index" json:"author_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Note types.
const (
	NoteTypeText = "text"
	NoteTypeFile = "file"
)

// Note is study material attached to a course, either inline text or an uploaded file URL.
type Note struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"index;not null" json:"course_id"`
	Type      string    `gorm:"size:16;not null" json:"type"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
