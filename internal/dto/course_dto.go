package dto

import (
	"time"

	"github.com/noah-isme/gema-classroom/internal/models"
)

// CourseCreateRequest describes the payload to create a course.
type CourseCreateRequest struct {
	Name            string    `json:"name" validate:"required,min=3,max=255"`
	Description     string    `json:"description" validate:"required,max=8000"`
	Category        string    `json:"category" validate:"required,max=64"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	EnrollmentLimit int       `json:"enrollment_limit" validate:"gte=0"`
	Fee             float64   `json:"fee" validate:"gte=0"`
}

// CourseStatusRequest changes the lifecycle status of a course.
type CourseStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=upcoming ongoing ended"`
}

// SessionLinkRequest replaces the live session link of a course.
type SessionLinkRequest struct {
	Link string `json:"link" validate:"required,url,max=512"`
}

// CourseResponse is the serialized representation of a course.
type CourseResponse struct {
	ID              uint      `json:"id"`
	OrganizationID  uint      `json:"organization_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Status          string    `json:"status"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	EnrollmentLimit int       `json:"enrollment_limit"`
	Fee             float64   `json:"fee"`
	ChatRoomID      *uint     `json:"chat_room_id"`
	SessionLink     string    `json:"session_link,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewCourseResponse converts the model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:              model.ID,
		OrganizationID:  model.OrganizationID,
		Name:            model.Name,
		Description:     model.Description,
		Category:        model.Category,
		Status:          model.Status,
		StartDate:       model.StartDate,
		EndDate:         model.EndDate,
		EnrollmentLimit: model.EnrollmentLimit,
		Fee:             model.Fee,
		ChatRoomID:      model.ChatRoomID,
		SessionLink:     model.SessionLink,
		CreatedAt:       model.CreatedAt,
	}
}

// NewCourseResponseSlice converts a slice of models into DTOs.
func NewCourseResponseSlice(items []models.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewCourseResponse(item))
	}
	return out
}

// ParticipantResponse is one entry of a course roster.
type ParticipantResponse struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
}

// CourseDetailResponse is a course together with its roster projections.
type CourseDetailResponse struct {
	CourseResponse
	Instructors             []ParticipantResponse `json:"instructors"`
	EnrolledStudents        []ParticipantResponse `json:"enrolled_students"`
	EnrolledStudentsRemoved []ParticipantResponse `json:"enrolled_students_removed"`
	Volunteers              []ParticipantResponse `json:"volunteers"`
	EnrolledCount           int                   `json:"enrolled_count"`
}

// WithoutEmails returns a copy of the detail with participant email addresses cleared.
func (d CourseDetailResponse) WithoutEmails() CourseDetailResponse {
	d.Instructors = withoutEmails(d.Instructors)
	d.EnrolledStudents = withoutEmails(d.EnrolledStudents)
	d.EnrolledStudentsRemoved = withoutEmails(d.EnrolledStudentsRemoved)
	d.Volunteers = withoutEmails(d.Volunteers)
	return d
}

func withoutEmails(in []ParticipantResponse) []ParticipantResponse {
	out := make([]ParticipantResponse, len(in))
	for i, participant := range in {
		participant.Email = ""
		out[i] = participant
	}
	return out
}

// NewCourseDetailResponse splits memberships into the roster lists of a course.
func NewCourseDetailResponse(course models.Course, memberships []models.CourseMembership) CourseDetailResponse {
	detail := CourseDetailResponse{
		CourseResponse:          NewCourseResponse(course),
		Instructors:             []ParticipantResponse{},
		EnrolledStudents:        []ParticipantResponse{},
		EnrolledStudentsRemoved: []ParticipantResponse{},
		Volunteers:              []ParticipantResponse{},
	}

	for _, membership := range memberships {
		participant := ParticipantResponse{
			UserID: membership.UserID,
			Name:   membership.User.Name,
			Email:  membership.User.Email,
			Role:   membership.Role,
		}
		switch membership.Role {
		case models.RoleTrainer:
			detail.Instructors = append(detail.Instructors, participant)
		case models.RoleVolunteer:
			detail.Volunteers = append(detail.Volunteers, participant)
		case models.RoleStudent:
			if membership.State == models.MembershipRemoved {
				detail.EnrolledStudentsRemoved = append(detail.EnrolledStudentsRemoved, participant)
			} else {
				detail.EnrolledStudents = append(detail.EnrolledStudents, participant)
			}
		}
	}
	detail.EnrolledCount = len(detail.EnrolledStudents)

	return detail
}

// CourseStudentResponse summarises an enrolled student of a course.
type CourseStudentResponse struct {
	StudentID   uint      `json:"student_id"`
	CourseID    uint      `json:"course_id"`
	StudentName string    `json:"student_name"`
	StartDate   time.Time `json:"start_date"`
}

// UserCoursesResponse is the user side projection of course memberships.
type UserCoursesResponse struct {
	EnrolledCourses        []CourseResponse `json:"enrolled_courses"`
	EnrolledCoursesRemoved []CourseResponse `json:"enrolled_courses_removed"`
}

// ChatRoomResponse identifies the chat room of a course.
type ChatRoomResponse struct {
	ChatRoomID   uint   `json:"chat_room_id"`
	CourseID     uint   `json:"course_id"`
	Participants []uint `json:"participants"`
}
