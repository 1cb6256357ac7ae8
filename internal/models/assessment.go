package models

import (
	"time"

	"gorm.io/datatypes"
)

// Assessment kinds.
const (
	AssessmentKindAssignment = "assignment"
	AssessmentKindTest       = "test"
)

// Test types. Entrance tests are taken by applicants identified by email.
const (
	TestTypeRegular  = "regular"
	TestTypeEntrance = "entrance"
)

// Question types.
const (
	QuestionTypeMultipleChoice = "multiple-choice"
	QuestionTypeShortAnswer    = "short-answer"
)

// Assessment is a graded exercise belonging to a course: either an assignment or a test.
type Assessment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	CourseID         uint       `gorm:"index;not null" json:"course_id"`
	Kind             string     `gorm:"size:16;index;not null" json:"kind"`
	TestType         string     `gorm:"size:16" json:"test_type,omitempty"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	Deadline         time.Time  `gorm:"not null" json:"deadline"`
	TimeLimitMinutes int        `gorm:"not null;default:0" json:"time_limit_minutes"`
	TotalMarks       int        `gorm:"not null" json:"total_marks"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Questions        []Question `gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE" json:"questions"`
}

// IsPastDeadline reports whether reference falls after the deadline. The deadline itself is still open.
func (a Assessment) IsPastDeadline(reference time.Time) bool {
	return reference.After(a.Deadline)
}

// IsEntranceTest reports whether submitters are identified by email instead of a user account.
func (a Assessment) IsEntranceTest() bool {
	return a.Kind == AssessmentKindTest && a.TestType == TestTypeEntrance
}

// Question belongs to exactly one assessment. AssessmentID is back-filled after the parent is stored.
type Question struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	AssessmentID  *uint                       `gorm:"index" json:"assessment_id"`
	Type          string                      `gorm:"size:32;not null" json:"type"`
	Text          string                      `gorm:"type:text;not null" json:"question_text"`
	Options       datatypes.JSONSlice[string] `gorm:"type:json" json:"options,omitempty"`
	CorrectAnswer datatypes.JSON              `gorm:"type:json;not null" json:"correct_answer"`
	Marks         int                         `gorm:"not null" json:"marks"`
	Position      int                         `gorm:"not null;default:0" json:"position"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}
