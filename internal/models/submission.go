package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	// SubmissionStatusSubmitted indicates the answers were scored and stored.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates a reviewer finalised the submission.
	SubmissionStatusGraded = "graded"
	// SubmissionStatusPending is reserved and never assigned.
	SubmissionStatusPending = "pending"
)

// Submission is a learner's scored attempt at an assessment.
type Submission struct {
	ID                 uint                                `gorm:"primaryKey" json:"id"`
	AssessmentID       uint                                `gorm:"not null;uniqueIndex:idx_submission_assessment_submitter" json:"assessment_id"`
	SubmitterKey       string                              `gorm:"size:320;not null;uniqueIndex:idx_submission_assessment_submitter" json:"-"`
	UserID             *uint                               `gorm:"index" json:"user_id"`
	Email              string                              `gorm:"size:255" json:"email,omitempty"`
	CourseID           uint                                `gorm:"index;not null" json:"course_id"`
	Kind               string                              `gorm:"size:16;not null" json:"kind"`
	TestType           string                              `gorm:"size:16" json:"test_type,omitempty"`
	Results            datatypes.JSONSlice[SubmissionResult] `gorm:"type:json" json:"responses"`
	TotalMarksObtained int                                 `gorm:"not null" json:"total_marks_obtained"`
	SubmittedAt        time.Time                           `gorm:"not null" json:"submitted_at"`
	Status             string                              `gorm:"size:16;not null" json:"status"`
	CreatedAt          time.Time                           `json:"created_at"`
	UpdatedAt          time.Time                           `json:"updated_at"`
}

// SubmissionResult freezes the question text and expected answer at grading time.
type SubmissionResult struct {
	QuestionID    uint           `json:"question_id"`
	QuestionText  string         `json:"question_text"`
	UserAnswer    datatypes.JSON `json:"user_answer"`
	CorrectAnswer datatypes.JSON `json:"correct_answer"`
	MarksObtained int            `json:"marks_obtained"`
	IsCorrect     bool           `json:"is_correct"`
}

// IsGraded reports whether the submission has been finalised.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// UserSubmitterKey identifies a submission made by a registered user.
func UserSubmitterKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// EmailSubmitterKey identifies a submission made by an applicant through an entrance test.
func EmailSubmitterKey(email string) string {
	return "email:" + strings.ToLower(strings.TrimSpace(email))
}
