package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/gema-classroom/internal/models"
)

// AnswerRequest is one answer inside a submission.
type AnswerRequest struct {
	QuestionID uint            `json:"question_id"`
	UserAnswer json.RawMessage `json:"user_answer"`
}

// AssignmentSubmissionRequest submits answers to an assignment as the authenticated user.
type AssignmentSubmissionRequest struct {
	AssignmentID uint            `json:"assignment_id" validate:"required"`
	Answers      []AnswerRequest `json:"answers"`
}

// TestSubmissionRequest submits answers to a test. Entrance tests identify the applicant by email.
type TestSubmissionRequest struct {
	TestID  uint            `json:"test_id" validate:"required"`
	Email   string          `json:"email" validate:"omitempty,max=255"`
	Answers []AnswerRequest `json:"answers"`
}

// SubmissionResultResponse is the graded outcome of one answer.
type SubmissionResultResponse struct {
	QuestionID    uint            `json:"question_id"`
	QuestionText  string          `json:"question_text"`
	UserAnswer    json.RawMessage `json:"user_answer"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	MarksObtained int             `json:"marks_obtained"`
	IsCorrect     bool            `json:"is_correct"`
}

// SubmissionResponse is the serialized representation of a submission.
type SubmissionResponse struct {
	ID                 uint                       `json:"id"`
	AssessmentID       uint                       `json:"assessment_id"`
	CourseID           uint                       `json:"course_id"`
	UserID             *uint                      `json:"user_id"`
	Email              string                     `json:"email,omitempty"`
	Kind               string                     `json:"kind"`
	TestType           string                     `json:"test_type,omitempty"`
	Responses          []SubmissionResultResponse `json:"responses"`
	TotalMarksObtained int                        `json:"total_marks_obtained"`
	SubmittedAt        time.Time                  `json:"submitted_at"`
	Status             string                     `json:"status"`
}

// NewSubmissionResponse converts the model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	responses := make([]SubmissionResultResponse, 0, len(model.Results))
	for _, result := range model.Results {
		responses = append(responses, SubmissionResultResponse{
			QuestionID:    result.QuestionID,
			QuestionText:  result.QuestionText,
			UserAnswer:    json.RawMessage(result.UserAnswer),
			CorrectAnswer: json.RawMessage(result.CorrectAnswer),
			MarksObtained: result.MarksObtained,
			IsCorrect:     result.IsCorrect,
		})
	}

	return SubmissionResponse{
		ID:                 model.ID,
		AssessmentID:       model.AssessmentID,
		CourseID:           model.CourseID,
		UserID:             model.UserID,
		Email:              model.Email,
		Kind:               model.Kind,
		TestType:           model.TestType,
		Responses:          responses,
		TotalMarksObtained: model.TotalMarksObtained,
		SubmittedAt:        model.SubmittedAt,
		Status:             model.Status,
	}
}

// NewSubmissionResponseSlice converts models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewSubmissionResponse(item))
	}
	return out
}

// AttendanceResponse tells whether a user submitted an assessment.
type AttendanceResponse struct {
	AssessmentID uint       `json:"assessment_id"`
	UserID       uint       `json:"user_id"`
	Attended     bool       `json:"attended"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
}
