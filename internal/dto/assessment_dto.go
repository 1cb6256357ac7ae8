package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/gema-classroom/internal/models"
)

// QuestionRequest describes one question of a new assessment.
type QuestionRequest struct {
	Type          string          `json:"type" validate:"required,oneof=multiple-choice short-answer"`
	Text          string          `json:"question_text" validate:"required,max=4000"`
	Options       []string        `json:"options" validate:"omitempty,max=20,dive,required,max=1000"`
	CorrectAnswer json.RawMessage `json:"correct_answer" validate:"required"`
	Marks         int             `json:"marks" validate:"gt=0"`
}

// AssessmentCreateRequest creates an assignment or a test with its questions.
type AssessmentCreateRequest struct {
	Kind             string            `json:"kind" validate:"required,oneof=assignment test"`
	TestType         string            `json:"test_type" validate:"omitempty,oneof=regular entrance"`
	Title            string            `json:"title" validate:"required,min=3,max=255"`
	Description      string            `json:"description" validate:"omitempty,max=8000"`
	Deadline         time.Time         `json:"deadline" validate:"required"`
	TimeLimitMinutes int               `json:"time_limit_minutes" validate:"gte=0"`
	Questions        []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuestionResponse is the serialized representation of a question. The correct answer is only set for staff views.
type QuestionResponse struct {
	ID            uint            `json:"id"`
	Type          string          `json:"type"`
	Text          string          `json:"question_text"`
	Options       []string        `json:"options,omitempty"`
	Marks         int             `json:"marks"`
	CorrectAnswer json.RawMessage `json:"correct_answer,omitempty"`
}

// AssessmentResponse is the serialized representation of an assessment.
type AssessmentResponse struct {
	ID               uint               `json:"id"`
	CourseID         uint               `json:"course_id"`
	Kind             string             `json:"kind"`
	TestType         string             `json:"test_type,omitempty"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Deadline         time.Time          `json:"deadline"`
	TimeLimitMinutes int                `json:"time_limit_minutes,omitempty"`
	TotalMarks       int                `json:"total_marks"`
	Questions        []QuestionResponse `json:"questions"`
	CreatedAt        time.Time          `json:"created_at"`
}

// NewAssessmentResponse converts the model into a DTO, hiding correct answers unless includeAnswers is set.
func NewAssessmentResponse(model models.Assessment, includeAnswers bool) AssessmentResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	for _, question := range model.Questions {
		item := QuestionResponse{
			ID:    question.ID,
			Type:  question.Type,
			Text:  question.Text,
			Marks: question.Marks,
		}
		if len(question.Options) > 0 {
			item.Options = append([]string(nil), question.Options...)
		}
		if includeAnswers {
			item.CorrectAnswer = json.RawMessage(question.CorrectAnswer)
		}
		questions = append(questions, item)
	}

	return AssessmentResponse{
		ID:               model.ID,
		CourseID:         model.CourseID,
		Kind:             model.Kind,
		TestType:         model.TestType,
		Title:            model.Title,
		Description:      model.Description,
		Deadline:         model.Deadline,
		TimeLimitMinutes: model.TimeLimitMinutes,
		TotalMarks:       model.TotalMarks,
		Questions:        questions,
		CreatedAt:        model.CreatedAt,
	}
}

// NewAssessmentResponseSlice converts models into DTOs.
func NewAssessmentResponseSlice(items []models.Assessment, includeAnswers bool) []AssessmentResponse {
	out := make([]AssessmentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewAssessmentResponse(item, includeAnswers))
	}
	return out
}
