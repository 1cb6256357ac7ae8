package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/grading"
	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/repository"
)

// ErrInvalidAssessment indicates the assessment definition is inconsistent.
var ErrInvalidAssessment = errors.New("invalid assessment")

// AssessmentService manages assignments and tests.
type AssessmentService interface {
	Create(ctx context.Context, courseID uint, payload dto.AssessmentCreateRequest) (dto.AssessmentResponse, error)
	Get(ctx context.Context, id uint, includeAnswers bool) (dto.AssessmentResponse, error)
	ListByCourse(ctx context.Context, courseID uint, kind string, includeAnswers bool) ([]dto.AssessmentResponse, error)
	Delete(ctx context.Context, id uint) error
}

type assessmentService struct {
	assessments repository.AssessmentRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssessmentService constructs the assessment service.
func NewAssessmentService(assessments repository.AssessmentRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		assessments: assessments,
		courses:     courses,
		validator:   validate,
		logger:      logger.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *assessmentService) Create(ctx context.Context, courseID uint, payload dto.AssessmentCreateRequest) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	testType := payload.TestType
	switch payload.Kind {
	case models.AssessmentKindAssignment:
		if testType != "" {
			return dto.AssessmentResponse{}, fmt.Errorf("%w: assignments have no test type", ErrInvalidAssessment)
		}
	case models.AssessmentKindTest:
		if testType == "" {
			testType = models.TestTypeRegular
		}
	}

	questions := make([]models.Question, 0, len(payload.Questions))
	gradingQuestions := make([]grading.Question, 0, len(payload.Questions))
	for i, item := range payload.Questions {
		if err := validateQuestion(item); err != nil {
			return dto.AssessmentResponse{}, fmt.Errorf("question %d: %w", i+1, err)
		}

		question := models.Question{
			Type:          item.Type,
			Text:          strings.TrimSpace(item.Text),
			CorrectAnswer: datatypes.JSON(item.CorrectAnswer),
			Marks:         item.Marks,
		}
		if item.Type == models.QuestionTypeMultipleChoice {
			question.Options = datatypes.JSONSlice[string](item.Options)
		}
		questions = append(questions, question)
		gradingQuestions = append(gradingQuestions, grading.Question{Marks: item.Marks})
	}

	if _, err := loadCourse(ctx, s.courses, courseID); err != nil {
		return dto.AssessmentResponse{}, err
	}

	assessment := models.Assessment{
		CourseID:         courseID,
		Kind:             payload.Kind,
		TestType:         testType,
		Title:            strings.TrimSpace(payload.Title),
		Description:      strings.TrimSpace(payload.Description),
		Deadline:         payload.Deadline,
		TimeLimitMinutes: payload.TimeLimitMinutes,
		TotalMarks:       grading.TotalMarks(gradingQuestions),
	}
	if err := s.assessments.CreateWithQuestions(ctx, &assessment, questions); err != nil {
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().
		Uint("assessment_id", assessment.ID).
		Uint("course_id", courseID).
		Str("kind", assessment.Kind).
		Int("total_marks", assessment.TotalMarks).
		Msg("assessment created")

	return dto.NewAssessmentResponse(assessment, true), nil
}

func validateQuestion(item dto.QuestionRequest) error {
	if !json.Valid(item.CorrectAnswer) {
		return fmt.Errorf("%w: correct answer must be a JSON value", ErrInvalidAssessment)
	}
	switch item.Type {
	case models.QuestionTypeMultipleChoice:
		if len(item.Options) < 2 {
			return fmt.Errorf("%w: multiple-choice questions need at least two options", ErrInvalidAssessment)
		}
	case models.QuestionTypeShortAnswer:
		if len(item.Options) > 0 {
			return fmt.Errorf("%w: short-answer questions take no options", ErrInvalidAssessment)
		}
	}
	return nil
}

func (s *assessmentService) Get(ctx context.Context, id uint, includeAnswers bool) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}
	return dto.NewAssessmentResponse(assessment, includeAnswers), nil
}

func (s *assessmentService) ListByCourse(ctx context.Context, courseID uint, kind string, includeAnswers bool) ([]dto.AssessmentResponse, error) {
	if _, err := loadCourse(ctx, s.courses, courseID); err != nil {
		return nil, err
	}
	assessments, err := s.assessments.ListByCourse(ctx, courseID, kind)
	if err != nil {
		return nil, err
	}
	return dto.NewAssessmentResponseSlice(assessments, includeAnswers), nil
}

func (s *assessmentService) Delete(ctx context.Context, id uint) error {
	if err := s.assessments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssessmentNotFound
		}
		return err
	}
	s.logger.Info().Uint("assessment_id", id).Msg("assessment deleted")
	return nil
}
