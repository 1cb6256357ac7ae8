package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/grading"
	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/observability"
	"github.com/noah-isme/gema-classroom/internal/repository"
)

var (
	// ErrAssessmentNotFound indicates the assignment or test does not exist.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrDeadlinePassed indicates the submission arrived after the deadline.
	ErrDeadlinePassed = errors.New("deadline has passed")
	// ErrInvalidSubmission indicates the submission payload is unusable.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrUnknownQuestion indicates an answer references a question outside the assessment.
	ErrUnknownQuestion = grading.ErrUnknownQuestion
	// ErrUserNotFound indicates the submitter does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadySubmitted indicates the submitter already has a submission for the assessment.
	ErrAlreadySubmitted = errors.New("submission already exists")
	// ErrSubmissionNotFound indicates the submission does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
)

// SubmissionService accepts, scores and stores assessment submissions.
type SubmissionService interface {
	SubmitAssignment(ctx context.Context, submitterID uint, payload dto.AssignmentSubmissionRequest) (dto.SubmissionResponse, error)
	SubmitTest(ctx context.Context, submitterID uint, payload dto.TestSubmissionRequest) (dto.SubmissionResponse, error)
	CheckAttendance(ctx context.Context, userID, assessmentID uint) (dto.AttendanceResponse, error)
	ListByCourse(ctx context.Context, courseID uint, kind string) ([]dto.SubmissionResponse, error)
	ListByUser(ctx context.Context, userID uint) ([]dto.SubmissionResponse, error)
	Finalize(ctx context.Context, id uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	assessments repository.AssessmentRepository
	submissions repository.SubmissionRepository
	users       repository.UserRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(
	assessments repository.AssessmentRepository,
	submissions repository.SubmissionRepository,
	users repository.UserRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		assessments: assessments,
		submissions: submissions,
		users:       users,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-classroom/internal/service/submission"),
		now:         time.Now,
	}
}

type submitter struct {
	userID uint
	email  string
}

func (s *submissionService) SubmitAssignment(ctx context.Context, submitterID uint, payload dto.AssignmentSubmissionRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}
	return s.submit(ctx, models.AssessmentKindAssignment, payload.AssignmentID, submitter{userID: submitterID}, payload.Answers)
}

func (s *submissionService) SubmitTest(ctx context.Context, submitterID uint, payload dto.TestSubmissionRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}
	return s.submit(ctx, models.AssessmentKindTest, payload.TestID, submitter{userID: submitterID, email: payload.Email}, payload.Answers)
}

// submit checks, in order: existence, deadline, non-empty answers, question ids, submitter identity, and uniqueness.
func (s *submissionService) submit(ctx context.Context, kind string, assessmentID uint, who submitter, answers []dto.AnswerRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit", trace.WithAttributes(
		attribute.String("assessment.kind", kind),
		attribute.Int("assessment.id", int(assessmentID)),
		attribute.Int("submission.answers", len(answers)),
	))
	defer span.End()

	submission, err := s.evaluate(ctx, kind, assessmentID, who, answers)
	if err != nil {
		observability.Submissions().WithLabelValues(kind, submissionOutcome(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.SubmissionResponse{}, err
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = ErrAlreadySubmitted
		}
		observability.Submissions().WithLabelValues(kind, submissionOutcome(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.SubmissionResponse{}, err
	}

	observability.Submissions().WithLabelValues(kind, "accepted").Inc()
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assessment_id", assessmentID).
		Str("kind", kind).
		Int("total_marks_obtained", submission.TotalMarksObtained).
		Msg("submission stored")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) evaluate(ctx context.Context, kind string, assessmentID uint, who submitter, answers []dto.AnswerRequest) (models.Submission, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrAssessmentNotFound
		}
		return models.Submission{}, err
	}
	if assessment.Kind != kind {
		return models.Submission{}, ErrAssessmentNotFound
	}

	now := s.now()
	if !assessment.IsEntranceTest() && assessment.IsPastDeadline(now) {
		return models.Submission{}, ErrDeadlinePassed
	}

	if len(answers) == 0 {
		return models.Submission{}, fmt.Errorf("%w: answers must not be empty", ErrInvalidSubmission)
	}

	result, err := grading.Grade(toGradingAnswers(answers), toGradingQuestions(assessment.Questions))
	if err != nil {
		return models.Submission{}, err
	}

	submission := models.Submission{
		AssessmentID:       assessment.ID,
		CourseID:           assessment.CourseID,
		Kind:               assessment.Kind,
		TestType:           assessment.TestType,
		Results:            toSubmissionResults(result.Outcomes),
		TotalMarksObtained: result.TotalMarksObtained,
		SubmittedAt:        now,
		Status:             models.SubmissionStatusSubmitted,
	}

	if assessment.IsEntranceTest() {
		email := strings.ToLower(strings.TrimSpace(who.email))
		if err := s.validator.Var(email, "required,email"); err != nil {
			return models.Submission{}, fmt.Errorf("%w: a valid email is required for entrance tests", ErrInvalidSubmission)
		}
		submission.Email = email
		submission.SubmitterKey = models.EmailSubmitterKey(email)
	} else {
		if who.userID == 0 {
			return models.Submission{}, fmt.Errorf("%w: user id is required", ErrInvalidSubmission)
		}
		user, err := s.users.GetByID(ctx, who.userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Submission{}, ErrUserNotFound
			}
			return models.Submission{}, err
		}
		userID := user.ID
		submission.UserID = &userID
		submission.Email = user.Email
		submission.SubmitterKey = models.UserSubmitterKey(user.ID)
	}

	_, err = s.submissions.GetBySubmitter(ctx, assessment.ID, submission.SubmitterKey)
	switch {
	case err == nil:
		return models.Submission{}, ErrAlreadySubmitted
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return models.Submission{}, err
	}

	return submission, nil
}

func (s *submissionService) CheckAttendance(ctx context.Context, userID, assessmentID uint) (dto.AttendanceResponse, error) {
	if _, err := s.assessments.GetByID(ctx, assessmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceResponse{}, ErrAssessmentNotFound
		}
		return dto.AttendanceResponse{}, err
	}

	response := dto.AttendanceResponse{AssessmentID: assessmentID, UserID: userID}
	submission, err := s.submissions.GetBySubmitter(ctx, assessmentID, models.UserSubmitterKey(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response, nil
		}
		return dto.AttendanceResponse{}, err
	}

	submittedAt := submission.SubmittedAt
	response.Attended = true
	response.SubmittedAt = &submittedAt
	return response, nil
}

func (s *submissionService) ListByCourse(ctx context.Context, courseID uint, kind string) ([]dto.SubmissionResponse, error) {
	if kind != "" && kind != models.AssessmentKindAssignment && kind != models.AssessmentKindTest {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSubmission, kind)
	}
	submissions, err := s.submissions.ListByCourse(ctx, courseID, kind)
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) ListByUser(ctx context.Context, userID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Finalize(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.MarkGraded(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func toGradingAnswers(answers []dto.AnswerRequest) []grading.Answer {
	out := make([]grading.Answer, 0, len(answers))
	for _, answer := range answers {
		out = append(out, grading.Answer{QuestionID: answer.QuestionID, UserAnswer: answer.UserAnswer})
	}
	return out
}

func toGradingQuestions(questions []models.Question) []grading.Question {
	out := make([]grading.Question, 0, len(questions))
	for _, question := range questions {
		out = append(out, grading.Question{
			ID:            question.ID,
			Text:          question.Text,
			CorrectAnswer: json.RawMessage(question.CorrectAnswer),
			Marks:         question.Marks,
		})
	}
	return out
}

func toSubmissionResults(outcomes []grading.Outcome) datatypes.JSONSlice[models.SubmissionResult] {
	out := make(datatypes.JSONSlice[models.SubmissionResult], 0, len(outcomes))
	for _, outcome := range outcomes {
		out = append(out, models.SubmissionResult{
			QuestionID:    outcome.QuestionID,
			QuestionText:  outcome.QuestionText,
			UserAnswer:    datatypes.JSON(outcome.UserAnswer),
			CorrectAnswer: datatypes.JSON(outcome.CorrectAnswer),
			MarksObtained: outcome.MarksObtained,
			IsCorrect:     outcome.IsCorrect,
		})
	}
	return out
}

func submissionOutcome(err error) string {
	switch {
	case errors.Is(err, ErrAssessmentNotFound):
		return "not_found"
	case errors.Is(err, ErrDeadlinePassed):
		return "deadline_passed"
	case errors.Is(err, ErrInvalidSubmission):
		return "invalid_input"
	case errors.Is(err, ErrUnknownQuestion):
		return "unknown_question"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrAlreadySubmitted):
		return "already_submitted"
	default:
		return "error"
	}
}
