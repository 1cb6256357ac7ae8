package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/observability"
	"github.com/noah-isme/gema-classroom/internal/repository"
)

// Enrollment actions reported to clients.
const (
	EnrollmentActionRemoved    = "removed"
	EnrollmentActionReenrolled = "re-enrolled"
	EnrollmentActionAdded      = "added"
	EnrollmentActionUnchanged  = "unchanged"
)

var (
	// ErrNotEnrolledOrRemoved indicates the student never joined the course.
	ErrNotEnrolledOrRemoved = errors.New("student is neither enrolled nor removed")
	// ErrNotEnrolled indicates a removal was requested for a student who never joined.
	ErrNotEnrolled = errors.New("student is not enrolled in the course")
	// ErrEnrollmentConflict indicates the membership changed while the request was processed.
	ErrEnrollmentConflict = errors.New("enrollment changed concurrently")
	// ErrEnrollmentLimitReached indicates the course has no seats left.
	ErrEnrollmentLimitReached = errors.New("course enrollment limit reached")
)

// EnrollmentService runs the student membership state machine of a course.
type EnrollmentService interface {
	ToggleEnrollment(ctx context.Context, organizationID, courseID, studentID uint) (dto.EnrollmentResponse, error)
	SetEnrollmentState(ctx context.Context, organizationID, courseID, studentID uint, payload dto.EnrollmentStateRequest) (dto.EnrollmentResponse, error)
	AddParticipant(ctx context.Context, organizationID, courseID uint, payload dto.ParticipantAddRequest) (dto.ParticipantAddResponse, error)
	EnrolledCourses(ctx context.Context, userID uint) (dto.UserCoursesResponse, error)
}

type enrollmentService struct {
	courses     repository.CourseRepository
	memberships repository.MembershipRepository
	users       repository.UserRepository
	provisioner *UserProvisioner
	publisher   RoomPublisher
	cache       *CourseCache
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(
	courses repository.CourseRepository,
	memberships repository.MembershipRepository,
	users repository.UserRepository,
	provisioner *UserProvisioner,
	publisher RoomPublisher,
	cache *CourseCache,
	validate *validator.Validate,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		courses:     courses,
		memberships: memberships,
		users:       users,
		provisioner: provisioner,
		publisher:   publisher,
		cache:       cache,
		validator:   validate,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-classroom/internal/service/enrollment"),
	}
}

func (s *enrollmentService) ToggleEnrollment(ctx context.Context, organizationID, courseID, studentID uint) (dto.EnrollmentResponse, error) {
	ctx, span := s.startSpan(ctx, "enrollment.toggle", courseID, studentID)
	defer span.End()

	course, err := loadOwnedCourse(ctx, s.courses, organizationID, courseID)
	if err != nil {
		return s.fail(span, dto.EnrollmentResponse{}, err)
	}

	current, err := s.memberships.Get(ctx, courseID, studentID, models.RoleStudent)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fail(span, dto.EnrollmentResponse{}, ErrNotEnrolledOrRemoved)
		}
		return s.fail(span, dto.EnrollmentResponse{}, err)
	}

	target := models.MembershipRemoved
	if current.State == models.MembershipRemoved {
		target = models.MembershipEnrolled
	}

	response, err := s.transition(ctx, course, studentID, current.State, target)
	if err != nil {
		return s.fail(span, dto.EnrollmentResponse{}, err)
	}
	return response, nil
}

func (s *enrollmentService) SetEnrollmentState(ctx context.Context, organizationID, courseID, studentID uint, payload dto.EnrollmentStateRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	ctx, span := s.startSpan(ctx, "enrollment.set_state", courseID, studentID)
	defer span.End()
	span.SetAttributes(attribute.String("enrollment.target", payload.State))

	course, err := loadOwnedCourse(ctx, s.courses, organizationID, courseID)
	if err != nil {
		return s.fail(span, dto.EnrollmentResponse{}, err)
	}

	current, err := s.memberships.Get(ctx, courseID, studentID, models.RoleStudent)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if payload.State == models.MembershipRemoved {
				return s.fail(span, dto.EnrollmentResponse{}, ErrNotEnrolled)
			}
			return s.fail(span, dto.EnrollmentResponse{}, ErrNotEnrolledOrRemoved)
		}
		return s.fail(span, dto.EnrollmentResponse{}, err)
	}

	if current.State == payload.State {
		observability.EnrollmentTransitions().WithLabelValues(EnrollmentActionUnchanged).Inc()
		return dto.EnrollmentResponse{
			CourseID:  courseID,
			StudentID: studentID,
			Action:    EnrollmentActionUnchanged,
			State:     current.State,
		}, nil
	}

	response, err := s.transition(ctx, course, studentID, current.State, payload.State)
	if err != nil {
		return s.fail(span, dto.EnrollmentResponse{}, err)
	}
	return response, nil
}

func (s *enrollmentService) transition(ctx context.Context, course models.Course, studentID uint, from, to string) (dto.EnrollmentResponse, error) {
	membership, err := s.memberships.Transition(ctx, course.ID, studentID, from, to, course.ChatRoomID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleMembership):
			return dto.EnrollmentResponse{}, ErrEnrollmentConflict
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.EnrollmentResponse{}, ErrNotEnrolledOrRemoved
		default:
			return dto.EnrollmentResponse{}, err
		}
	}

	action := EnrollmentActionRemoved
	event := dto.RoomEventParticipantRemoved
	if to == models.MembershipEnrolled {
		action = EnrollmentActionReenrolled
		event = dto.RoomEventParticipantAdded
	}

	observability.EnrollmentTransitions().WithLabelValues(action).Inc()
	s.cache.Invalidate(ctx, course.ID)

	participant := dto.ParticipantEvent{UserID: studentID, Role: models.RoleStudent}
	if to == models.MembershipEnrolled {
		if user, err := s.users.GetByID(ctx, studentID); err == nil {
			participant.Name = user.Name
		}
	}
	s.publish(ctx, course, event, participant)

	s.logger.Info().
		Uint("course_id", course.ID).
		Uint("student_id", studentID).
		Str("action", action).
		Int("version", membership.Version).
		Msg("enrollment changed")

	return dto.EnrollmentResponse{
		CourseID:  course.ID,
		StudentID: studentID,
		Action:    action,
		State:     membership.State,
	}, nil
}

func (s *enrollmentService) AddParticipant(ctx context.Context, organizationID, courseID uint, payload dto.ParticipantAddRequest) (dto.ParticipantAddResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ParticipantAddResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "enrollment.add_participant", trace.WithAttributes(
		attribute.Int("course.id", int(courseID)),
		attribute.String("participant.role", payload.Role),
	))
	defer span.End()

	course, err := loadOwnedCourse(ctx, s.courses, organizationID, courseID)
	if err != nil {
		return s.failAdd(span, err)
	}

	provisioned, err := s.provisioner.ResolveOrCreate(ctx, payload.Email, payload.Name, payload.Role)
	if err != nil {
		return s.failAdd(span, err)
	}

	change, err := s.memberships.AddParticipant(ctx, course.ID, provisioned.User.ID, payload.Role, course.ChatRoomID, course.EnrollmentLimit)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEnrollmentFull):
			return s.failAdd(span, ErrEnrollmentLimitReached)
		case errors.Is(err, repository.ErrStaleMembership), errors.Is(err, gorm.ErrDuplicatedKey):
			return s.failAdd(span, ErrEnrollmentConflict)
		default:
			return s.failAdd(span, err)
		}
	}

	action := EnrollmentActionUnchanged
	switch change.Action {
	case repository.MembershipActionAdded:
		action = EnrollmentActionAdded
	case repository.MembershipActionReenrolled:
		action = EnrollmentActionReenrolled
	}
	observability.EnrollmentTransitions().WithLabelValues(action).Inc()

	if action != EnrollmentActionUnchanged {
		s.cache.Invalidate(ctx, course.ID)
		s.publish(ctx, course, dto.RoomEventParticipantAdded, dto.ParticipantEvent{
			UserID: provisioned.User.ID,
			Name:   provisioned.User.Name,
			Role:   payload.Role,
		})
	}
	s.provisioner.Invite(ctx, provisioned, course.Name)

	s.logger.Info().
		Uint("course_id", course.ID).
		Uint("user_id", provisioned.User.ID).
		Str("role", payload.Role).
		Str("action", action).
		Msg("participant added")

	return dto.ParticipantAddResponse{
		Course:        dto.NewCourseResponse(course),
		ParticipantID: provisioned.User.ID,
		Role:          payload.Role,
		Action:        action,
	}, nil
}

func (s *enrollmentService) EnrolledCourses(ctx context.Context, userID uint) (dto.UserCoursesResponse, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserCoursesResponse{}, ErrUserNotFound
		}
		return dto.UserCoursesResponse{}, err
	}

	memberships, err := s.memberships.ListByUser(ctx, userID, models.RoleStudent)
	if err != nil {
		return dto.UserCoursesResponse{}, err
	}

	response := dto.UserCoursesResponse{
		EnrolledCourses:        []dto.CourseResponse{},
		EnrolledCoursesRemoved: []dto.CourseResponse{},
	}
	for _, membership := range memberships {
		course, err := s.courses.GetByID(ctx, membership.CourseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return dto.UserCoursesResponse{}, err
		}
		if membership.State == models.MembershipRemoved {
			response.EnrolledCoursesRemoved = append(response.EnrolledCoursesRemoved, dto.NewCourseResponse(course))
		} else {
			response.EnrolledCourses = append(response.EnrolledCourses, dto.NewCourseResponse(course))
		}
	}

	return response, nil
}

// publish runs after commit; the request never fails because of delivery.
func (s *enrollmentService) publish(ctx context.Context, course models.Course, event string, payload dto.ParticipantEvent) {
	if s.publisher == nil || course.ChatRoomID == nil {
		return
	}
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	s.publisher.Publish(publishCtx, *course.ChatRoomID, event, payload)
}

func (s *enrollmentService) startSpan(ctx context.Context, name string, courseID, studentID uint) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int("course.id", int(courseID)),
		attribute.Int("student.id", int(studentID)),
	))
}

func (s *enrollmentService) fail(span trace.Span, response dto.EnrollmentResponse, err error) (dto.EnrollmentResponse, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return response, err
}

func (s *enrollmentService) failAdd(span trace.Span, err error) (dto.ParticipantAddResponse, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return dto.ParticipantAddResponse{}, err
}
