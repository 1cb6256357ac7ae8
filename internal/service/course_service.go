package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/repository"
)

var (
	// ErrCourseNotFound indicates the course does not exist or belongs to another organization.
	ErrCourseNotFound = errors.New("course not found")
	// ErrChatRoomNotFound indicates the course has no chat room.
	ErrChatRoomNotFound = errors.New("chat room not found")
)

// CourseService manages courses and exposes their roster projections.
type CourseService interface {
	Create(ctx context.Context, organizationID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Details(ctx context.Context, courseID uint) (dto.CourseDetailResponse, error)
	ListByOrganization(ctx context.Context, organizationID uint) ([]dto.CourseResponse, error)
	UpdateStatus(ctx context.Context, organizationID, courseID uint, payload dto.CourseStatusRequest) (dto.CourseResponse, error)
	UpdateSessionLink(ctx context.Context, organizationID, courseID uint, payload dto.SessionLinkRequest) (dto.CourseResponse, error)
	ChatRoom(ctx context.Context, courseID uint) (dto.ChatRoomResponse, error)
	Students(ctx context.Context, courseID uint) ([]dto.CourseStudentResponse, error)
}

type courseService struct {
	courses       repository.CourseRepository
	organizations repository.OrganizationRepository
	memberships   repository.MembershipRepository
	chat          repository.ChatRepository
	cache         *CourseCache
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewCourseService constructs the course service.
func NewCourseService(
	courses repository.CourseRepository,
	organizations repository.OrganizationRepository,
	memberships repository.MembershipRepository,
	chat repository.ChatRepository,
	cache *CourseCache,
	validate *validator.Validate,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		courses:       courses,
		organizations: organizations,
		memberships:   memberships,
		chat:          chat,
		cache:         cache,
		validator:     validate,
		logger:        logger.With().Str("component", "course_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/gema-classroom/internal/service/course"),
	}
}

func (s *courseService) Create(ctx context.Context, organizationID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	if _, err := s.organizations.GetByID(ctx, organizationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrOrganizationNotFound
		}
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		OrganizationID:  organizationID,
		Name:            strings.TrimSpace(payload.Name),
		Description:     strings.TrimSpace(payload.Description),
		Category:        strings.TrimSpace(payload.Category),
		Status:          models.CourseStatusUpcoming,
		StartDate:       payload.StartDate,
		EndDate:         payload.EndDate,
		EnrollmentLimit: payload.EnrollmentLimit,
		Fee:             payload.Fee,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("organization_id", organizationID).Msg("course created")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Details(ctx context.Context, courseID uint) (dto.CourseDetailResponse, error) {
	ctx, span := s.tracer.Start(ctx, "course.details", trace.WithAttributes(attribute.Int("course.id", int(courseID))))
	defer span.End()

	if cached, ok := s.cache.Get(ctx, courseID); ok {
		span.SetAttributes(attribute.Bool("course.cache_hit", true))
		return cached, nil
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseDetailResponse{}, ErrCourseNotFound
		}
		span.RecordError(err)
		return dto.CourseDetailResponse{}, err
	}

	memberships, err := s.memberships.ListByCourse(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		return dto.CourseDetailResponse{}, err
	}

	detail := dto.NewCourseDetailResponse(course, memberships)
	s.cache.Set(ctx, detail)
	return detail, nil
}

func (s *courseService) ListByOrganization(ctx context.Context, organizationID uint) ([]dto.CourseResponse, error) {
	courses, err := s.courses.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) UpdateStatus(ctx context.Context, organizationID, courseID uint, payload dto.CourseStatusRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := loadOwnedCourse(ctx, s.courses, organizationID, courseID)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if err := s.courses.UpdateStatus(ctx, course.ID, payload.Status); err != nil {
		return dto.CourseResponse{}, err
	}

	course.Status = payload.Status
	s.cache.Invalidate(ctx, course.ID)
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) UpdateSessionLink(ctx context.Context, organizationID, courseID uint, payload dto.SessionLinkRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := loadOwnedCourse(ctx, s.courses, organizationID, courseID)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	link := strings.TrimSpace(payload.Link)
	if err := s.courses.UpdateSessionLink(ctx, course.ID, link); err != nil {
		return dto.CourseResponse{}, err
	}

	course.SessionLink = link
	s.cache.Invalidate(ctx, course.ID)
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) ChatRoom(ctx context.Context, courseID uint) (dto.ChatRoomResponse, error) {
	if _, err := loadCourse(ctx, s.courses, courseID); err != nil {
		return dto.ChatRoomResponse{}, err
	}

	room, err := s.chat.GetRoomByCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChatRoomResponse{}, ErrChatRoomNotFound
		}
		return dto.ChatRoomResponse{}, err
	}

	participants, err := s.chat.ListParticipants(ctx, room.ID)
	if err != nil {
		return dto.ChatRoomResponse{}, err
	}

	return dto.ChatRoomResponse{ChatRoomID: room.ID, CourseID: courseID, Participants: participants}, nil
}

func (s *courseService) Students(ctx context.Context, courseID uint) ([]dto.CourseStudentResponse, error) {
	detail, err := s.Details(ctx, courseID)
	if err != nil {
		return nil, err
	}

	students := make([]dto.CourseStudentResponse, 0, len(detail.EnrolledStudents))
	for _, student := range detail.EnrolledStudents {
		students = append(students, dto.CourseStudentResponse{
			StudentID:   student.UserID,
			CourseID:    detail.ID,
			StudentName: student.Name,
			StartDate:   detail.StartDate,
		})
	}
	return students, nil
}

func loadCourse(ctx context.Context, courses repository.CourseRepository, courseID uint) (models.Course, error) {
	course, err := courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}
	return course, nil
}

// loadOwnedCourse hides courses of other organizations behind ErrCourseNotFound.
func loadOwnedCourse(ctx context.Context, courses repository.CourseRepository, organizationID, courseID uint) (models.Course, error) {
	course, err := loadCourse(ctx, courses, courseID)
	if err != nil {
		return models.Course{}, err
	}
	if course.OrganizationID != organizationID {
		return models.Course{}, ErrCourseNotFound
	}
	return course, nil
}
