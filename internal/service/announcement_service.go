package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/repository"
)

// ErrEmptyContent indicates nothing was left after sanitising user content.
var ErrEmptyContent = errors.New("content empty after sanitization")

// AnnouncementService posts and lists course announcements.
type AnnouncementService interface {
	Create(ctx context.Context, courseID, authorID uint, payload dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error)
	List(ctx context.Context, courseID uint) ([]dto.AnnouncementResponse, error)
}

type announcementService struct {
	repo      repository.AnnouncementRepository
	courses   repository.CourseRepository
	publisher RoomPublisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewAnnouncementService constructs the announcement service.
func NewAnnouncementService(repo repository.AnnouncementRepository, courses repository.CourseRepository, publisher RoomPublisher, validate *validator.Validate, logger zerolog.Logger) AnnouncementService {
	return &announcementService{
		repo:      repo,
		courses:   courses,
		publisher: publisher,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "announcement_service").Logger(),
	}
}

func (s *announcementService) Create(ctx context.Context, courseID, authorID uint, payload dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	course, err := loadCourse(ctx, s.courses, courseID)
	if err != nil {
		return dto.AnnouncementResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	title := strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(payload.Title))
	if content == "" || title == "" {
		return dto.AnnouncementResponse{}, ErrEmptyContent
	}

	announcement := models.Announcement{
		CourseID: course.ID,
		AuthorID: authorID,
		Title:    title,
		Content:  content,
	}
	if err := s.repo.Create(ctx, &announcement); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	response := dto.NewAnnouncementResponse(announcement)
	if s.publisher != nil && course.ChatRoomID != nil {
		s.publisher.Publish(ctx, *course.ChatRoomID, dto.RoomEventAnnouncement, response)
	}

	s.logger.Info().Uint("announcement_id", announcement.ID).Uint("course_id", course.ID).Msg("announcement posted")
	return response, nil
}

func (s *announcementService) List(ctx context.Context, courseID uint) ([]dto.AnnouncementResponse, error) {
	if _, err := loadCourse(ctx, s.courses, courseID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewAnnouncementResponseSlice(items), nil
}
