package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/repository"
	"github.com/noah-isme/gema-classroom/pkg/cloudinary"
)

const defaultNoteMaxBytes = 10 * 1024 * 1024

var (
	// ErrNoteTooLarge indicates the uploaded file exceeds the size limit.
	ErrNoteTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrNoteTypeNotAllowed indicates the uploaded file type is not accepted.
	ErrNoteTypeNotAllowed = errors.New("file type not allowed")
	// ErrNoteStorageUnavailable indicates no file storage is configured.
	ErrNoteStorageUnavailable = errors.New("file storage is not configured")
)

// FileUploader stores a note file and returns its URL.
type FileUploader interface {
	Upload(ctx context.Context, asset cloudinary.Asset) (string, error)
}

// NoteService manages course notes.
type NoteService interface {
	CreateText(ctx context.Context, courseID uint, payload dto.NoteCreateRequest) (dto.NoteResponse, error)
	Upload(ctx context.Context, courseID uint, payload dto.NoteCreateRequest, file *multipart.FileHeader) (dto.NoteResponse, error)
	List(ctx context.Context, courseID uint) ([]dto.NoteResponse, error)
}

type noteService struct {
	repo      repository.NoteRepository
	courses   repository.CourseRepository
	uploader  FileUploader
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	maxBytes  int64
}

// NewNoteService constructs the note service. A nil uploader rejects file notes.
func NewNoteService(repo repository.NoteRepository, courses repository.CourseRepository, uploader FileUploader, validate *validator.Validate, logger zerolog.Logger) NoteService {
	return &noteService{
		repo:      repo,
		courses:   courses,
		uploader:  uploader,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "note_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-classroom/internal/service/note"),
		maxBytes:  defaultNoteMaxBytes,
	}
}

func (s *noteService) CreateText(ctx context.Context, courseID uint, payload dto.NoteCreateRequest) (dto.NoteResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NoteResponse{}, err
	}
	if _, err := loadCourse(ctx, s.courses, courseID); err != nil {
		return dto.NoteResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.NoteResponse{}, ErrEmptyContent
	}

	note := models.Note{
		CourseID: courseID,
		Type:     models.NoteTypeText,
		Title:    strings.TrimSpace(payload.Title),
		Content:  content,
	}
	if err := s.repo.Create(ctx, &note); err != nil {
		return dto.NoteResponse{}, err
	}
	return dto.NewNoteResponse(note), nil
}

func (s *noteService) Upload(ctx context.Context, courseID uint, payload dto.NoteCreateRequest, file *multipart.FileHeader) (dto.NoteResponse, error) {
	ctx, span := s.tracer.Start(ctx, "note.upload", trace.WithAttributes(attribute.Int("course.id", int(courseID))))
	defer span.End()

	fail := func(err error) (dto.NoteResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.NoteResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return fail(err)
	}
	if file == nil {
		return fail(errors.New("file is required"))
	}
	if s.uploader == nil {
		return fail(ErrNoteStorageUnavailable)
	}
	if file.Size > s.maxBytes {
		return fail(ErrNoteTooLarge)
	}
	if _, err := loadCourse(ctx, s.courses, courseID); err != nil {
		return fail(err)
	}

	handle, err := file.Open()
	if err != nil {
		return fail(err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxBytes+1)); err != nil {
		return fail(err)
	}
	if int64(buf.Len()) > s.maxBytes {
		return fail(ErrNoteTooLarge)
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("note.mime", detected.String()))
	if !isAllowedNoteType(detected) {
		return fail(ErrNoteTypeNotAllowed)
	}

	url, err := s.uploader.Upload(ctx, cloudinary.Asset{
		Name:        file.Filename,
		ContentType: detected.String(),
		Subfolder:   fmt.Sprintf("course-%d", courseID),
		Body:        bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return fail(err)
	}

	note := models.Note{
		CourseID: courseID,
		Type:     models.NoteTypeFile,
		Title:    strings.TrimSpace(payload.Title),
		Content:  url,
	}
	if err := s.repo.Create(ctx, &note); err != nil {
		return fail(err)
	}

	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().Uint("note_id", note.ID).Uint("course_id", courseID).Str("mime", detected.String()).Msg("note file uploaded")
	return dto.NewNoteResponse(note), nil
}

func (s *noteService) List(ctx context.Context, courseID uint) ([]dto.NoteResponse, error) {
	if _, err := loadCourse(ctx, s.courses, courseID); err != nil {
		return nil, err
	}
	notes, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewNoteResponseSlice(notes), nil
}

var allowedNoteTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"text/plain",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

func isAllowedNoteType(detected *mimetype.MIME) bool {
	for _, allowed := range allowedNoteTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}
