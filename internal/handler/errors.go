package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom/internal/service"
	"github.com/noah-isme/gema-classroom/internal/utils"
)

// Error kinds carried in details.kind of every error response.
const (
	kindNotFound             = "not_found"
	kindInvalidInput         = "invalid_input"
	kindDeadlinePassed       = "deadline_passed"
	kindUnknownQuestion      = "unknown_question"
	kindNotEnrolled          = "not_enrolled"
	kindNotEnrolledOrRemoved = "not_enrolled_or_removed"
	kindAlreadySubmitted     = "already_submitted"
	kindConflict             = "conflict"
	kindForbidden            = "forbidden"
	kindInternal             = "internal"
)

type errorMapping struct {
	target  error
	status  int
	kind    string
	message string
}

var errorMappings = []errorMapping{
	{service.ErrOrganizationNotFound, fiber.StatusNotFound, kindNotFound, "organization not found"},
	{service.ErrCourseNotFound, fiber.StatusNotFound, kindNotFound, "course not found"},
	{service.ErrChatRoomNotFound, fiber.StatusNotFound, kindNotFound, "chat room not found"},
	{service.ErrAssessmentNotFound, fiber.StatusNotFound, kindNotFound, "assessment not found"},
	{service.ErrSubmissionNotFound, fiber.StatusNotFound, kindNotFound, "submission not found"},
	{service.ErrUserNotFound, fiber.StatusNotFound, kindNotFound, "user not found"},
	{service.ErrDeadlinePassed, fiber.StatusUnprocessableEntity, kindDeadlinePassed, "deadline has passed"},
	{service.ErrUnknownQuestion, fiber.StatusBadRequest, kindUnknownQuestion, "answer references an unknown question"},
	{service.ErrNotEnrolled, fiber.StatusConflict, kindNotEnrolled, "student is not enrolled"},
	{service.ErrNotEnrolledOrRemoved, fiber.StatusConflict, kindNotEnrolledOrRemoved, "student is neither enrolled nor removed"},
	{service.ErrAlreadySubmitted, fiber.StatusConflict, kindAlreadySubmitted, "submission already exists"},
	{service.ErrEnrollmentConflict, fiber.StatusConflict, kindConflict, "enrollment changed concurrently, retry"},
	{service.ErrEnrollmentLimitReached, fiber.StatusConflict, kindConflict, "course enrollment limit reached"},
	{service.ErrOrganizationExists, fiber.StatusConflict, kindConflict, "organization already exists"},
	{service.ErrNotRoomParticipant, fiber.StatusForbidden, kindForbidden, "not a participant of this room"},
	{errMissingOrganization, fiber.StatusForbidden, kindForbidden, "organization membership required"},
	{service.ErrNoteTooLarge, fiber.StatusRequestEntityTooLarge, kindInvalidInput, "file exceeds maximum allowed size"},
	{service.ErrNoteTypeNotAllowed, fiber.StatusUnsupportedMediaType, kindInvalidInput, "file type not allowed"},
	{service.ErrNoteStorageUnavailable, fiber.StatusServiceUnavailable, kindInternal, "file storage is not configured"},
}

// passthroughInvalid errors carry a message safe to return verbatim.
var passthroughInvalid = []error{
	service.ErrInvalidSubmission,
	service.ErrInvalidAssessment,
	service.ErrEmptyContent,
}

// respondError maps service errors onto status codes and error kinds. Unknown errors are logged and hidden.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			return utils.SendErrorKind(c, mapping.status, mapping.kind, mapping.message)
		}
	}

	for _, target := range passthroughInvalid {
		if errors.Is(err, target) {
			return utils.SendErrorKind(c, fiber.StatusBadRequest, kindInvalidInput, err.Error())
		}
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := utils.ErrorDetails{Kind: kindInvalidInput}
		if len(validationErrors) > 0 {
			details.Field = validationErrors[0].Field()
		}
		return utils.Fail(c, fiber.StatusBadRequest, validationErrors.Error(), details)
	}

	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("internal server error")
	return utils.SendErrorKind(c, fiber.StatusInternalServerError, kindInternal, "internal server error")
}

func badRequest(c *fiber.Ctx, message string) error {
	return utils.SendErrorKind(c, fiber.StatusBadRequest, kindInvalidInput, message)
}
