package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/middleware"
	"github.com/noah-isme/gema-classroom/internal/service"
	"github.com/noah-isme/gema-classroom/internal/utils"
)

// CourseHandler exposes course management endpoints.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler builds a course handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *CourseHandler) Register(router fiber.Router) {
	admin := middleware.AuthOptions{Role: middleware.AuthRoleAdmin}
	instructor := middleware.AuthOptions{Role: middleware.AuthRoleInstructor}

	router.Post("", middleware.WithAuth(h.create, admin))
	router.Get("", middleware.WithAuth(h.list, admin))
	router.Get("/:courseId", h.details)
	router.Patch("/:courseId/status", middleware.WithAuth(h.updateStatus, admin))
	router.Put("/:courseId/session-link", middleware.WithAuth(h.updateSessionLink, admin))
	router.Get("/:courseId/chat-room", h.chatRoom)
	router.Get("/:courseId/students", middleware.WithAuth(h.students, instructor))
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	organizationID, err := organizationIDFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	course, err := h.service.Create(requestContext(c), organizationID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	organizationID, err := organizationIDFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	courses, err := h.service.ListByOrganization(requestContext(c), organizationID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) details(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	detail, err := h.service.Details(requestContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !isStaff(c) {
		detail = detail.WithoutEmails()
	}
	return utils.SendSuccess(c, "course retrieved", detail)
}

func (h *CourseHandler) updateStatus(c *fiber.Ctx) error {
	organizationID, err := organizationIDFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.CourseStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	course, err := h.service.UpdateStatus(requestContext(c), organizationID, courseID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "course status updated", course)
}

func (h *CourseHandler) updateSessionLink(c *fiber.Ctx) error {
	organizationID, err := organizationIDFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.SessionLinkRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	course, err := h.service.UpdateSessionLink(requestContext(c), organizationID, courseID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "session link updated", course)
}

func (h *CourseHandler) chatRoom(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	room, err := h.service.ChatRoom(requestContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "chat room retrieved", room)
}

func (h *CourseHandler) students(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	students, err := h.service.Students(requestContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "students retrieved", students)
}
