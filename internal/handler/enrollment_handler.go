package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/middleware"
	"github.com/noah-isme/gema-classroom/internal/service"
	"github.com/noah-isme/gema-classroom/internal/utils"
)

// EnrollmentHandler exposes the enrollment state machine over HTTP.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler builds an enrollment handler.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches course scoped enrollment routes.
func (h *EnrollmentHandler) Register(courses fiber.Router) {
	admin := middleware.AuthOptions{Role: middleware.AuthRoleAdmin}

	courses.Patch("/:courseId/students/:studentId/toggle", middleware.WithAuth(h.toggle, admin))
	courses.Put("/:courseId/students/:studentId", middleware.WithAuth(h.setState, admin))
	courses.Post("/:courseId/participants", middleware.WithAuth(h.addParticipant, admin))
}

// RegisterUserRoutes attaches the user side projection of memberships.
func (h *EnrollmentHandler) RegisterUserRoutes(users fiber.Router) {
	users.Get("/me/courses", middleware.WithAuth(h.myCourses, middleware.AuthOptions{Role: middleware.AuthRoleAny}))
	users.Get("/:userId/courses", middleware.WithAuth(h.userCourses, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
}

func (h *EnrollmentHandler) toggle(c *fiber.Ctx) error {
	organizationID, err := organizationIDFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	courseID, studentID, err := parseStudentRoute(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.service.ToggleEnrollment(requestContext(c), organizationID, courseID, studentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "enrollment toggled", result)
}

func (h *EnrollmentHandler) setState(c *fiber.Ctx) error {
	organizationID, err := organizationIDFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	courseID, studentID, err := parseStudentRoute(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.EnrollmentStateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.service.SetEnrollmentState(requestContext(c), organizationID, courseID, studentID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "enrollment updated", result)
}

func (h *EnrollmentHandler) addParticipant(c *fiber.Ctx) error {
	organizationID, err := organizationIDFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.ParticipantAddRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.service.AddParticipant(requestContext(c), organizationID, courseID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "participant added", result)
}

func (h *EnrollmentHandler) myCourses(c *fiber.Ctx) error {
	result, err := h.service.EnrolledCourses(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "courses retrieved", result)
}

func (h *EnrollmentHandler) userCourses(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.service.EnrolledCourses(requestContext(c), userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "courses retrieved", result)
}

func parseStudentRoute(c *fiber.Ctx) (uint, uint, error) {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return 0, 0, err
	}
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return 0, 0, err
	}
	return courseID, studentID, nil
}
