package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/middleware"
	"github.com/noah-isme/gema-classroom/internal/service"
	"github.com/noah-isme/gema-classroom/internal/utils"
)

// AssessmentHandler exposes assignment and test definitions.
type AssessmentHandler struct {
	service service.AssessmentService
	logger  zerolog.Logger
}

// NewAssessmentHandler builds an assessment handler.
func NewAssessmentHandler(service service.AssessmentService, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assessment_handler").Logger(),
	}
}

// RegisterCourseRoutes attaches routes nested under a course.
func (h *AssessmentHandler) RegisterCourseRoutes(courses fiber.Router) {
	courses.Post("/:courseId/assessments", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleTrainer, middleware.RoleVolunteer), h.create)
	courses.Get("/:courseId/assessments", h.listByCourse)
}

// Register attaches the assessment routes to the provided router group.
func (h *AssessmentHandler) Register(router fiber.Router) {
	router.Get("/:assessmentId", h.get)
	router.Delete("/:assessmentId", middleware.WithAuth(h.delete, middleware.AuthOptions{Role: middleware.AuthRoleInstructor}))
}

func (h *AssessmentHandler) create(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.AssessmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	assessment, err := h.service.Create(requestContext(c), courseID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment created", assessment)
}

func (h *AssessmentHandler) listByCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	kind := strings.ToLower(strings.TrimSpace(c.Query("kind")))
	assessments, err := h.service.ListByCourse(requestContext(c), courseID, kind, isStaff(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "assessments retrieved", assessments)
}

func (h *AssessmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "assessmentId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	assessment, err := h.service.Get(requestContext(c), id, isStaff(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "assessment retrieved", assessment)
}

func (h *AssessmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "assessmentId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Delete(requestContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "assessment deleted", nil)
}
