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

// SubmissionHandler exposes the submission gatekeeper.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("/assignments", middleware.WithAuth(h.submitAssignment, middleware.AuthOptions{Role: middleware.AuthRoleAny}))
	router.Post("/tests", middleware.WithAuth(h.submitTest, middleware.AuthOptions{Role: middleware.AuthRoleAny, AllowAnonymous: true}))
	router.Get("/me", middleware.WithAuth(h.mine, middleware.AuthOptions{Role: middleware.AuthRoleAny}))
	router.Post("/:submissionId/finalize", middleware.WithAuth(h.finalize, middleware.AuthOptions{Role: middleware.AuthRoleInstructor}))
}

// RegisterCourseRoutes attaches the course submission listing.
func (h *SubmissionHandler) RegisterCourseRoutes(courses fiber.Router) {
	courses.Get("/:courseId/submissions", middleware.WithAuth(h.listByCourse, middleware.AuthOptions{Role: middleware.AuthRoleInstructor}))
}

// RegisterAssessmentRoutes attaches attendance lookups.
func (h *SubmissionHandler) RegisterAssessmentRoutes(assessments fiber.Router) {
	assessments.Get("/:assessmentId/attendance", middleware.WithAuth(h.attendance, middleware.AuthOptions{Role: middleware.AuthRoleAny}))
}

func (h *SubmissionHandler) submitAssignment(c *fiber.Ctx) error {
	var payload dto.AssignmentSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	submission, err := h.service.SubmitAssignment(requestContext(c), userIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment submitted", submission)
}

func (h *SubmissionHandler) submitTest(c *fiber.Ctx) error {
	var payload dto.TestSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	submission, err := h.service.SubmitTest(requestContext(c), userIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "test submitted", submission)
}

func (h *SubmissionHandler) mine(c *fiber.Ctx) error {
	submissions, err := h.service.ListByUser(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) finalize(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "submissionId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	submission, err := h.service.Finalize(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *SubmissionHandler) listByCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	kind := strings.ToLower(strings.TrimSpace(c.Query("kind")))
	submissions, err := h.service.ListByCourse(requestContext(c), courseID, kind)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) attendance(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "assessmentId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	attendance, err := h.service.CheckAttendance(requestContext(c), userIDFromContext(c), assessmentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "attendance retrieved", attendance)
}
