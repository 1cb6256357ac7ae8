package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/middleware"
	"github.com/noah-isme/gema-classroom/internal/service"
	"github.com/noah-isme/gema-classroom/internal/utils"
)

// OrganizationHandler exposes organization endpoints.
type OrganizationHandler struct {
	service service.OrganizationService
	logger  zerolog.Logger
}

// NewOrganizationHandler builds an organization handler.
func NewOrganizationHandler(service service.OrganizationService, logger zerolog.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		service: service,
		logger:  logger.With().Str("component", "organization_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *OrganizationHandler) Register(router fiber.Router) {
	router.Post("", middleware.WithAuth(h.create, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
	router.Get("/:organizationId", h.get)
}

func (h *OrganizationHandler) create(c *fiber.Ctx) error {
	var payload dto.OrganizationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	organization, err := h.service.Create(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "organization created", organization)
}

func (h *OrganizationHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "organizationId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	organization, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "organization retrieved", organization)
}
