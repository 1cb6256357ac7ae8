package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/repository"
)

var (
	// ErrOrganizationNotFound indicates the organization does not exist.
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrOrganizationExists indicates another organization already uses the name.
	ErrOrganizationExists = errors.New("organization already exists")
)

// OrganizationService registers and looks up organizations.
type OrganizationService interface {
	Create(ctx context.Context, payload dto.OrganizationCreateRequest) (dto.OrganizationResponse, error)
	Get(ctx context.Context, id uint) (dto.OrganizationResponse, error)
}

type organizationService struct {
	repo      repository.OrganizationRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewOrganizationService constructs the organization service.
func NewOrganizationService(repo repository.OrganizationRepository, validate *validator.Validate, logger zerolog.Logger) OrganizationService {
	return &organizationService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "organization_service").Logger(),
	}
}

func (s *organizationService) Create(ctx context.Context, payload dto.OrganizationCreateRequest) (dto.OrganizationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.OrganizationResponse{}, err
	}

	organization := models.Organization{
		Name:         strings.TrimSpace(payload.Name),
		Description:  strings.TrimSpace(payload.Description),
		Address:      strings.TrimSpace(payload.Address),
		ContactEmail: strings.ToLower(strings.TrimSpace(payload.ContactEmail)),
		ContactPhone: strings.TrimSpace(payload.ContactPhone),
		Website:      strings.TrimSpace(payload.Website),
	}
	if err := s.repo.Create(ctx, &organization); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.OrganizationResponse{}, ErrOrganizationExists
		}
		return dto.OrganizationResponse{}, err
	}

	s.logger.Info().Uint("organization_id", organization.ID).Msg("organization registered")
	return dto.NewOrganizationResponse(organization), nil
}

func (s *organizationService) Get(ctx context.Context, id uint) (dto.OrganizationResponse, error) {
	organization, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.OrganizationResponse{}, ErrOrganizationNotFound
		}
		return dto.OrganizationResponse{}, err
	}
	return dto.NewOrganizationResponse(organization), nil
}
