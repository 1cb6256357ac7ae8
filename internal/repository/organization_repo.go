package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/models"
)

// OrganizationRepository persists organizations.
type OrganizationRepository interface {
	Create(ctx context.Context, organization *models.Organization) error
	GetByID(ctx context.Context, id uint) (models.Organization, error)
}

type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository constructs a GORM backed organization repository.
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, organization *models.Organization) error {
	return r.db.WithContext(ctx).Create(organization).Error
}

func (r *organizationRepository) GetByID(ctx context.Context, id uint) (models.Organization, error) {
	var organization models.Organization
	if err := r.db.WithContext(ctx).First(&organization, id).Error; err != nil {
		return models.Organization{}, err
	}
	return organization, nil
}
