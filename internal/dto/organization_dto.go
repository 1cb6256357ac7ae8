package dto

import (
	"time"

	"github.com/noah-isme/gema-classroom/internal/models"
)

// OrganizationCreateRequest registers a new organization.
type OrganizationCreateRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=255"`
	Description  string `json:"description" validate:"omitempty,max=4000"`
	Address      string `json:"address" validate:"omitempty,max=512"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	ContactPhone string `json:"contact_phone" validate:"omitempty,max=32"`
	Website      string `json:"website" validate:"omitempty,url"`
}

// OrganizationResponse is the public representation of an organization.
type OrganizationResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Address      string    `json:"address"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	Website      string    `json:"website"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewOrganizationResponse converts the model into a DTO.
func NewOrganizationResponse(model models.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:           model.ID,
		Name:         model.Name,
		Description:  model.Description,
		Address:      model.Address,
		ContactEmail: model.ContactEmail,
		ContactPhone: model.ContactPhone,
		Website:      model.Website,
		CreatedAt:    model.CreatedAt,
	}
}
