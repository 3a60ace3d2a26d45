package dto

import (
	"time"

	"github.com/edutrack/adminportal/internal/app/models"
)

// CreateTenantRequest creates a tenant account
type CreateTenantRequest struct {
	Email           string `json:"email" validate:"required,email" example:"admin@academy.lk"`
	Password        string `json:"password" validate:"required,min=6" example:"secret123"`
	Name            string `json:"name" validate:"required,max=200" example:"Kamal Silva"`
	AcademyName     string `json:"academyName" validate:"required,max=200" example:"Bright Future Academy"`
	ProfilePhotoURL string `json:"profilePhotoUrl,omitempty" validate:"omitempty,url"`
}

// UpdateTenantRequest changes only the provided fields of a tenant
type UpdateTenantRequest struct {
	Name                 *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	AcademyName          *string  `json:"academyName,omitempty" validate:"omitempty,min=1,max=200"`
	ProfilePhotoURL      *string  `json:"profilePhotoUrl,omitempty" validate:"omitempty,url"`
	SMSGatewayToken      *string  `json:"smsGatewayToken,omitempty"`
	WhatsappGatewayToken *string  `json:"whatsappGatewayToken,omitempty"`
	Subjects             []string `json:"subjects,omitempty" validate:"omitempty,min=1,dive,required"`
}

// ToPatch converts the request to a tenant patch
func (r UpdateTenantRequest) ToPatch() models.TenantPatch {
	return models.TenantPatch{
		Name:                 r.Name,
		AcademyName:          r.AcademyName,
		ProfilePhotoURL:      r.ProfilePhotoURL,
		SMSGatewayToken:      r.SMSGatewayToken,
		WhatsappGatewayToken: r.WhatsappGatewayToken,
		Subjects:             r.Subjects,
	}
}

// TenantResponse is the public view of a tenant. The password hash is never exposed.
type TenantResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	AcademyName          string    `json:"academyName"`
	Email                string    `json:"email"`
	ProfilePhotoURL      string    `json:"profilePhotoUrl"`
	SMSGatewayToken      string    `json:"smsGatewayToken"`
	WhatsappGatewayToken string    `json:"whatsappGatewayToken"`
	Subjects             []string  `json:"subjects"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// NewTenantResponse maps a tenant model to its response
func NewTenantResponse(t *models.Tenant) TenantResponse {
	return TenantResponse{
		ID:                   t.ID,
		Name:                 t.Name,
		AcademyName:          t.AcademyName,
		Email:                t.Email,
		ProfilePhotoURL:      t.ProfilePhotoURL,
		SMSGatewayToken:      t.SMSGatewayToken,
		WhatsappGatewayToken: t.WhatsappGatewayToken,
		Subjects:             t.Subjects,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}
