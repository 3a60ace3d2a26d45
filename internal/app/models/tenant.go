package models

import "time"

// Tenant is an academy account. All student data is partitioned by tenant ID.
type Tenant struct {
	ID                   string    `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	AcademyName          string    `json:"academyName" db:"academy_name"`
	Email                string    `json:"email" db:"email"`
	PasswordHash         string    `json:"-" db:"password_hash"`
	ProfilePhotoURL      string    `json:"profilePhotoUrl" db:"profile_photo_url"`
	SMSGatewayToken      string    `json:"smsGatewayToken" db:"sms_gateway_token"`
	WhatsappGatewayToken string    `json:"whatsappGatewayToken" db:"whatsapp_gateway_token"`
	Subjects             []string  `json:"subjects" db:"subjects"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time `json:"updatedAt" db:"updated_at"`
}

// TenantPatch lists the tenant fields an update may change. Nil means unchanged.
type TenantPatch struct {
	Name                 *string
	AcademyName          *string
	ProfilePhotoURL      *string
	SMSGatewayToken      *string
	WhatsappGatewayToken *string
	Subjects             []string
}

// Apply copies every set field of p onto t
func (p TenantPatch) Apply(t *Tenant) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.AcademyName != nil {
		t.AcademyName = *p.AcademyName
	}
	if p.ProfilePhotoURL != nil {
		t.ProfilePhotoURL = *p.ProfilePhotoURL
	}
	if p.SMSGatewayToken != nil {
		t.SMSGatewayToken = *p.SMSGatewayToken
	}
	if p.WhatsappGatewayToken != nil {
		t.WhatsappGatewayToken = *p.WhatsappGatewayToken
	}
	if p.Subjects != nil {
		t.Subjects = append([]string(nil), p.Subjects...)
	}
}
