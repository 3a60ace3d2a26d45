package models

import "time"

// Student defines the student model based on the 'students' table.
// Every student belongs to exactly one tenant; TenantID is part of its key.
type Student struct {
	TenantID       string    `json:"tenantId" db:"tenant_id"`
	ID             string    `json:"id" db:"id"`
	IndexNumber    string    `json:"indexNumber" db:"index_number" example:"MEC1001"`
	Name           string    `json:"name" db:"name"`
	Class          string    `json:"class" db:"class" example:"Grade 10"`
	Section        string    `json:"section" db:"section" example:"A"`
	Subjects       []string  `json:"subjects" db:"subjects"`
	DateOfBirth    time.Time `json:"dateOfBirth" db:"date_of_birth"`
	Sex            Sex       `json:"sex" db:"sex" example:"Male"`
	ParentName     string    `json:"parentName" db:"parent_name"`
	ParentPhone    string    `json:"parentPhone" db:"parent_phone"`
	WhatsappNumber string    `json:"whatsappNumber" db:"whatsapp_number"`
	Address        string    `json:"address" db:"address"`
	PhotoURL       string    `json:"photoUrl" db:"photo_url"`
	PaymentType    string    `json:"paymentType" db:"payment_type" example:"monthly"`
	QRCodeData     string    `json:"qrCodeData" db:"qr_code_data"`
	JoinedAt       time.Time `json:"joinedAt" db:"joined_at"`
	IsActive       bool      `json:"isActive" db:"is_active"`
	IsFeeExempt    bool      `json:"isFeeExempt" db:"is_fee_exempt"`
}

// IdentityKey is the tuple two records must share exactly to be treated as duplicates.
type IdentityKey struct {
	Name        string
	Class       string
	Section     string
	DateOfBirth time.Time
}

// Identity returns the duplicate-detection key of s
func (s *Student) Identity() IdentityKey {
	return IdentityKey{
		Name:        s.Name,
		Class:       s.Class,
		Section:     s.Section,
		DateOfBirth: DateOnly(s.DateOfBirth),
	}
}

// StudentFilter narrows a student query. Nil fields are not filtered on.
type StudentFilter struct {
	Name        *string
	Class       *string
	Section     *string
	DateOfBirth *time.Time
	Limit       int
}

// IdentityFilter builds an exact-match filter on the identity tuple, limited to one record.
func IdentityFilter(key IdentityKey) StudentFilter {
	dob := DateOnly(key.DateOfBirth)
	return StudentFilter{
		Name:        &key.Name,
		Class:       &key.Class,
		Section:     &key.Section,
		DateOfBirth: &dob,
		Limit:       1,
	}
}

// Matches reports whether s satisfies every set field of f
func (f StudentFilter) Matches(s *Student) bool {
	if f.Name != nil && s.Name != *f.Name {
		return false
	}
	if f.Class != nil && s.Class != *f.Class {
		return false
	}
	if f.Section != nil && s.Section != *f.Section {
		return false
	}
	if f.DateOfBirth != nil && !DateOnly(s.DateOfBirth).Equal(DateOnly(*f.DateOfBirth)) {
		return false
	}
	return true
}

// DateOnly truncates t to midnight UTC of its calendar day
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
