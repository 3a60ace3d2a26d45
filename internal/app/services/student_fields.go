package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/edutrack/adminportal/internal/app/models/dto"
)

// Canonical student fields of an import row
const (
	FieldName           = "name"
	FieldClass          = "class"
	FieldSection        = "section"
	FieldDateOfBirth    = "dateOfBirth"
	FieldSex            = "sex"
	FieldParentName     = "parentName"
	FieldParentPhone    = "parentPhone"
	FieldWhatsappNumber = "whatsappNumber"
	FieldAddress        = "address"
	FieldSubjects       = "subjects"
	FieldPhotoURL       = "photoUrl"
	FieldPaymentType    = "paymentType"
)

// columnAliases lists, per canonical field, the accepted header names in
// priority order. The first header with a non-blank value wins.
var columnAliases = map[string][]string{
	FieldName:           {"Full Name", "name"},
	FieldClass:          {"Class", "class"},
	FieldSection:        {"Section", "section"},
	FieldDateOfBirth:    {"Date of Birth", "dob", "dateOfBirth"},
	FieldSex:            {"Sex", "sex"},
	FieldParentName:     {"Parent/Guardian Name", "parentName"},
	FieldParentPhone:    {"Parent Phone Number", "parentPhone"},
	FieldWhatsappNumber: {"Whatsapp Number", "whatsappNumber"},
	FieldAddress:        {"Address", "address"},
	FieldSubjects:       {"Subjects", "subjects"},
	FieldPhotoURL:       {"Student Photo", "photoUrl"},
	FieldPaymentType:    {"Payment type", "paymentType"},
}

// Violation messages
const (
	msgNameRequired        = "Name is required"
	msgClassRequired       = "Class is required"
	msgSectionRequired     = "Section is required"
	msgSubjectRequired     = "At least one subject is required"
	msgDateOfBirthRequired = "Date of birth is required"
	msgDateOfBirthInvalid  = "Valid date of birth (MM/DD/YYYY or YYYY-MM-DD) is required"
	msgSexRequired         = "Valid sex (Male/Female) is required"
	msgParentNameRequired  = "Parent name is required"
	msgParentPhoneRequired = "Parent phone is required"
)

// StudentCandidate is a student before validation, index allocation and persistence
type StudentCandidate struct {
	Name           string
	Class          string
	Section        string
	Subjects       []string
	DateOfBirth    time.Time
	Sex            string
	ParentName     string
	ParentPhone    string
	WhatsappNumber string
	Address        string
	PhotoURL       string
	PaymentType    string
	IsFeeExempt    bool
}

// Identity returns the duplicate-detection key of the candidate
func (c *StudentCandidate) Identity() models.IdentityKey {
	return models.IdentityKey{
		Name:        c.Name,
		Class:       c.Class,
		Section:     c.Section,
		DateOfBirth: models.DateOnly(c.DateOfBirth),
	}
}

// Validate returns every violated rule in a fixed order. An empty result means valid.
func (c *StudentCandidate) Validate() []string {
	var violations []string
	if c.Name == "" {
		violations = append(violations, msgNameRequired)
	}
	if c.Class == "" {
		violations = append(violations, msgClassRequired)
	}
	if c.Section == "" {
		violations = append(violations, msgSectionRequired)
	}
	if len(c.Subjects) == 0 {
		violations = append(violations, msgSubjectRequired)
	}
	if c.DateOfBirth.IsZero() {
		violations = append(violations, msgDateOfBirthRequired)
	}
	if !models.Sex(c.Sex).Valid() {
		violations = append(violations, msgSexRequired)
	}
	if c.ParentName == "" {
		violations = append(violations, msgParentNameRequired)
	}
	if c.ParentPhone == "" {
		violations = append(violations, msgParentPhoneRequired)
	}
	return violations
}

// toStudent builds the record to persist; the index number is assigned on insert
func (c *StudentCandidate) toStudent(tenantID string) *models.Student {
	whatsapp := c.WhatsappNumber
	if whatsapp == "" {
		whatsapp = c.ParentPhone
	}
	paymentType := c.PaymentType
	if paymentType == "" {
		paymentType = models.PaymentTypeMonthly
	}

	return &models.Student{
		TenantID:       tenantID,
		Name:           c.Name,
		Class:          c.Class,
		Section:        c.Section,
		Subjects:       append([]string(nil), c.Subjects...),
		DateOfBirth:    models.DateOnly(c.DateOfBirth),
		Sex:            models.Sex(c.Sex),
		ParentName:     c.ParentName,
		ParentPhone:    c.ParentPhone,
		WhatsappNumber: whatsapp,
		Address:        c.Address,
		PhotoURL:       c.PhotoURL,
		PaymentType:    paymentType,
		IsActive:       true,
		IsFeeExempt:    c.IsFeeExempt,
	}
}

// ParseSubjects splits a comma-separated subject list, trimming entries and dropping empty ones
func ParseSubjects(raw string) []string {
	subjects := []string{}
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			subjects = append(subjects, s)
		}
	}
	return subjects
}

// ParseDateOfBirth accepts M/D/YYYY (slash dates are always month first) and
// YYYY-M-D. The year must lie strictly between 1900 and 2100 and the date
// must exist in the calendar.
func ParseDateOfBirth(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if strings.Contains(raw, "/") {
		if parts, ok := splitNumbers(raw, "/"); ok {
			if d, ok := buildDate(parts[2], parts[0], parts[1]); ok {
				return d, true
			}
		}
	}

	if strings.Contains(raw, "-") {
		if parts, ok := splitNumbers(raw, "-"); ok {
			if d, ok := buildDate(parts[0], parts[1], parts[2]); ok {
				return d, true
			}
		}
	}

	return time.Time{}, false
}

func splitNumbers(raw, sep string) ([3]int, bool) {
	var out [3]int
	parts := strings.Split(raw, sep)
	if len(parts) != 3 {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, false
		}
		out[i] = n
	}
	return out, true
}

func buildDate(year, month, day int) (time.Time, bool) {
	if year <= 1900 || year >= 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// reject dates that time.Date normalized into the next month
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return d, true
}

// rowValue returns the first non-blank value among the field's aliases, trimmed
func rowValue(row map[string]string, field string) string {
	for _, alias := range columnAliases[field] {
		if v := strings.TrimSpace(row[alias]); v != "" {
			return v
		}
	}
	return ""
}

// candidateFromRow maps an import row onto a candidate. A missing or
// unparseable date of birth becomes today's date and is reported as a warning.
func candidateFromRow(row map[string]string, today time.Time) (StudentCandidate, *models.ImportWarning) {
	c := StudentCandidate{
		Name:           rowValue(row, FieldName),
		Class:          rowValue(row, FieldClass),
		Section:        rowValue(row, FieldSection),
		Subjects:       ParseSubjects(rowValue(row, FieldSubjects)),
		Sex:            rowValue(row, FieldSex),
		ParentName:     rowValue(row, FieldParentName),
		ParentPhone:    rowValue(row, FieldParentPhone),
		WhatsappNumber: rowValue(row, FieldWhatsappNumber),
		Address:        rowValue(row, FieldAddress),
		PhotoURL:       rowValue(row, FieldPhotoURL),
		PaymentType:    rowValue(row, FieldPaymentType),
	}
	if c.WhatsappNumber == "" {
		c.WhatsappNumber = c.ParentPhone
	}
	if c.PaymentType == "" {
		c.PaymentType = models.PaymentTypeMonthly
	}

	rawDOB := rowValue(row, FieldDateOfBirth)
	dob, ok := ParseDateOfBirth(rawDOB)
	if ok {
		c.DateOfBirth = dob
		return c, nil
	}

	c.DateOfBirth = models.DateOnly(today)
	message := "date of birth missing, using current date"
	if rawDOB != "" {
		message = "could not parse date of birth " + strconv.Quote(rawDOB) + ", using current date"
	}
	return c, &models.ImportWarning{Field: FieldDateOfBirth, Message: message}
}

// CandidateFromRequest maps a manual creation request onto a candidate.
// dateInvalid reports a date of birth that was given but could not be parsed.
func CandidateFromRequest(req *dto.CreateStudentRequest) (c StudentCandidate, dateInvalid bool) {
	subjects := make([]string, 0, len(req.Subjects))
	for _, s := range req.Subjects {
		if s = strings.TrimSpace(s); s != "" {
			subjects = append(subjects, s)
		}
	}

	c = StudentCandidate{
		Name:           strings.TrimSpace(req.Name),
		Class:          strings.TrimSpace(req.Class),
		Section:        strings.TrimSpace(req.Section),
		Subjects:       subjects,
		Sex:            strings.TrimSpace(req.Sex),
		ParentName:     strings.TrimSpace(req.ParentName),
		ParentPhone:    strings.TrimSpace(req.ParentPhone),
		WhatsappNumber: strings.TrimSpace(req.WhatsappNumber),
		Address:        strings.TrimSpace(req.Address),
		PhotoURL:       strings.TrimSpace(req.PhotoURL),
		PaymentType:    strings.TrimSpace(req.PaymentType),
		IsFeeExempt:    req.IsFeeExempt,
	}

	if strings.TrimSpace(req.DateOfBirth) != "" {
		dob, ok := ParseDateOfBirth(req.DateOfBirth)
		if !ok {
			return c, true
		}
		c.DateOfBirth = dob
	}

	return c, false
}

// validateManual validates a manually entered candidate, reporting an
// unparseable date of birth instead of a missing one.
func validateManual(c *StudentCandidate, dateInvalid bool) []string {
	violations := c.Validate()
	if dateInvalid {
		for i, v := range violations {
			if v == msgDateOfBirthRequired {
				violations[i] = msgDateOfBirthInvalid
			}
		}
	}
	return violations
}
