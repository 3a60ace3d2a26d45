package dto

import "github.com/edutrack/adminportal/internal/app/models"

// CreateStudentRequest is the body of a manual student creation.
// Field rules are enforced by the student service so that every violation is reported at once.
type CreateStudentRequest struct {
	Name           string   `json:"name" example:"Nimal Perera"`
	Class          string   `json:"class" example:"Grade 10"`
	Section        string   `json:"section" example:"A"`
	Subjects       []string `json:"subjects" example:"Mathematics,Science"`
	DateOfBirth    string   `json:"dateOfBirth" example:"2010-05-15"`
	Sex            string   `json:"sex" example:"Male"`
	ParentName     string   `json:"parentName" example:"Sunil Perera"`
	ParentPhone    string   `json:"parentPhone" example:"0771234567"`
	WhatsappNumber string   `json:"whatsappNumber,omitempty" example:"0771234567"`
	Address        string   `json:"address,omitempty"`
	PhotoURL       string   `json:"photoUrl,omitempty"`
	PaymentType    string   `json:"paymentType,omitempty" example:"monthly"`
	IsFeeExempt    bool     `json:"isFeeExempt,omitempty"`
}

// ImportStudentsRequest is the JSON form of an import call
type ImportStudentsRequest struct {
	CSVData string `json:"csvData" validate:"required"`
}

// ImportStudentsResponse is the result of an import call
type ImportStudentsResponse struct {
	Message string `json:"message" example:"Import completed: 3 succeeded, 1 failed"`
	*models.ImportOutcome
}

// StudentListResponse lists a tenant's students
type StudentListResponse struct {
	Students   []models.Student `json:"students"`
	Total      int              `json:"total"`
	Pagination *PaginationInfo  `json:"pagination,omitempty"`
}

// DuplicateReportResponse lists duplicate groups of a tenant
type DuplicateReportResponse struct {
	Groups     []models.DuplicateGroup `json:"groups"`
	TotalExtra int                     `json:"totalExtra"`
}
