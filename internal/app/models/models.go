package models

// Sex of a student. Only these two values are accepted.
type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

// Valid reports whether s is one of the accepted values. Matching is exact.
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

// Payment types
const (
	PaymentTypeMonthly = "monthly"
)

// DefaultTenantSubjects is the subject catalogue every new tenant starts with
var DefaultTenantSubjects = []string{
	"Mathematics",
	"Science",
	"English",
	"History",
	"ICT",
	"Tamil",
	"Sinhala",
	"Commerce",
}
