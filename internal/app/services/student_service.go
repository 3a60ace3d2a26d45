package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/edutrack/adminportal/internal/app/models/dto"
	"github.com/edutrack/adminportal/internal/app/repositories"
	"github.com/edutrack/adminportal/internal/pkg/apperrors"
	"github.com/edutrack/adminportal/internal/pkg/logger"
)

// ExportHeader is the header row of a student export
var ExportHeader = []string{
	"Index Number",
	"Full Name",
	"Class",
	"Section",
	"Date of Birth",
	"Sex",
	"Parent/Guardian Name",
	"Parent Phone Number",
	"Whatsapp Number",
	"Address",
	"Subjects",
	"Active",
	"Fee Exempt",
}

// StudentService manages individual student records
type StudentService struct {
	tenants      repositories.TenantStore
	students     repositories.StudentStore
	allocator    *IndexAllocator
	storeTimeout time.Duration
}

// NewStudentService creates a new student service
func NewStudentService(tenants repositories.TenantStore, students repositories.StudentStore, allocator *IndexAllocator, storeTimeout time.Duration) *StudentService {
	return &StudentService{
		tenants:      tenants,
		students:     students,
		allocator:    allocator,
		storeTimeout: storeTimeout,
	}
}

// CreateStudent validates and stores a manually entered student under a new
// index number. Unlike an import it does not look for duplicates.
func (s *StudentService) CreateStudent(ctx context.Context, tenantID string, req *dto.CreateStudentRequest) (*models.Student, error) {
	if err := ensureTenant(ctx, s.tenants, tenantID, s.storeTimeout); err != nil {
		return nil, err
	}

	candidate, dateInvalid := CandidateFromRequest(req)
	if violations := validateManual(&candidate, dateInvalid); len(violations) > 0 {
		return nil, apperrors.NewValidationError(violations)
	}

	student, err := persistWithNewIndex(ctx, s.allocator, func() *models.Student {
		return candidate.toStudent(tenantID)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating student: %w", err)
	}

	logger.Info().Str("tenantID", tenantID).Str("studentID", student.ID).Str("indexNumber", student.IndexNumber).Msg("Student created")
	return student, nil
}

// ListStudents returns the tenant's students ordered by index number suffix.
// Records with a non-conforming index number come last.
func (s *StudentService) ListStudents(ctx context.Context, tenantID string) ([]models.Student, error) {
	if err := ensureTenant(ctx, s.tenants, tenantID, s.storeTimeout); err != nil {
		return nil, err
	}

	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	students, err := s.students.ListStudents(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}

	SortByIndexNumber(students)
	return students, nil
}

// SortByIndexNumber orders students by numeric index suffix
func SortByIndexNumber(students []models.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		a, okA := ParseIndexNumber(students[i].IndexNumber)
		b, okB := ParseIndexNumber(students[j].IndexNumber)
		switch {
		case okA && okB:
			return a < b
		case okA != okB:
			return okA
		default:
			return students[i].IndexNumber < students[j].IndexNumber
		}
	})
}

// GetStudent retrieves one student of the tenant
func (s *StudentService) GetStudent(ctx context.Context, tenantID, id string) (*models.Student, error) {
	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	student, err := s.students.GetStudent(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return student, nil
}

// DeleteStudent removes one student. Its index number is never handed out again.
func (s *StudentService) DeleteStudent(ctx context.Context, tenantID, id string) error {
	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.students.DeleteStudent(ctx, tenantID, id); err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return err
		}
		return fmt.Errorf("error deleting student: %w", err)
	}

	logger.Info().Str("tenantID", tenantID).Str("studentID", id).Msg("Student deleted")
	return nil
}

// ExportStudentsCSV writes the tenant's students to w as CSV and returns how many were written
func (s *StudentService) ExportStudentsCSV(ctx context.Context, tenantID string, w io.Writer) (int, error) {
	students, err := s.ListStudents(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, fmt.Errorf("error writing export header: %w", err)
	}
	for i := range students {
		if err := cw.Write(exportRecord(&students[i])); err != nil {
			return i, fmt.Errorf("error writing export row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("error flushing export: %w", err)
	}

	return len(students), nil
}

func exportRecord(st *models.Student) []string {
	return []string{
		st.IndexNumber,
		st.Name,
		st.Class,
		st.Section,
		st.DateOfBirth.Format(time.DateOnly),
		string(st.Sex),
		st.ParentName,
		st.ParentPhone,
		st.WhatsappNumber,
		st.Address,
		strings.Join(st.Subjects, ", "),
		strconv.FormatBool(st.IsActive),
		strconv.FormatBool(st.IsFeeExempt),
	}
}
