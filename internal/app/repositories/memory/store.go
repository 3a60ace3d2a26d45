// Package memory provides map-backed implementations of the repository
// interfaces. It backs the "memory" database driver and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/edutrack/adminportal/internal/app/repositories"
	"github.com/edutrack/adminportal/internal/pkg/apperrors"
	"github.com/google/uuid"
)

type tenantData struct {
	students map[string]models.Student
	// order keeps insertion order for listing
	order   []string
	counter int
}

// Store holds tenants, students and index counters in memory
type Store struct {
	mu      sync.RWMutex
	tenants map[string]models.Tenant
	data    map[string]*tenantData
	now     func() time.Time
}

var (
	_ repositories.StudentStore = (*Store)(nil)
	_ repositories.IndexCounter = (*Store)(nil)
	_ repositories.TenantStore  = (*Store)(nil)
)

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{
		tenants: make(map[string]models.Tenant),
		data:    make(map[string]*tenantData),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Repositories exposes the store through the repository set
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Students: s,
		Counters: s,
		Tenants:  s,
	}
}

func cloneStudent(st models.Student) models.Student {
	st.Subjects = append([]string(nil), st.Subjects...)
	return st
}

func cloneTenant(t models.Tenant) models.Tenant {
	t.Subjects = append([]string(nil), t.Subjects...)
	return t
}

func (s *Store) tenantData(tenantID string) (*tenantData, error) {
	d, ok := s.data[tenantID]
	if !ok {
		return nil, apperrors.ErrTenantNotFound
	}
	return d, nil
}

// ListStudents returns the tenant's students in insertion order
func (s *Store) ListStudents(ctx context.Context, tenantID string) ([]models.Student, error) {
	return s.QueryStudents(ctx, tenantID, models.StudentFilter{})
}

// QueryStudents returns the tenant's students matching filter
func (s *Store) QueryStudents(ctx context.Context, tenantID string, filter models.StudentFilter) ([]models.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	students := []models.Student{}
	d, ok := s.data[tenantID]
	if !ok {
		return students, nil
	}

	for _, id := range d.order {
		st := d.students[id]
		if !filter.Matches(&st) {
			continue
		}
		students = append(students, cloneStudent(st))
		if filter.Limit > 0 && len(students) >= filter.Limit {
			break
		}
	}
	return students, nil
}

// CountStudents counts the tenant's students
func (s *Store) CountStudents(ctx context.Context, tenantID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if d, ok := s.data[tenantID]; ok {
		return len(d.students), nil
	}
	return 0, nil
}

// GetStudent retrieves one student of the tenant
func (s *Store) GetStudent(ctx context.Context, tenantID, id string) (*models.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.data[tenantID]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	st, ok := d.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	st = cloneStudent(st)
	return &st, nil
}

// CreateStudent stores student. The index number must be unused within the tenant.
func (s *Store) CreateStudent(ctx context.Context, student *models.Student) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.tenantData(student.TenantID)
	if err != nil {
		return err
	}
	return s.insertLocked(d, student)
}

// CreateStudentWithNextIndex allocates the next index number and stores
// student under it. The counter only moves when the insert succeeds.
func (s *Store) CreateStudentWithNextIndex(ctx context.Context, student *models.Student, floor int, indexNumber func(int) string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.tenantData(student.TenantID)
	if err != nil {
		return err
	}

	next := max(d.counter, floor, repositories.IndexCounterFloor) + 1
	student.IndexNumber = indexNumber(next)
	if err := s.insertLocked(d, student); err != nil {
		return err
	}
	d.counter = next
	return nil
}

func (s *Store) insertLocked(d *tenantData, student *models.Student) error {
	for _, existing := range d.students {
		if existing.IndexNumber == student.IndexNumber {
			return apperrors.ErrIndexNumberExists
		}
	}

	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.QRCodeData = student.ID
	if student.JoinedAt.IsZero() {
		student.JoinedAt = s.now()
	}
	student.DateOfBirth = models.DateOnly(student.DateOfBirth)

	if _, exists := d.students[student.ID]; !exists {
		d.order = append(d.order, student.ID)
	}
	d.students[student.ID] = cloneStudent(*student)
	return nil
}

// DeleteStudent removes one student. The index counter is left untouched.
func (s *Store) DeleteStudent(ctx context.Context, tenantID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.data[tenantID]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	if _, ok := d.students[id]; !ok {
		return apperrors.ErrStudentNotFound
	}

	delete(d.students, id)
	for i, existing := range d.order {
		if existing == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

// CurrentIndexCounter returns the tenant's counter, at least 1000
func (s *Store) CurrentIndexCounter(ctx context.Context, tenantID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, err := s.tenantData(tenantID)
	if err != nil {
		return 0, err
	}
	return max(d.counter, repositories.IndexCounterFloor), nil
}

// CreateTenant stores the tenant. Emails are unique case-insensitively.
func (s *Store) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tenants {
		if strings.EqualFold(existing.Email, tenant.Email) {
			return apperrors.ErrTenantEmailExists
		}
	}

	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	now := s.now()
	tenant.CreatedAt, tenant.UpdatedAt = now, now

	s.tenants[tenant.ID] = cloneTenant(*tenant)
	s.data[tenant.ID] = &tenantData{
		students: make(map[string]models.Student),
		counter:  repositories.IndexCounterFloor,
	}
	return nil
}

// GetTenant retrieves a tenant by ID
func (s *Store) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, apperrors.ErrTenantNotFound
	}
	t = cloneTenant(t)
	return &t, nil
}

// ListTenants returns every tenant, oldest first
func (s *Store) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tenants := make([]models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		tenants = append(tenants, cloneTenant(t))
	}
	sort.Slice(tenants, func(i, j int) bool {
		if tenants[i].CreatedAt.Equal(tenants[j].CreatedAt) {
			return tenants[i].ID < tenants[j].ID
		}
		return tenants[i].CreatedAt.Before(tenants[j].CreatedAt)
	})
	return tenants, nil
}

// UpdateTenant replaces the stored tenant
func (s *Store) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tenants[tenant.ID]
	if !ok {
		return apperrors.ErrTenantNotFound
	}

	tenant.CreatedAt = existing.CreatedAt
	tenant.UpdatedAt = s.now()
	s.tenants[tenant.ID] = cloneTenant(*tenant)
	return nil
}

// DeleteTenant removes the tenant with all of its students and its counter
func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[id]; !ok {
		return apperrors.ErrTenantNotFound
	}
	delete(s.tenants, id)
	delete(s.data, id)
	return nil
}
