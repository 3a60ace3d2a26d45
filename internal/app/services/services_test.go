package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/edutrack/adminportal/internal/app/repositories"
	"github.com/edutrack/adminportal/internal/app/repositories/memory"
	"github.com/edutrack/adminportal/internal/pkg/apperrors"
	"github.com/edutrack/adminportal/internal/pkg/metrics"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store unavailable")

// flakyStudents wraps a student store with injectable failures. Allocating
// inserts share the counter's failure knob.
type flakyStudents struct {
	repositories.StudentStore
	counter     *flakyCounter
	failCreate  map[string]error
	queryErr    error
	countErr    error
	afterCreate func()
}

func (f *flakyStudents) CreateStudent(ctx context.Context, student *models.Student) error {
	if err, ok := f.failCreate[student.Name]; ok {
		return err
	}
	if err := f.StudentStore.CreateStudent(ctx, student); err != nil {
		return err
	}
	f.created()
	return nil
}

func (f *flakyStudents) CreateStudentWithNextIndex(ctx context.Context, student *models.Student, floor int, indexNumber func(int) string) error {
	if err, ok := f.failCreate[student.Name]; ok {
		return err
	}
	if f.counter.fail() {
		return fmt.Errorf("%w: %w", apperrors.ErrIndexAllocation, errStoreDown)
	}
	if err := f.StudentStore.CreateStudentWithNextIndex(ctx, student, floor, indexNumber); err != nil {
		return err
	}
	f.created()
	return nil
}

func (f *flakyStudents) created() {
	if f.afterCreate != nil {
		f.afterCreate()
	}
}

func (f *flakyStudents) QueryStudents(ctx context.Context, tenantID string, filter models.StudentFilter) ([]models.Student, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.StudentStore.QueryStudents(ctx, tenantID, filter)
}

func (f *flakyStudents) CountStudents(ctx context.Context, tenantID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.StudentStore.CountStudents(ctx, tenantID)
}

// flakyCounter fails the next `failures` counter accesses; a negative value fails every call
type flakyCounter struct {
	repositories.IndexCounter
	mu       sync.Mutex
	failures int
}

func (c *flakyCounter) fail() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures == 0 {
		return false
	}
	if c.failures > 0 {
		c.failures--
	}
	return true
}

func (c *flakyCounter) CurrentIndexCounter(ctx context.Context, tenantID string) (int, error) {
	if c.fail() {
		return 0, errStoreDown
	}
	return c.IndexCounter.CurrentIndexCounter(ctx, tenantID)
}

// fakeImages records transfers and serves a fixed CDN URL
type fakeImages struct {
	mu      sync.Mutex
	sources []string
	names   []string
	err     error
}

func (f *fakeImages) TransferExternalImage(ctx context.Context, sourceURL, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources = append(f.sources, sourceURL)
	f.names = append(f.names, name)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.test/" + name, nil
}

type fixture struct {
	store    *memory.Store
	students *flakyStudents
	counter  *flakyCounter
	images   *fakeImages
	metrics  *metrics.Metrics
	tenantID string

	allocator  *IndexAllocator
	detector   *DuplicateDetector
	imports    *ImportService
	studentSvc *StudentService
	duplicates *DuplicateService
	tenantSvc  *TenantService
}

var fixedNow = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	tenant := &models.Tenant{Name: "Kamal Silva", AcademyName: "Bright Future Academy", Email: "admin@bright.lk"}
	require.NoError(t, store.CreateTenant(context.Background(), tenant))

	counter := &flakyCounter{IndexCounter: store}
	f := &fixture{
		store:    store,
		students: &flakyStudents{StudentStore: store, counter: counter, failCreate: map[string]error{}},
		counter:  counter,
		images:   &fakeImages{},
		metrics:  metrics.New(),
		tenantID: tenant.ID,
	}

	timeout := time.Second
	f.allocator = NewIndexAllocator(f.students, f.counter, f.metrics, timeout)
	f.detector = NewDuplicateDetector(f.students, timeout)
	f.imports = NewImportService(store, f.detector, f.allocator, f.images, f.metrics, timeout)
	f.imports.now = func() time.Time { return fixedNow }
	f.studentSvc = NewStudentService(store, f.students, f.allocator, timeout)
	f.duplicates = NewDuplicateService(store, f.students, timeout)
	f.tenantSvc = NewTenantService(store, timeout)
	f.tenantSvc.hashPassword = func(p string) (string, error) { return "hashed:" + p, nil }
	return f
}

// seed stores a student directly, bypassing allocation
func (f *fixture) seed(t *testing.T, indexNumber, name string) *models.Student {
	t.Helper()
	st := &models.Student{
		TenantID:    f.tenantID,
		IndexNumber: indexNumber,
		Name:        name,
		Class:       "Grade 10",
		Section:     "A",
		Subjects:    []string{"Mathematics"},
		DateOfBirth: time.Date(2010, 5, 15, 0, 0, 0, 0, time.UTC),
		Sex:         models.SexMale,
		ParentName:  "Sunil Perera",
		ParentPhone: "0771234567",
	}
	require.NoError(t, f.store.CreateStudent(context.Background(), st))
	return st
}

func (f *fixture) indexNumbers(t *testing.T) []string {
	t.Helper()
	students, err := f.studentSvc.ListStudents(context.Background(), f.tenantID)
	require.NoError(t, err)
	out := make([]string, 0, len(students))
	for _, st := range students {
		out = append(out, st.IndexNumber)
	}
	return out
}

// counterValue sums the samples of a counter family, optionally filtered by its first label value
func counterValue(t *testing.T, m *metrics.Metrics, name string, label ...string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, sample := range mf.GetMetric() {
			if len(label) > 0 && (len(sample.GetLabel()) == 0 || sample.GetLabel()[0].GetValue() != label[0]) {
				continue
			}
			total += sample.GetCounter().GetValue()
		}
	}
	return total
}

const importHeader = "Full Name,Class,Section,Date of Birth,Sex,Parent/Guardian Name,Parent Phone Number,Subjects,Student Photo"

func csvData(rows ...string) []byte {
	return []byte(importHeader + "\n" + strings.Join(rows, "\n") + "\n")
}

func validRow(name string) string {
	return name + `,Grade 10,A,05/15/2010,Male,Sunil Perera,0771234567,"Mathematics, Science",`
}
