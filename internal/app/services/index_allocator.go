package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/edutrack/adminportal/internal/app/repositories"
	"github.com/edutrack/adminportal/internal/pkg/apperrors"
	"github.com/edutrack/adminportal/internal/pkg/logger"
	"github.com/edutrack/adminportal/internal/pkg/metrics"
)

// IndexPrefix starts every index number
const IndexPrefix = "MEC"

// FirstIndexSuffix is the suffix of a tenant's first student
const FirstIndexSuffix = repositories.IndexCounterFloor + 1

var indexNumberPattern = regexp.MustCompile(`^` + IndexPrefix + `(\d+)$`)

// FormatIndexNumber renders suffix n as an index number
func FormatIndexNumber(n int) string {
	return IndexPrefix + strconv.Itoa(n)
}

// ParseIndexNumber returns the numeric suffix of an index number.
// Anything but MEC followed by digits is rejected.
func ParseIndexNumber(indexNumber string) (int, bool) {
	m := indexNumberPattern.FindStringSubmatch(indexNumber)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IndexAllocator produces the next unique index number for a tenant
type IndexAllocator struct {
	students     repositories.StudentStore
	counters     repositories.IndexCounter
	metrics      *metrics.Metrics
	storeTimeout time.Duration
}

// NewIndexAllocator creates a new index allocator
func NewIndexAllocator(students repositories.StudentStore, counters repositories.IndexCounter, m *metrics.Metrics, storeTimeout time.Duration) *IndexAllocator {
	return &IndexAllocator{
		students:     students,
		counters:     counters,
		metrics:      m,
		storeTimeout: storeTimeout,
	}
}

// MaxIndexSuffix scans the tenant's students for the highest conforming suffix, with a floor of 1000
func (a *IndexAllocator) MaxIndexSuffix(ctx context.Context, tenantID string) (int, error) {
	ctx, cancel := withStoreTimeout(ctx, a.storeTimeout)
	defer cancel()

	students, err := a.students.ListStudents(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	highest := repositories.IndexCounterFloor
	for _, s := range students {
		if n, ok := ParseIndexNumber(s.IndexNumber); ok && n > highest {
			highest = n
		}
	}
	return highest, nil
}

// NextIndexNumber reports the suffix the tenant's next student would get. It
// reserves nothing; CreateWithNextIndex is the allocating path. When the
// counter cannot be read the estimate falls back to 1001 + number of students.
func (a *IndexAllocator) NextIndexNumber(ctx context.Context, tenantID string) (int, error) {
	next, err := a.peek(ctx, tenantID)
	if err == nil {
		return next, nil
	}
	return a.fallback(ctx, tenantID, err)
}

func (a *IndexAllocator) peek(ctx context.Context, tenantID string) (int, error) {
	highest, err := a.MaxIndexSuffix(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("scanning index numbers: %w", err)
	}

	ctx, cancel := withStoreTimeout(ctx, a.storeTimeout)
	defer cancel()

	counter, err := a.counters.CurrentIndexCounter(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("reading index counter: %w", err)
	}
	return max(counter, highest) + 1, nil
}

// fallback logs cause and returns 1001 + number of students
func (a *IndexAllocator) fallback(ctx context.Context, tenantID string, cause error) (int, error) {
	logger.Warn().Err(cause).Str("tenantID", tenantID).Msg("Index allocation failed, using count-based fallback")
	a.metrics.AllocationFallback()

	ctx, cancel := withStoreTimeout(ctx, a.storeTimeout)
	defer cancel()

	count, err := a.students.CountStudents(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("index allocation failed: %w (fallback count: %v)", cause, err)
	}
	return FirstIndexSuffix + count, nil
}

// CreateWithNextIndex stores student under the tenant's next index number.
// The counter advances past the highest stored suffix in the same write as
// the insert, so a failed insert consumes no number and numbers freed by
// deletion are never handed out again. When the counter is unavailable the
// student is stored under the count-based fallback instead.
//
// Failures of the final write are returned as *persistError.
func (a *IndexAllocator) CreateWithNextIndex(ctx context.Context, student *models.Student) error {
	tenantID := student.TenantID

	highest, err := a.MaxIndexSuffix(ctx, tenantID)
	if err == nil {
		storeCtx, cancel := withStoreTimeout(ctx, a.storeTimeout)
		err = a.students.CreateStudentWithNextIndex(storeCtx, student, highest, FormatIndexNumber)
		cancel()
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrIndexAllocation) {
			return &persistError{err: err}
		}
	} else {
		err = fmt.Errorf("scanning index numbers: %w", err)
	}

	suffix, err := a.fallback(ctx, tenantID, err)
	if err != nil {
		return err
	}
	student.IndexNumber = FormatIndexNumber(suffix)

	storeCtx, cancel := withStoreTimeout(ctx, a.storeTimeout)
	defer cancel()
	if err := a.students.CreateStudent(storeCtx, student); err != nil {
		return &persistError{err: err}
	}
	return nil
}
