package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/edutrack/adminportal/internal/app/repositories"
	"github.com/edutrack/adminportal/internal/pkg/apperrors"
	"github.com/edutrack/adminportal/internal/pkg/logger"
)

// Services defined in this package:
// - IndexAllocator: hands out MEC index numbers per tenant
// - DuplicateDetector: exact identity lookups against stored students
// - ImportService: bulk CSV/XLSX student import
// - StudentService: manual creation, listing, deletion and export of students
// - TenantService: tenant account management
// - DuplicateService: reporting and removal of duplicate students

// DefaultStoreTimeout bounds a single storage call when no timeout is configured
const DefaultStoreTimeout = 10 * time.Second

// withStoreTimeout bounds ctx by d, or by DefaultStoreTimeout when d is not positive
func withStoreTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, d)
}

// ensureTenant returns apperrors.ErrTenantNotFound unless the tenant exists
func ensureTenant(ctx context.Context, tenants repositories.TenantStore, tenantID string, timeout time.Duration) error {
	if strings.TrimSpace(tenantID) == "" {
		return apperrors.ErrTenantNotFound
	}

	ctx, cancel := withStoreTimeout(ctx, timeout)
	defer cancel()

	if _, err := tenants.GetTenant(ctx, tenantID); err != nil {
		if errors.Is(err, apperrors.ErrTenantNotFound) {
			return err
		}
		return fmt.Errorf("error checking tenant: %w", err)
	}
	return nil
}

// persistWithNewIndex stores a freshly built student under a new index
// number. A clash on the index number, possible only when allocation fell back
// to the count estimate, is retried once with a fresh allocation.
func persistWithNewIndex(ctx context.Context, allocator *IndexAllocator, build func() *models.Student) (*models.Student, error) {
	const attempts = 2

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		student := build()
		err := allocator.CreateWithNextIndex(ctx, student)
		if err == nil {
			return student, nil
		}
		if !errors.Is(err, apperrors.ErrIndexNumberExists) {
			return nil, err
		}

		logger.Warn().Str("tenantID", student.TenantID).Str("indexNumber", student.IndexNumber).Msg("Index number already taken, allocating again")
		lastErr = err
	}
	return nil, lastErr
}

// persistError marks a failure of the final store write, as opposed to allocation
type persistError struct {
	err error
}

func (e *persistError) Error() string { return e.err.Error() }

func (e *persistError) Unwrap() error { return e.err }
