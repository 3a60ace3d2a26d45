package services

import (
	"context"
	"time"

	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/edutrack/adminportal/internal/app/repositories"
)

// DuplicateDetector looks up stored students sharing a candidate's identity tuple
type DuplicateDetector struct {
	students     repositories.StudentStore
	storeTimeout time.Duration
}

// NewDuplicateDetector creates a new duplicate detector
func NewDuplicateDetector(students repositories.StudentStore, storeTimeout time.Duration) *DuplicateDetector {
	return &DuplicateDetector{
		students:     students,
		storeTimeout: storeTimeout,
	}
}

// FindDuplicate returns the first student whose name, class, section and date
// of birth equal the key exactly, or nil when there is none.
func (d *DuplicateDetector) FindDuplicate(ctx context.Context, tenantID string, key models.IdentityKey) (*models.Student, error) {
	ctx, cancel := withStoreTimeout(ctx, d.storeTimeout)
	defer cancel()

	matches, err := d.students.QueryStudents(ctx, tenantID, models.IdentityFilter(key))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}
