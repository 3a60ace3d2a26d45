package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/edutrack/adminportal/internal/app/repositories"
	"github.com/edutrack/adminportal/internal/pkg/logger"
)

// DuplicateService finds and removes students that share an identity tuple
type DuplicateService struct {
	tenants      repositories.TenantStore
	students     repositories.StudentStore
	storeTimeout time.Duration
}

// NewDuplicateService creates a new duplicate service
func NewDuplicateService(tenants repositories.TenantStore, students repositories.StudentStore, storeTimeout time.Duration) *DuplicateService {
	return &DuplicateService{
		tenants:      tenants,
		students:     students,
		storeTimeout: storeTimeout,
	}
}

// DuplicateKey renders the identity tuple as name|class|section|YYYY-MM-DD
func DuplicateKey(key models.IdentityKey) string {
	return strings.Join([]string{
		key.Name,
		key.Class,
		key.Section,
		key.DateOfBirth.Format(time.DateOnly),
	}, "|")
}

// FindDuplicateGroups returns every identity shared by more than one student.
// Members are ordered oldest first; groups are ordered by key.
func (s *DuplicateService) FindDuplicateGroups(ctx context.Context, tenantID string) ([]models.DuplicateGroup, error) {
	if err := ensureTenant(ctx, s.tenants, tenantID, s.storeTimeout); err != nil {
		return nil, err
	}

	listCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	students, err := s.students.ListStudents(listCtx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}

	byKey := make(map[string][]models.Student)
	for _, st := range students {
		key := DuplicateKey(st.Identity())
		byKey[key] = append(byKey[key], st)
	}

	groups := []models.DuplicateGroup{}
	for key, members := range byKey {
		if len(members) < 2 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].JoinedAt.Equal(members[j].JoinedAt) {
				a, _ := ParseIndexNumber(members[i].IndexNumber)
				b, _ := ParseIndexNumber(members[j].IndexNumber)
				return a < b
			}
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		})
		groups = append(groups, models.DuplicateGroup{Key: key, Students: members})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })

	return groups, nil
}

// ExtraRecords counts the records a cleanup would remove
func ExtraRecords(groups []models.DuplicateGroup) int {
	extra := 0
	for _, g := range groups {
		extra += len(g.Students) - 1
	}
	return extra
}

// RemoveDuplicates deletes every member of each duplicate group except the
// oldest. Failed deletions are counted and logged; the run continues. With
// dryRun nothing is deleted and Removed reports what would have been.
func (s *DuplicateService) RemoveDuplicates(ctx context.Context, tenantID string, dryRun bool) (*models.DuplicateCleanup, error) {
	groups, err := s.FindDuplicateGroups(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	cleanup := &models.DuplicateCleanup{
		Groups: len(groups),
		Kept:   []string{},
		DryRun: dryRun,
	}

	for _, g := range groups {
		cleanup.Kept = append(cleanup.Kept, g.Students[0].IndexNumber)

		for _, extra := range g.Students[1:] {
			if dryRun {
				cleanup.Removed++
				continue
			}

			delCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
			err := s.students.DeleteStudent(delCtx, tenantID, extra.ID)
			cancel()
			if err != nil {
				cleanup.Failed++
				logger.Error().Err(err).Str("tenantID", tenantID).Str("indexNumber", extra.IndexNumber).Msg("Failed to remove duplicate student")
				continue
			}
			cleanup.Removed++
		}
	}

	logger.Info().
		Str("tenantID", tenantID).
		Bool("dryRun", dryRun).
		Int("groups", cleanup.Groups).
		Int("removed", cleanup.Removed).
		Int("failed", cleanup.Failed).
		Msg("Duplicate cleanup finished")
	return cleanup, nil
}
