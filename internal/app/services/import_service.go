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
	"github.com/edutrack/adminportal/internal/pkg/imagetransfer"
	"github.com/edutrack/adminportal/internal/pkg/logger"
	"github.com/edutrack/adminportal/internal/pkg/metrics"
	"github.com/edutrack/adminportal/internal/pkg/tabular"
)

// studentPhotoFolder is where transferred student photos are stored
const studentPhotoFolder = "profiles/students"

// ImageTransferer copies an externally hosted image into permanent storage
type ImageTransferer interface {
	TransferExternalImage(ctx context.Context, sourceURL, name string) (string, error)
}

// ImportService runs bulk student imports
type ImportService struct {
	tenants      repositories.TenantStore
	detector     *DuplicateDetector
	allocator    *IndexAllocator
	images       ImageTransferer
	metrics      *metrics.Metrics
	storeTimeout time.Duration
	now          func() time.Time
}

// NewImportService creates a new import service
func NewImportService(
	tenants repositories.TenantStore,
	detector *DuplicateDetector,
	allocator *IndexAllocator,
	images ImageTransferer,
	m *metrics.Metrics,
	storeTimeout time.Duration,
) *ImportService {
	return &ImportService{
		tenants:      tenants,
		detector:     detector,
		allocator:    allocator,
		images:       images,
		metrics:      m,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// ImportFile parses a CSV or XLSX payload and imports its rows. A payload
// that cannot be read as a table fails the whole call with a structural error.
func (s *ImportService) ImportFile(ctx context.Context, tenantID, filename string, data []byte) (*models.ImportOutcome, error) {
	if err := ensureTenant(ctx, s.tenants, tenantID, s.storeTimeout); err != nil {
		return nil, err
	}

	table, err := tabular.Parse(filename, data)
	if err != nil {
		var parseErr *tabular.ParseError
		if errors.As(err, &parseErr) {
			logger.Warn().Str("tenantID", tenantID).Strs("diagnostics", parseErr.Diagnostics).Msg("Import payload could not be parsed")
			return nil, apperrors.NewStructuralInputError(parseErr.Diagnostics)
		}
		return nil, fmt.Errorf("error parsing import payload: %w", err)
	}

	return s.importTable(ctx, tenantID, table), nil
}

// ImportStudents imports the rows of an already parsed table
func (s *ImportService) ImportStudents(ctx context.Context, tenantID string, table *tabular.Table) (*models.ImportOutcome, error) {
	if err := ensureTenant(ctx, s.tenants, tenantID, s.storeTimeout); err != nil {
		return nil, err
	}
	return s.importTable(ctx, tenantID, table), nil
}

// importTable processes rows strictly one after another: each row's index
// allocation must observe the rows persisted before it. Once started, every
// row is attempted even if the caller goes away; per-call store timeouts
// still apply.
func (s *ImportService) importTable(ctx context.Context, tenantID string, table *tabular.Table) *models.ImportOutcome {
	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	outcome := models.NewImportOutcome()

	for i, row := range table.Rows {
		s.importRow(ctx, tenantID, i, row, outcome)
	}

	s.metrics.ObserveImport(time.Since(started))
	logger.Info().
		Str("tenantID", tenantID).
		Int("success", outcome.Success).
		Int("failed", outcome.Failed).
		Int("duplicates", len(outcome.SkippedDuplicates)).
		Dur("duration", time.Since(started)).
		Msg("Import completed")
	return outcome
}

func (s *ImportService) importRow(ctx context.Context, tenantID string, i int, row map[string]string, outcome *models.ImportOutcome) {
	rowNumber := i + 2
	log := logger.Get().With().Str("tenantID", tenantID).Int("row", rowNumber).Logger()

	fail := func(message string) {
		outcome.Failed++
		outcome.Errors = append(outcome.Errors, models.ImportRowError{
			Row:   rowNumber,
			Error: message,
			Data:  row,
		})
		s.metrics.ImportRow(metrics.RowFailed)
		log.Warn().Str("error", message).Msg("Import row failed")
	}

	candidate, dobWarning := candidateFromRow(row, s.now())

	if violations := candidate.Validate(); len(violations) > 0 {
		fail(strings.Join(violations, ", "))
		return
	}

	original, err := s.detector.FindDuplicate(ctx, tenantID, candidate.Identity())
	if err != nil {
		fail("Duplicate check failed: " + err.Error())
		return
	}

	var warnings []models.ImportWarning
	if dobWarning != nil {
		dobWarning.Row = rowNumber
		warnings = append(warnings, *dobWarning)
		log.Warn().Str("field", dobWarning.Field).Msg(dobWarning.Message)
	}

	photoURL, photoWarning := s.resolvePhoto(ctx, i, candidate.PhotoURL)
	candidate.PhotoURL = photoURL
	if photoWarning != nil {
		photoWarning.Row = rowNumber
		warnings = append(warnings, *photoWarning)
	}

	student, err := persistWithNewIndex(ctx, s.allocator, func() *models.Student {
		return candidate.toStudent(tenantID)
	})
	if err != nil {
		var pe *persistError
		if errors.As(err, &pe) {
			fail("Failed to save student: " + pe.err.Error())
		} else {
			fail("Index allocation failed: " + err.Error())
		}
		return
	}

	outcome.Success++
	outcome.SuccessfulStudents = append(outcome.SuccessfulStudents, *student)
	outcome.Warnings = append(outcome.Warnings, warnings...)
	s.metrics.ImportRow(metrics.RowSuccess)

	if original != nil {
		reason := fmt.Sprintf("Duplicate detected (original: %s), assigned new index: %s", original.IndexNumber, student.IndexNumber)
		outcome.SkippedDuplicates = append(outcome.SkippedDuplicates, models.DuplicateResolution{
			Row:    rowNumber,
			Name:   student.Name,
			Reason: reason,
		})
		s.metrics.ImportDuplicate()
		log.Info().Str("original", original.IndexNumber).Str("indexNumber", student.IndexNumber).Msg("Duplicate student imported under new index")
	}
}

// resolvePhoto keeps direct photo URLs and copies Drive share links into
// image storage. A failed transfer leaves the photo empty.
func (s *ImportService) resolvePhoto(ctx context.Context, i int, value string) (string, *models.ImportWarning) {
	if value == "" || !imagetransfer.IsDriveLink(value) {
		return value, nil
	}

	name := fmt.Sprintf("%s/student_%d_%d.jpg", studentPhotoFolder, s.now().UnixMilli(), i)
	url, err := s.images.TransferExternalImage(ctx, value, name)
	if err != nil {
		s.metrics.PhotoTransfer(metrics.PhotoFailed)
		logger.Warn().Err(err).Str("source", value).Msg("Photo transfer failed, continuing without photo")
		return "", &models.ImportWarning{
			Field:   FieldPhotoURL,
			Message: "photo transfer failed: " + err.Error(),
		}
	}

	s.metrics.PhotoTransfer(metrics.PhotoTransferred)
	return url, nil
}

// ImportSummary renders the human-readable result line of an import
func ImportSummary(outcome *models.ImportOutcome) string {
	message := fmt.Sprintf("Import completed: %d succeeded, %d failed", outcome.Success, outcome.Failed)
	if n := len(outcome.SkippedDuplicates); n > 0 {
		message += fmt.Sprintf(", %d duplicates assigned new index numbers", n)
	}
	return message
}
