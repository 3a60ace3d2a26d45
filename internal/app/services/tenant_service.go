package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/edutrack/adminportal/internal/app/models/dto"
	"github.com/edutrack/adminportal/internal/app/repositories"
	"github.com/edutrack/adminportal/internal/pkg/apperrors"
	"github.com/edutrack/adminportal/internal/pkg/auth"
	"github.com/edutrack/adminportal/internal/pkg/logger"
	"github.com/edutrack/adminportal/internal/pkg/validation"
)

// TenantService manages tenant accounts
type TenantService struct {
	tenants      repositories.TenantStore
	storeTimeout time.Duration
	hashPassword func(string) (string, error)
}

// NewTenantService creates a new tenant service
func NewTenantService(tenants repositories.TenantStore, storeTimeout time.Duration) *TenantService {
	return &TenantService{
		tenants:      tenants,
		storeTimeout: storeTimeout,
		hashPassword: auth.HashPassword,
	}
}

// CreateTenant registers a new academy account with the default subject catalogue
func (s *TenantService) CreateTenant(ctx context.Context, req *dto.CreateTenantRequest) (*models.Tenant, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.AcademyName = strings.TrimSpace(req.AcademyName)

	if violations := validation.Struct(req); len(violations) > 0 {
		return nil, apperrors.NewValidationError(violations)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	tenant := &models.Tenant{
		Name:            req.Name,
		AcademyName:     req.AcademyName,
		Email:           req.Email,
		PasswordHash:    hash,
		ProfilePhotoURL: req.ProfilePhotoURL,
		Subjects:        append([]string(nil), models.DefaultTenantSubjects...),
	}

	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.tenants.CreateTenant(ctx, tenant); err != nil {
		if errors.Is(err, apperrors.ErrTenantEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating tenant: %w", err)
	}

	logger.Info().Str("tenantID", tenant.ID).Str("email", tenant.Email).Msg("Tenant registered")
	return tenant, nil
}

// ListTenants returns every tenant
func (s *TenantService) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	tenants, err := s.tenants.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing tenants: %w", err)
	}
	return tenants, nil
}

// GetTenant retrieves a tenant by ID
func (s *TenantService) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	tenant, err := s.tenants.GetTenant(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrTenantNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error retrieving tenant: %w", err)
	}
	return tenant, nil
}

// UpdateTenant changes only the fields present in req
func (s *TenantService) UpdateTenant(ctx context.Context, id string, req *dto.UpdateTenantRequest) (*models.Tenant, error) {
	if violations := validation.Struct(req); len(violations) > 0 {
		return nil, apperrors.NewValidationError(violations)
	}

	tenant, err := s.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	req.ToPatch().Apply(tenant)

	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.tenants.UpdateTenant(ctx, tenant); err != nil {
		if errors.Is(err, apperrors.ErrTenantNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating tenant: %w", err)
	}

	logger.Info().Str("tenantID", id).Msg("Tenant updated")
	return tenant, nil
}

// DeleteTenant removes the tenant with its students and index counter
func (s *TenantService) DeleteTenant(ctx context.Context, id string) error {
	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.tenants.DeleteTenant(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrTenantNotFound) {
			return err
		}
		return fmt.Errorf("error deleting tenant: %w", err)
	}
	return nil
}
