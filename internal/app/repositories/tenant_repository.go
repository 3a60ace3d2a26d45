package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/edutrack/adminportal/internal/db"
	"github.com/edutrack/adminportal/internal/pkg/apperrors"
	"github.com/edutrack/adminportal/internal/pkg/dberrors"
	"github.com/edutrack/adminportal/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tenantEmailConstraint = "tenants_email_key"

var tenantColumns = []string{
	"id", "name", "academy_name", "email", "password_hash", "profile_photo_url",
	"sms_gateway_token", "whatsapp_gateway_token", "subjects", "created_at", "updated_at",
}

// TenantRepository handles tenant database operations
type TenantRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTenantRepository creates a new TenantRepository
func NewTenantRepository(db *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanTenant(row pgx.Row) (models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(
		&t.ID, &t.Name, &t.AcademyName, &t.Email, &t.PasswordHash, &t.ProfilePhotoURL,
		&t.SMSGatewayToken, &t.WhatsappGatewayToken, &t.Subjects, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// CreateTenant inserts the tenant and its counter row in one transaction
func (r *TenantRepository) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tenant.CreatedAt, tenant.UpdatedAt = now, now

	insertTenant, tenantArgs, err := r.sb.Insert("tenants").
		Columns(tenantColumns...).
		Values(
			tenant.ID, tenant.Name, tenant.AcademyName, tenant.Email, tenant.PasswordHash,
			tenant.ProfilePhotoURL, tenant.SMSGatewayToken, tenant.WhatsappGatewayToken,
			tenant.Subjects, tenant.CreatedAt, tenant.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create tenant query: %w", err)
	}

	insertCounter, counterArgs, err := r.sb.Insert("index_counters").
		Columns("tenant_id", "last_value").
		Values(tenant.ID, IndexCounterFloor).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create counter query: %w", err)
	}

	err = db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertTenant, tenantArgs...); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insertCounter, counterArgs...)
		return err
	})
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, tenantEmailConstraint) {
			return apperrors.ErrTenantEmailExists
		}
		return fmt.Errorf("error creating tenant: %w", err)
	}

	logger.Info().Str("tenantID", tenant.ID).Str("email", tenant.Email).Msg("Tenant created")
	return nil
}

// GetTenant retrieves a tenant by ID
func (r *TenantRepository) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	sql, args, err := r.sb.Select(tenantColumns...).
		From("tenants").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get tenant query: %w", err)
	}

	t, err := scanTenant(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTenantNotFound
		}
		return nil, fmt.Errorf("error retrieving tenant: %w", err)
	}
	return &t, nil
}

// ListTenants returns every tenant, oldest first
func (r *TenantRepository) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	sql, args, err := r.sb.Select(tenantColumns...).
		From("tenants").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list tenants query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing tenants: %w", err)
	}
	defer rows.Close()

	tenants := []models.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning tenant row: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// UpdateTenant writes every mutable tenant column
func (r *TenantRepository) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	tenant.UpdatedAt = time.Now().UTC()

	sql, args, err := r.sb.Update("tenants").
		Set("name", tenant.Name).
		Set("academy_name", tenant.AcademyName).
		Set("profile_photo_url", tenant.ProfilePhotoURL).
		Set("sms_gateway_token", tenant.SMSGatewayToken).
		Set("whatsapp_gateway_token", tenant.WhatsappGatewayToken).
		Set("subjects", tenant.Subjects).
		Set("updated_at", tenant.UpdatedAt).
		Where(squirrel.Eq{"id": tenant.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update tenant query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTenantNotFound
	}
	return nil
}

// DeleteTenant removes the tenant. Students and the counter row go with it via ON DELETE CASCADE.
func (r *TenantRepository) DeleteTenant(ctx context.Context, id string) error {
	sql, args, err := r.sb.Delete("tenants").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete tenant query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTenantNotFound
	}

	logger.Info().Str("tenantID", id).Msg("Tenant deleted")
	return nil
}
