package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IndexCounterRepository reads per-tenant index counters in PostgreSQL
type IndexCounterRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewIndexCounterRepository creates a new IndexCounterRepository
func NewIndexCounterRepository(db *pgxpool.Pool) *IndexCounterRepository {
	return &IndexCounterRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CurrentIndexCounter returns the tenant's counter, or the floor when it has never allocated
func (r *IndexCounterRepository) CurrentIndexCounter(ctx context.Context, tenantID string) (int, error) {
	sql, args, err := r.sb.Select("last_value").
		From("index_counters").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build read counter query: %w", err)
	}

	var value int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return IndexCounterFloor, nil
		}
		return 0, fmt.Errorf("error reading index counter: %w", err)
	}
	return max(int(value), IndexCounterFloor), nil
}

// advanceIndexCounter upserts the tenant's counter row inside tx. The row lock
// taken by the upsert serializes concurrent allocations for the same tenant
// until tx ends.
func advanceIndexCounter(ctx context.Context, tx pgx.Tx, sb squirrel.StatementBuilderType, tenantID string, floor int) (int, error) {
	sql, args, err := sb.Insert("index_counters").
		Columns("tenant_id", "last_value").
		Values(tenantID, squirrel.Expr("GREATEST(?::bigint, ?::bigint) + 1", floor, IndexCounterFloor)).
		Suffix("ON CONFLICT (tenant_id) DO UPDATE SET last_value = GREATEST(index_counters.last_value, EXCLUDED.last_value - 1) + 1").
		Suffix("RETURNING last_value").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build advance counter query: %w", err)
	}

	var value int64
	if err := tx.QueryRow(ctx, sql, args...).Scan(&value); err != nil {
		return 0, fmt.Errorf("error advancing index counter: %w", err)
	}
	return int(value), nil
}
