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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const studentIndexNumberConstraint = "students_tenant_index_number_key"

var studentColumns = []string{
	"tenant_id", "id", "index_number", "name", "class", "section", "subjects",
	"date_of_birth", "sex", "parent_name", "parent_phone", "whatsapp_number",
	"address", "photo_url", "payment_type", "qr_code_data", "joined_at",
	"is_active", "is_fee_exempt",
}

// StudentRepository handles student database operations
type StudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanStudent(row pgx.Row) (models.Student, error) {
	var (
		s   models.Student
		sex string
	)
	err := row.Scan(
		&s.TenantID, &s.ID, &s.IndexNumber, &s.Name, &s.Class, &s.Section, &s.Subjects,
		&s.DateOfBirth, &sex, &s.ParentName, &s.ParentPhone, &s.WhatsappNumber,
		&s.Address, &s.PhotoURL, &s.PaymentType, &s.QRCodeData, &s.JoinedAt,
		&s.IsActive, &s.IsFeeExempt,
	)
	s.Sex = models.Sex(sex)
	return s, err
}

func (r *StudentRepository) selectStudents(ctx context.Context, query squirrel.SelectBuilder) ([]models.Student, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build student query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying students: %w", err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}

	return students, nil
}

// ListStudents returns every student of the tenant in join order
func (r *StudentRepository) ListStudents(ctx context.Context, tenantID string) ([]models.Student, error) {
	return r.selectStudents(ctx, r.sb.Select(studentColumns...).
		From("students").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("joined_at ASC", "id ASC"))
}

// QueryStudents returns the tenant's students matching filter
func (r *StudentRepository) QueryStudents(ctx context.Context, tenantID string, filter models.StudentFilter) ([]models.Student, error) {
	where := squirrel.And{squirrel.Eq{"tenant_id": tenantID}}
	if filter.Name != nil {
		where = append(where, squirrel.Eq{"name": *filter.Name})
	}
	if filter.Class != nil {
		where = append(where, squirrel.Eq{"class": *filter.Class})
	}
	if filter.Section != nil {
		where = append(where, squirrel.Eq{"section": *filter.Section})
	}
	if filter.DateOfBirth != nil {
		where = append(where, squirrel.Eq{"date_of_birth": models.DateOnly(*filter.DateOfBirth)})
	}

	query := r.sb.Select(studentColumns...).
		From("students").
		Where(where).
		OrderBy("joined_at ASC", "id ASC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	return r.selectStudents(ctx, query)
}

// CountStudents counts the tenant's students
func (r *StudentRepository) CountStudents(ctx context.Context, tenantID string) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("students").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count students query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting students: %w", err)
	}
	return count, nil
}

// GetStudent retrieves one student of the tenant
func (r *StudentRepository) GetStudent(ctx context.Context, tenantID, id string) (*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).
		From("students").
		Where(squirrel.Eq{"tenant_id": tenantID, "id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	s, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return &s, nil
}

// execer is satisfied by both the pool and a transaction
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// CreateStudent inserts a student, generating its identifier
func (r *StudentRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	return r.insertStudent(ctx, r.db, student)
}

// CreateStudentWithNextIndex advances the tenant's index counter and inserts
// the student under the new number in one transaction. A failed insert rolls
// the counter back, so the number is handed out again to the next student.
func (r *StudentRepository) CreateStudentWithNextIndex(ctx context.Context, student *models.Student, floor int, indexNumber func(int) string) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		next, err := advanceIndexCounter(ctx, tx, r.sb, student.TenantID, floor)
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrIndexAllocation, err)
		}
		student.IndexNumber = indexNumber(next)
		return r.insertStudent(ctx, tx, student)
	})
}

func (r *StudentRepository) insertStudent(ctx context.Context, q execer, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.QRCodeData = student.ID
	if student.JoinedAt.IsZero() {
		student.JoinedAt = time.Now().UTC()
	}

	sql, args, err := r.sb.Insert("students").
		Columns(studentColumns...).
		Values(
			student.TenantID, student.ID, student.IndexNumber, student.Name, student.Class,
			student.Section, student.Subjects, models.DateOnly(student.DateOfBirth), string(student.Sex),
			student.ParentName, student.ParentPhone, student.WhatsappNumber, student.Address,
			student.PhotoURL, student.PaymentType, student.QRCodeData, student.JoinedAt,
			student.IsActive, student.IsFeeExempt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, studentIndexNumberConstraint) {
			logger.Warn().Str("tenantID", student.TenantID).Str("indexNumber", student.IndexNumber).Msg("Index number already in use")
			return apperrors.ErrIndexNumberExists
		}
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrTenantNotFound
		}
		return fmt.Errorf("error creating student: %w", err)
	}

	logger.Debug().Str("tenantID", student.TenantID).Str("studentID", student.ID).Str("indexNumber", student.IndexNumber).Msg("Student created")
	return nil
}

// DeleteStudent removes one student of the tenant
func (r *StudentRepository) DeleteStudent(ctx context.Context, tenantID, id string) error {
	sql, args, err := r.sb.Delete("students").
		Where(squirrel.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete student query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}
