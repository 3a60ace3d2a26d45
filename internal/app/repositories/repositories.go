package repositories

import (
	"context"

	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentStore persists students. Every call is scoped to one tenant.
type StudentStore interface {
	// ListStudents returns every student of the tenant
	ListStudents(ctx context.Context, tenantID string) ([]models.Student, error)
	// QueryStudents returns the students matching every set field of filter
	QueryStudents(ctx context.Context, tenantID string, filter models.StudentFilter) ([]models.Student, error)
	CountStudents(ctx context.Context, tenantID string) (int, error)
	GetStudent(ctx context.Context, tenantID, id string) (*models.Student, error)
	// CreateStudent stores student and fills in its generated ID, QR code data and join time
	CreateStudent(ctx context.Context, student *models.Student) error
	// CreateStudentWithNextIndex sets the tenant's counter to max(counter, floor, 1000) + 1,
	// names student's index number with indexNumber(counter) and stores it. Both take
	// effect together or not at all. Counter failures wrap apperrors.ErrIndexAllocation.
	CreateStudentWithNextIndex(ctx context.Context, student *models.Student, floor int, indexNumber func(int) string) error
	DeleteStudent(ctx context.Context, tenantID, id string) error
}

// IndexCounter keeps the highest index suffix ever handed out per tenant
type IndexCounter interface {
	// CurrentIndexCounter returns the highest suffix handed out so far, at least 1000
	CurrentIndexCounter(ctx context.Context, tenantID string) (int, error)
}

// TenantStore persists tenant accounts
type TenantStore interface {
	// CreateTenant stores tenant and initializes its index counter
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]models.Tenant, error)
	UpdateTenant(ctx context.Context, tenant *models.Tenant) error
	// DeleteTenant removes the tenant together with its students and counter
	DeleteTenant(ctx context.Context, id string) error
}

// Repositories holds all the repository instances
type Repositories struct {
	Students StudentStore
	Counters IndexCounter
	Tenants  TenantStore
}

// NewRepositories initializes the PostgreSQL repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		Students: NewStudentRepository(db),
		Counters: NewIndexCounterRepository(db),
		Tenants:  NewTenantRepository(db),
	}
}

// IndexCounterFloor is the counter value of a tenant that has never allocated
const IndexCounterFloor = 1000
