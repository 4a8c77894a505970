package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/traincore/tnms-api/internal/models"
)

// EmployeeRepository reads the HR employee feed and performs the
// just-in-time upsert for QR self-registration.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs the repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// FindByID returns an employee by identifier.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	const query = `SELECT id, name, email, department, manager_name, manager_email, created_at, updated_at FROM employees WHERE id = $1 LIMIT 1`
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find employee by id: %w", err)
	}
	return &employee, nil
}

// Upsert inserts or refreshes an employee profile. Employee IDs come from
// the badge, so conflicts are resolved in favour of the submitted profile.
func (r *EmployeeRepository) Upsert(ctx context.Context, employee *models.Employee) error {
	now := time.Now().UTC()
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = now
	}
	employee.UpdatedAt = now
	const query = `INSERT INTO employees (id, name, email, department, manager_name, manager_email, created_at, updated_at)
        VALUES (:id, :name, :email, :department, :manager_name, :manager_email, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            email = EXCLUDED.email,
            department = EXCLUDED.department,
            manager_name = EXCLUDED.manager_name,
            manager_email = EXCLUDED.manager_email,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return fmt.Errorf("upsert employee: %w", err)
	}
	return nil
}
