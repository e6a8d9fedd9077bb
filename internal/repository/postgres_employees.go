package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"biometrico-data/internal/domain"
)

// PostgresEmployeesRepository 员工Repository实现（强类型版本）
type PostgresEmployeesRepository struct {
	db *sql.DB
}

// NewPostgresEmployeesRepository 创建员工Repository
func NewPostgresEmployeesRepository(db *sql.DB) *PostgresEmployeesRepository {
	return &PostgresEmployeesRepository{db: db}
}

var _ EmployeesRepository = (*PostgresEmployeesRepository)(nil)

const employeeColumns = `
	employee_id,
	employee_number,
	first_name,
	last_name,
	email,
	phone,
	position,
	department,
	work_schedule::text,
	COALESCE(is_active, TRUE) as is_active,
	face_embedding,
	branch_id,
	created_at,
	updated_at
`

func scanEmployee(row interface{ Scan(...any) error }) (*domain.Employee, error) {
	var e domain.Employee
	err := row.Scan(
		&e.EmployeeID,
		&e.EmployeeNumber,
		&e.FirstName,
		&e.LastName,
		&e.Email,
		&e.Phone,
		&e.Position,
		&e.Department,
		&e.WorkSchedule,
		&e.IsActive,
		&e.FaceEmbedding,
		&e.BranchID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEmployee 根据employee_id获取员工
func (r *PostgresEmployeesRepository) GetEmployee(ctx context.Context, employeeID int64) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_id = $1`

	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, employeeID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("employee %d: %w", employeeID, domain.ErrEmployeeNotFound)
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// GetEmployeeByNumber 根据自然键employee_number获取员工
func (r *PostgresEmployeesRepository) GetEmployeeByNumber(ctx context.Context, employeeNumber string) (*domain.Employee, error) {
	if employeeNumber == "" {
		return nil, fmt.Errorf("employee_number is required: %w", domain.ErrValidation)
	}
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_number = $1`

	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, employeeNumber))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("employee %q: %w", employeeNumber, domain.ErrEmployeeNotFound)
		}
		return nil, fmt.Errorf("failed to get employee by number: %w", err)
	}
	return e, nil
}

// ListEmployees 查询员工列表；branchID 非 nil 时只取该分支
func (r *PostgresEmployeesRepository) ListEmployees(ctx context.Context, branchID *int64) ([]*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	args := []any{}
	if branchID != nil {
		query += ` WHERE branch_id = $1`
		args = append(args, *branchID)
	}
	query += ` ORDER BY employee_number`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []*domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}

// CreateEmployee 创建员工，返回生成的employee_id
// created_at / updated_at 由 DB 侧 now() 赋值
func (r *PostgresEmployeesRepository) CreateEmployee(ctx context.Context, emp *domain.Employee) (int64, error) {
	query := `
		INSERT INTO employees (
			employee_number, first_name, last_name, email, phone,
			position, department, work_schedule, is_active, face_embedding,
			branch_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, now(), now())
		RETURNING employee_id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		emp.EmployeeNumber,
		emp.FirstName,
		emp.LastName,
		emp.Email,
		emp.Phone,
		emp.Position,
		emp.Department,
		emp.WorkSchedule,
		emp.IsActive,
		emp.FaceEmbedding,
		emp.BranchID,
	).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return 0, fmt.Errorf("employee_number %q already exists: %w", emp.EmployeeNumber, domain.ErrConflict)
			case "23503":
				return 0, fmt.Errorf("branch for employee %q: %w", emp.EmployeeNumber, domain.ErrBranchNotFound)
			}
		}
		return 0, fmt.Errorf("failed to create employee: %w", err)
	}
	return id, nil
}

// UpdateEmployee 写回合并后的员工（合并哪些字段由 service 决定），刷新 updated_at
func (r *PostgresEmployeesRepository) UpdateEmployee(ctx context.Context, emp *domain.Employee) error {
	query := `
		UPDATE employees
		SET first_name = $2,
		    last_name = $3,
		    email = $4,
		    phone = $5,
		    position = $6,
		    department = $7,
		    work_schedule = $8::jsonb,
		    is_active = $9,
		    face_embedding = $10,
		    branch_id = $11,
		    updated_at = now()
		WHERE employee_id = $1`

	result, err := r.db.ExecContext(ctx, query,
		emp.EmployeeID,
		emp.FirstName,
		emp.LastName,
		emp.Email,
		emp.Phone,
		emp.Position,
		emp.Department,
		emp.WorkSchedule,
		emp.IsActive,
		emp.FaceEmbedding,
		emp.BranchID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return fmt.Errorf("branch for employee %d: %w", emp.EmployeeID, domain.ErrBranchNotFound)
		}
		return fmt.Errorf("failed to update employee: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("employee %d: %w", emp.EmployeeID, domain.ErrEmployeeNotFound)
	}
	return nil
}

// DeleteEmployee 删除员工；FK 违反（还有考勤记录）映射为 ErrConflict
func (r *PostgresEmployeesRepository) DeleteEmployee(ctx context.Context, employeeID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE employee_id = $1`, employeeID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return fmt.Errorf("employee %d still has attendance records: %w", employeeID, domain.ErrConflict)
		}
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("employee %d: %w", employeeID, domain.ErrEmployeeNotFound)
	}
	return nil
}

// CountByBranch 统计某分支下员工数量（分支删除前的引用检查）
func (r *PostgresEmployeesRepository) CountByBranch(ctx context.Context, branchID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM employees WHERE branch_id = $1`, branchID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count employees by branch: %w", err)
	}
	return count, nil
}
