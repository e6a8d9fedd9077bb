package repository

import (
	"context"

	"biometrico-data/internal/domain"
)

// EmployeesRepository 员工Repository接口
type EmployeesRepository interface {
	GetEmployee(ctx context.Context, employeeID int64) (*domain.Employee, error)
	// GetEmployeeByNumber 按自然键 employee_number 查询
	GetEmployeeByNumber(ctx context.Context, employeeNumber string) (*domain.Employee, error)
	// ListEmployees branchID 为 nil 时返回全部
	ListEmployees(ctx context.Context, branchID *int64) ([]*domain.Employee, error)
	CreateEmployee(ctx context.Context, emp *domain.Employee) (int64, error)
	UpdateEmployee(ctx context.Context, emp *domain.Employee) error
	DeleteEmployee(ctx context.Context, employeeID int64) error
	// CountByBranch 分支删除前的引用检查
	CountByBranch(ctx context.Context, branchID int64) (int, error)
}
