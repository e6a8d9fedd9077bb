package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"biometrico-data/internal/domain"
	"biometrico-data/internal/repository"
)

// EmployeeService 员工登记：以 employee_number 为自然键的 upsert
// 更新是部分合并：只动入参里给了的字段；branch_id 只要给了就重新指派
type EmployeeService struct {
	employees  repository.EmployeesRepository
	branches   repository.BranchesRepository
	attendance repository.AttendanceRepository
	logger     *zap.Logger
}

// NewEmployeeService 创建员工服务
func NewEmployeeService(
	employees repository.EmployeesRepository,
	branches repository.BranchesRepository,
	attendance repository.AttendanceRepository,
	logger *zap.Logger,
) *EmployeeService {
	return &EmployeeService{employees: employees, branches: branches, attendance: attendance, logger: logger}
}

// EmployeeInput upsert 入参；nil 字段表示"本次未提供，保留原值"
type EmployeeInput struct {
	EmployeeNumber string
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	Position       *string
	Department     *string
	WorkSchedule   json.RawMessage // 结构化排班，如 {"start":"09:00","end":"18:00"}
	IsActive       *bool
	FaceEmbedding  []float64 // 定长向量，由采集端计算
	BranchID       *int64
}

// UpsertEmployee 按工号 upsert；created=false 表示合并进了已有员工
func (s *EmployeeService) UpsertEmployee(ctx context.Context, input EmployeeInput) (*domain.Employee, bool, error) {
	if input.EmployeeNumber == "" {
		return nil, false, fmt.Errorf("employee_number is required: %w", domain.ErrValidation)
	}
	// JSON null 和缺席一样算"本次未提供"，与指针字段的语义对齐
	if string(input.WorkSchedule) == "null" {
		input.WorkSchedule = nil
	}
	if len(input.WorkSchedule) > 0 && !json.Valid(input.WorkSchedule) {
		return nil, false, fmt.Errorf("work_schedule is not valid JSON: %w", domain.ErrValidation)
	}

	// branch 给了就必须真实存在（新建和改派都一样）
	if input.BranchID != nil {
		if _, err := s.branches.GetBranch(ctx, *input.BranchID); err != nil {
			return nil, false, err
		}
	}

	existing, err := s.employees.GetEmployeeByNumber(ctx, input.EmployeeNumber)
	if err == nil {
		merged := mergeEmployee(*existing, input)
		if err := s.employees.UpdateEmployee(ctx, &merged); err != nil {
			return nil, false, err
		}
		s.logger.Info("Employee merged",
			zap.Int64("employee_id", merged.EmployeeID),
			zap.String("employee_number", input.EmployeeNumber),
		)
		return &merged, false, nil
	}
	if !errors.Is(err, domain.ErrEmployeeNotFound) {
		return nil, false, err
	}

	// 新建：姓名必填（只在创建时强制），分支必须指定
	if input.FirstName == nil || *input.FirstName == "" || input.LastName == nil || *input.LastName == "" {
		return nil, false, fmt.Errorf("first_name and last_name are required to create an employee: %w", domain.ErrValidation)
	}
	if input.BranchID == nil {
		return nil, false, fmt.Errorf("branch_id is required to create an employee: %w", domain.ErrBranchNotFound)
	}

	emp := mergeEmployee(domain.Employee{
		EmployeeNumber: input.EmployeeNumber,
		IsActive:       true,
	}, input)

	id, err := s.employees.CreateEmployee(ctx, &emp)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// 并发创建撞工号：回查后按合并处理
			existing, ferr := s.employees.GetEmployeeByNumber(ctx, input.EmployeeNumber)
			if ferr != nil {
				return nil, false, fmt.Errorf("employee upsert race lost but row unreadable: %w", ferr)
			}
			merged := mergeEmployee(*existing, input)
			if uerr := s.employees.UpdateEmployee(ctx, &merged); uerr != nil {
				return nil, false, uerr
			}
			return &merged, false, nil
		}
		return nil, false, err
	}
	emp.EmployeeID = id
	s.logger.Info("Employee created",
		zap.Int64("employee_id", id),
		zap.String("employee_number", input.EmployeeNumber),
	)
	return &emp, true, nil
}

// mergeEmployee 把入参里提供的字段合并到 base 上，未提供的一律保持原值
func mergeEmployee(base domain.Employee, input EmployeeInput) domain.Employee {
	if input.FirstName != nil {
		base.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		base.LastName = *input.LastName
	}
	if input.Email != nil {
		base.Email = sql.NullString{String: *input.Email, Valid: true}
	}
	if input.Phone != nil {
		base.Phone = sql.NullString{String: *input.Phone, Valid: true}
	}
	if input.Position != nil {
		base.Position = sql.NullString{String: *input.Position, Valid: true}
	}
	if input.Department != nil {
		base.Department = sql.NullString{String: *input.Department, Valid: true}
	}
	if len(input.WorkSchedule) > 0 {
		base.WorkSchedule = sql.NullString{String: string(input.WorkSchedule), Valid: true}
	}
	if input.IsActive != nil {
		base.IsActive = *input.IsActive
	}
	if input.FaceEmbedding != nil {
		base.FaceEmbedding = input.FaceEmbedding
	}
	if input.BranchID != nil {
		base.BranchID = sql.NullInt64{Int64: *input.BranchID, Valid: true}
	}
	return base
}

// GetEmployee 按 id 读取
func (s *EmployeeService) GetEmployee(ctx context.Context, employeeID int64) (*domain.Employee, error) {
	return s.employees.GetEmployee(ctx, employeeID)
}

// ListEmployees branchID 为 nil 时返回全部
func (s *EmployeeService) ListEmployees(ctx context.Context, branchID *int64) ([]*domain.Employee, error) {
	return s.employees.ListEmployees(ctx, branchID)
}

// DeleteEmployee 删除员工
// 策略：reject-if-referenced —— 还有考勤记录时拒绝（ErrConflict），
// 台账是审计数据，不跟着员工级联删除
func (s *EmployeeService) DeleteEmployee(ctx context.Context, employeeID int64) error {
	count, err := s.attendance.CountByEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("employee %d has %d attendance records: %w", employeeID, count, domain.ErrConflict)
	}
	return s.employees.DeleteEmployee(ctx, employeeID)
}
