package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"biometrico-data/internal/domain"
	"biometrico-data/internal/repository"
)

// BranchService 分支登记：以 branch_name 为自然键的 upsert
// 策略是 create-or-overwrite：撞名时覆盖全部可变字段（不是逐字段挑），
// 历史上两种策略都试过，这里统一用覆盖，不允许混用
type BranchService struct {
	branches  repository.BranchesRepository
	employees repository.EmployeesRepository
	logger    *zap.Logger
}

// NewBranchService 创建分支服务
func NewBranchService(branches repository.BranchesRepository, employees repository.EmployeesRepository, logger *zap.Logger) *BranchService {
	return &BranchService{branches: branches, employees: employees, logger: logger}
}

// BranchInput upsert 入参；Name 是身份，其余都是可变字段
type BranchInput struct {
	Name      string
	Address   *string
	Latitude  *float64
	Longitude *float64
	Radius    *float64 // 缺省 100 米
	Phone     *string
	City      *string
	Code      *string
}

func (in BranchInput) toDomain() domain.Branch {
	b := domain.Branch{
		BranchName: in.Name,
		Radius:     domain.DefaultGeofenceRadius,
	}
	if in.Radius != nil {
		b.Radius = *in.Radius
	}
	if in.Address != nil {
		b.Address = sql.NullString{String: *in.Address, Valid: true}
	}
	if in.Latitude != nil {
		b.Latitude = sql.NullFloat64{Float64: *in.Latitude, Valid: true}
	}
	if in.Longitude != nil {
		b.Longitude = sql.NullFloat64{Float64: *in.Longitude, Valid: true}
	}
	if in.Phone != nil {
		b.Phone = sql.NullString{String: *in.Phone, Valid: true}
	}
	if in.City != nil {
		b.City = sql.NullString{String: *in.City, Valid: true}
	}
	if in.Code != nil {
		b.Code = sql.NullString{String: *in.Code, Valid: true}
	}
	return b
}

// UpsertBranch 按名字 upsert；created=false 表示覆盖了已有分支
// 同名分支永远只有一行
func (s *BranchService) UpsertBranch(ctx context.Context, input BranchInput) (*domain.Branch, bool, error) {
	if input.Name == "" {
		return nil, false, fmt.Errorf("branch name is required: %w", domain.ErrValidation)
	}

	b := input.toDomain()

	existing, err := s.branches.GetBranchByName(ctx, input.Name)
	if err == nil {
		return s.overwrite(ctx, existing.BranchID, b)
	}
	if !errors.Is(err, domain.ErrBranchNotFound) {
		return nil, false, err
	}

	id, err := s.branches.CreateBranch(ctx, &b)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// 并发创建撞名：回查后按覆盖处理
			existing, ferr := s.branches.GetBranchByName(ctx, input.Name)
			if ferr != nil {
				return nil, false, fmt.Errorf("branch upsert race lost but row unreadable: %w", ferr)
			}
			return s.overwrite(ctx, existing.BranchID, b)
		}
		return nil, false, err
	}
	b.BranchID = id
	s.logger.Info("Branch created", zap.Int64("branch_id", id), zap.String("name", input.Name))
	return &b, true, nil
}

func (s *BranchService) overwrite(ctx context.Context, branchID int64, b domain.Branch) (*domain.Branch, bool, error) {
	b.BranchID = branchID
	if err := s.branches.UpdateBranch(ctx, &b); err != nil {
		return nil, false, err
	}
	s.logger.Info("Branch overwritten", zap.Int64("branch_id", branchID), zap.String("name", b.BranchName))
	return &b, false, nil
}

// ListBranches 全部分支
func (s *BranchService) ListBranches(ctx context.Context) ([]*domain.Branch, error) {
	return s.branches.ListBranches(ctx)
}

// DeleteBranch 删除分支
// 策略：reject-if-referenced —— 分支下还有员工时拒绝（ErrConflict），不级联
func (s *BranchService) DeleteBranch(ctx context.Context, branchID int64) error {
	count, err := s.employees.CountByBranch(ctx, branchID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("branch %d has %d employees: %w", branchID, count, domain.ErrConflict)
	}
	return s.branches.DeleteBranch(ctx, branchID)
}
