package repository

import (
	"context"

	"biometrico-data/internal/domain"
)

// BranchesRepository 分支Repository接口
// 使用强类型领域模型，不使用map[string]any
type BranchesRepository interface {
	GetBranch(ctx context.Context, branchID int64) (*domain.Branch, error)
	// GetBranchByName 按自然键查询（upsert 和跨实例对账都走这里）
	GetBranchByName(ctx context.Context, name string) (*domain.Branch, error)
	ListBranches(ctx context.Context) ([]*domain.Branch, error)
	CreateBranch(ctx context.Context, branch *domain.Branch) (int64, error)
	// UpdateBranch 覆盖全部可变字段（create-or-overwrite 策略由 service 统一执行）
	UpdateBranch(ctx context.Context, branch *domain.Branch) error
	DeleteBranch(ctx context.Context, branchID int64) error
}
