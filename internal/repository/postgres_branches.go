package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"biometrico-data/internal/domain"
)

// PostgresBranchesRepository 分支Repository实现（强类型版本）
type PostgresBranchesRepository struct {
	db *sql.DB
}

// NewPostgresBranchesRepository 创建分支Repository
func NewPostgresBranchesRepository(db *sql.DB) *PostgresBranchesRepository {
	return &PostgresBranchesRepository{db: db}
}

// 确保实现了接口
var _ BranchesRepository = (*PostgresBranchesRepository)(nil)

const branchColumns = `
	branch_id,
	branch_name,
	address,
	latitude,
	longitude,
	COALESCE(radius, 100) as radius,
	phone,
	city,
	code
`

func scanBranch(row interface{ Scan(...any) error }) (*domain.Branch, error) {
	var b domain.Branch
	err := row.Scan(
		&b.BranchID,
		&b.BranchName,
		&b.Address,
		&b.Latitude,
		&b.Longitude,
		&b.Radius,
		&b.Phone,
		&b.City,
		&b.Code,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBranch 根据branch_id获取分支
func (r *PostgresBranchesRepository) GetBranch(ctx context.Context, branchID int64) (*domain.Branch, error) {
	query := `SELECT ` + branchColumns + ` FROM branches WHERE branch_id = $1`

	b, err := scanBranch(r.db.QueryRowContext(ctx, query, branchID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("branch %d: %w", branchID, domain.ErrBranchNotFound)
		}
		return nil, fmt.Errorf("failed to get branch: %w", err)
	}
	return b, nil
}

// GetBranchByName 根据自然键branch_name获取分支
func (r *PostgresBranchesRepository) GetBranchByName(ctx context.Context, name string) (*domain.Branch, error) {
	if name == "" {
		return nil, fmt.Errorf("branch name is required: %w", domain.ErrValidation)
	}
	query := `SELECT ` + branchColumns + ` FROM branches WHERE branch_name = $1`

	b, err := scanBranch(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("branch %q: %w", name, domain.ErrBranchNotFound)
		}
		return nil, fmt.Errorf("failed to get branch by name: %w", err)
	}
	return b, nil
}

// ListBranches 查询全部分支（按名称排序，对账时用来构建 name -> local id 映射）
func (r *PostgresBranchesRepository) ListBranches(ctx context.Context) ([]*domain.Branch, error) {
	query := `SELECT ` + branchColumns + ` FROM branches ORDER BY branch_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer rows.Close()

	var branches []*domain.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate branches: %w", err)
	}
	return branches, nil
}

// CreateBranch 创建分支，返回生成的branch_id
func (r *PostgresBranchesRepository) CreateBranch(ctx context.Context, branch *domain.Branch) (int64, error) {
	query := `
		INSERT INTO branches (branch_name, address, latitude, longitude, radius, phone, city, code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING branch_id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		branch.BranchName,
		branch.Address,
		branch.Latitude,
		branch.Longitude,
		branch.Radius,
		branch.Phone,
		branch.City,
		branch.Code,
	).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// 自然键撞名：service 层按 create-or-overwrite 回查处理
			return 0, fmt.Errorf("branch %q already exists: %w", branch.BranchName, domain.ErrConflict)
		}
		return 0, fmt.Errorf("failed to create branch: %w", err)
	}
	return id, nil
}

// UpdateBranch 覆盖全部可变字段（branch_name 不变，它是身份）
func (r *PostgresBranchesRepository) UpdateBranch(ctx context.Context, branch *domain.Branch) error {
	query := `
		UPDATE branches
		SET address = $2,
		    latitude = $3,
		    longitude = $4,
		    radius = $5,
		    phone = $6,
		    city = $7,
		    code = $8
		WHERE branch_id = $1`

	result, err := r.db.ExecContext(ctx, query,
		branch.BranchID,
		branch.Address,
		branch.Latitude,
		branch.Longitude,
		branch.Radius,
		branch.Phone,
		branch.City,
		branch.Code,
	)
	if err != nil {
		return fmt.Errorf("failed to update branch: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("branch %d: %w", branch.BranchID, domain.ErrBranchNotFound)
	}
	return nil
}

// DeleteBranch 删除分支；FK 违反（还有员工引用）映射为 ErrConflict
func (r *PostgresBranchesRepository) DeleteBranch(ctx context.Context, branchID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM branches WHERE branch_id = $1`, branchID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return fmt.Errorf("branch %d still has employees: %w", branchID, domain.ErrConflict)
		}
		return fmt.Errorf("failed to delete branch: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("branch %d: %w", branchID, domain.ErrBranchNotFound)
	}
	return nil
}
