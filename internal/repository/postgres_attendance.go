package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"biometrico-data/internal/domain"
)

// PostgresAttendanceRepository 考勤Repository实现
type PostgresAttendanceRepository struct {
	db *sql.DB
}

// NewPostgresAttendanceRepository 创建考勤Repository
func NewPostgresAttendanceRepository(db *sql.DB) *PostgresAttendanceRepository {
	return &PostgresAttendanceRepository{db: db}
}

var _ AttendanceRepository = (*PostgresAttendanceRepository)(nil)

const attendanceColumns = `
	attendance_id,
	employee_id,
	branch_id,
	ts,
	type,
	status,
	confidence_score,
	COALESCE(biometric_verified, FALSE) as biometric_verified
`

func scanAttendance(row interface{ Scan(...any) error }) (*domain.Attendance, error) {
	var a domain.Attendance
	err := row.Scan(
		&a.AttendanceID,
		&a.EmployeeID,
		&a.BranchID,
		&a.Timestamp,
		&a.Type,
		&a.Status,
		&a.ConfidenceScore,
		&a.BiometricVerified,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByDedupKey 按去重键 (employee_id, ts, type) 查找已有记录
func (r *PostgresAttendanceRepository) FindByDedupKey(ctx context.Context, employeeID int64, ts time.Time, typ string) (*domain.Attendance, error) {
	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1 AND ts = $2 AND type = $3`

	a, err := scanAttendance(r.db.QueryRowContext(ctx, query, employeeID, ts, typ))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("attendance (%d, %s, %s): %w",
				employeeID, ts.Format(domain.TimestampLayout), typ, domain.ErrAttendanceNotFound)
		}
		return nil, fmt.Errorf("failed to find attendance by dedup key: %w", err)
	}
	return a, nil
}

// CreateAttendance 插入考勤记录
// 唯一索引 (employee_id, ts, type) 冲突 → ErrConflict（并发重试兜底，调用方回查）
func (r *PostgresAttendanceRepository) CreateAttendance(ctx context.Context, att *domain.Attendance) (int64, error) {
	query := `
		INSERT INTO attendances (employee_id, branch_id, ts, type, status, confidence_score, biometric_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING attendance_id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		att.EmployeeID,
		att.BranchID,
		att.Timestamp,
		att.Type,
		att.Status,
		att.ConfidenceScore,
		att.BiometricVerified,
	).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return 0, fmt.Errorf("duplicate attendance for employee %d: %w", att.EmployeeID, domain.ErrConflict)
			case "23503":
				// FK 违反：员工或分支在查重和插入之间被删掉了
				if strings.Contains(pqErr.Constraint, "branch") {
					return 0, fmt.Errorf("branch %d: %w", att.BranchID, domain.ErrBranchNotFound)
				}
				return 0, fmt.Errorf("employee %d: %w", att.EmployeeID, domain.ErrEmployeeNotFound)
			}
		}
		return 0, fmt.Errorf("failed to create attendance: %w", err)
	}
	return id, nil
}

// ListAttendance 条件合取过滤，ts DESC（最新的在前）
func (r *PostgresAttendanceRepository) ListAttendance(ctx context.Context, filter AttendanceFilter) ([]*domain.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances`

	// 构建WHERE条件
	where := []string{}
	args := []any{}
	if filter.BranchID != nil {
		args = append(args, *filter.BranchID)
		where = append(where, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if filter.Date != nil {
		// ts 是本地墙钟值，日期过滤就是取当天 [00:00, 24:00)
		args = append(args, filter.Date.Format("2006-01-02"))
		where = append(where, fmt.Sprintf("ts::date = $%d::date", len(args)))
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ts DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []*domain.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}
	return records, nil
}

// CountByEmployee 统计某员工考勤数量（员工删除前的引用检查）
func (r *PostgresAttendanceRepository) CountByEmployee(ctx context.Context, employeeID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendances WHERE employee_id = $1`, employeeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attendance by employee: %w", err)
	}
	return count, nil
}

// DeleteAll 批量清除全部考勤记录，返回删除行数（仅供管理员操作调用）
func (r *PostgresAttendanceRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attendances`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear attendance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}
