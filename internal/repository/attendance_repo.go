package repository

import (
	"context"
	"time"

	"biometrico-data/internal/domain"
)

// AttendanceFilter 考勤查询过滤器（提供的条件做合取）
type AttendanceFilter struct {
	BranchID   *int64
	EmployeeID *int64
	// Date 过滤本地日历日（ts 已经是本地墙钟值）
	Date *time.Time
}

// AttendanceRepository 考勤Repository接口
// 记录只增不改；删除只有 DeleteAll（管理员批量清除）
type AttendanceRepository interface {
	// FindByDedupKey 按 (employee_id, ts, type) 查重；未命中返回 ErrAttendanceNotFound
	FindByDedupKey(ctx context.Context, employeeID int64, ts time.Time, typ string) (*domain.Attendance, error)
	// CreateAttendance 唯一索引冲突时返回包装了 domain.ErrConflict 的错误，
	// 调用方应把它当作 "already exists" 回查处理，不是致命错误
	CreateAttendance(ctx context.Context, att *domain.Attendance) (int64, error)
	// ListAttendance 按 ts DESC 排序
	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]*domain.Attendance, error)
	// CountByEmployee 员工删除前的引用检查
	CountByEmployee(ctx context.Context, employeeID int64) (int, error)
	// DeleteAll 返回删除行数
	DeleteAll(ctx context.Context) (int64, error)
}
