package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"biometrico-data/internal/domain"
	"biometrico-data/internal/repository"
)

// AttendanceService 考勤台账：带时间戳归一化的幂等写入 + 条件查询 + 批量清除
// kiosk 网络不稳定会重发同一事件，Record 对重复提交必须返回首次写入的记录
type AttendanceService struct {
	attendance repository.AttendanceRepository
	employees  repository.EmployeesRepository
	branches   repository.BranchesRepository
	loc        *time.Location
	// adminSecret 批量清除的预共享密钥；为空时一律拒绝（fail closed）
	adminSecret string
	logger      *zap.Logger
}

// NewAttendanceService 创建考勤服务
func NewAttendanceService(
	attendance repository.AttendanceRepository,
	employees repository.EmployeesRepository,
	branches repository.BranchesRepository,
	loc *time.Location,
	adminSecret string,
	logger *zap.Logger,
) *AttendanceService {
	return &AttendanceService{
		attendance:  attendance,
		employees:   employees,
		branches:    branches,
		loc:         loc,
		adminSecret: adminSecret,
		logger:      logger,
	}
}

// RecordAttendanceInput 单次打卡事件
// Timestamp 保留入口原始字符串，偏移量识别和归一化统一在 Record 里做，
// 保证同一物理事件不管重发多少次都归一化出同一个存储值
type RecordAttendanceInput struct {
	EmployeeID        int64
	BranchID          int64
	Timestamp         string // ISO-8601，带偏移或 naive
	Type              string // check-in / check-out
	Status            string
	ConfidenceScore   *float64
	BiometricVerified bool
}

// 入口时间戳接受的格式；带偏移的在前
var timestampLayouts = []struct {
	layout    string
	hasOffset bool
}{
	{time.RFC3339Nano, true},
	{time.RFC3339, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
}

// ParseTimestamp 解析 ISO-8601 时间戳，返回解析值和是否带显式偏移
// naive 值按 UTC 解释（kiosk 端历史上提交 utcnow）
func ParseTimestamp(s string) (time.Time, bool, error) {
	for _, l := range timestampLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return t, l.hasOffset, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unparseable timestamp %q: %w", s, domain.ErrValidation)
}

// NormalizeTimestamp 把一个时刻归一化成系统本地时区的墙钟值（无时区标记）
// 纯函数：同一时刻 + 同一时区 永远得到同一个存储值
//   - 带偏移：换算到 loc 后丢掉偏移
//   - naive：视为 UTC 时刻，换算到 loc 后丢掉偏移
//
// 返回值的 Location 固定为 UTC，只承载墙钟字段，和 TIMESTAMP 列的往返一致
func NormalizeTimestamp(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(
		local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(),
		time.UTC,
	)
}

// Record 幂等写入一条考勤
// created=false 表示命中去重键，返回的是已有记录（重试安全契约，不是错误）
func (s *AttendanceService) Record(ctx context.Context, input RecordAttendanceInput) (*domain.Attendance, bool, error) {
	if !domain.ValidAttendanceType(input.Type) {
		return nil, false, fmt.Errorf("attendance type %q: %w", input.Type, domain.ErrValidation)
	}
	if input.ConfidenceScore != nil && (*input.ConfidenceScore < 0 || *input.ConfidenceScore > 1) {
		return nil, false, fmt.Errorf("confidence_score %v out of range [0,1]: %w", *input.ConfidenceScore, domain.ErrValidation)
	}

	parsed, _, err := ParseTimestamp(input.Timestamp)
	if err != nil {
		return nil, false, err
	}
	ts := NormalizeTimestamp(parsed, s.loc)

	// 前置条件：员工和分支必须存在
	if _, err := s.employees.GetEmployee(ctx, input.EmployeeID); err != nil {
		return nil, false, err
	}
	if _, err := s.branches.GetBranch(ctx, input.BranchID); err != nil {
		return nil, false, err
	}

	// 查重：重发的同一物理事件直接返回首次写入的行
	existing, err := s.attendance.FindByDedupKey(ctx, input.EmployeeID, ts, input.Type)
	if err == nil {
		s.logger.Info("Duplicate attendance submission, returning existing record",
			zap.Int64("employee_id", input.EmployeeID),
			zap.String("ts", ts.Format(domain.TimestampLayout)),
			zap.String("type", input.Type),
			zap.Int64("attendance_id", existing.AttendanceID),
		)
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrAttendanceNotFound) {
		return nil, false, err
	}

	att := &domain.Attendance{
		EmployeeID:        input.EmployeeID,
		BranchID:          input.BranchID,
		Timestamp:         ts,
		Type:              input.Type,
		BiometricVerified: input.BiometricVerified,
	}
	if input.Status != "" {
		att.Status = sql.NullString{String: input.Status, Valid: true}
	}
	if input.ConfidenceScore != nil {
		att.ConfidenceScore = sql.NullFloat64{Float64: *input.ConfidenceScore, Valid: true}
	}

	id, err := s.attendance.CreateAttendance(ctx, att)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// 查重和插入之间被并发的重试抢先了：唯一索引兜底，回查已有行
			existing, ferr := s.attendance.FindByDedupKey(ctx, input.EmployeeID, ts, input.Type)
			if ferr != nil {
				return nil, false, fmt.Errorf("dedup race lost but existing row unreadable: %w", ferr)
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	att.AttendanceID = id
	return att, true, nil
}

// Query 条件合取过滤，最新的在前。无副作用
func (s *AttendanceService) Query(ctx context.Context, filter repository.AttendanceFilter) ([]*domain.Attendance, error) {
	return s.attendance.ListAttendance(ctx, filter)
}

// ClearAll 批量清除全部考勤（特权操作）
// 密钥校验在任何数据访问之前；返回删除行数
func (s *AttendanceService) ClearAll(ctx context.Context, secret string) (int64, error) {
	if s.adminSecret == "" || secret != s.adminSecret {
		return 0, fmt.Errorf("bad admin secret: %w", domain.ErrForbidden)
	}
	deleted, err := s.attendance.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("Cleared all attendance records", zap.Int64("deleted", deleted))
	return deleted, nil
}
