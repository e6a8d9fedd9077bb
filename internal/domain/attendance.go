package domain

import (
	"database/sql"
	"time"
)

// 考勤事件类型（check-in / check-out）
const (
	AttendanceTypeCheckIn  = "check-in"
	AttendanceTypeCheckOut = "check-out"
)

// TimestampLayout 存储/输出用的本地墙钟时间格式（无时区标记）
const TimestampLayout = "2006-01-02T15:04:05"

// Attendance 考勤记录领域模型（对应 attendances 表）
// 去重键 (employee_id, ts, type)，表上有唯一索引兜底并发重试
// 记录一旦写入不再修改，只有管理员批量清除可以删除
type Attendance struct {
	AttendanceID      int64           `db:"attendance_id"`
	EmployeeID        int64           `db:"employee_id"` // FK -> employees, NOT NULL
	BranchID          int64           `db:"branch_id"`   // FK -> branches, NOT NULL
	Timestamp         time.Time       `db:"ts"`          // 本地墙钟时间，TIMESTAMP 无时区
	Type              string          `db:"type"`        // check-in / check-out
	Status            sql.NullString  `db:"status"`      // on-time, late, ...
	ConfidenceScore   sql.NullFloat64 `db:"confidence_score"`   // nullable, 0.0–1.0
	BiometricVerified bool            `db:"biometric_verified"` // NOT NULL, default false
}

func (a Attendance) ToJSON() map[string]any {
	m := map[string]any{
		"id":                 a.AttendanceID,
		"employee_id":        a.EmployeeID,
		"branch_id":          a.BranchID,
		"timestamp":          a.Timestamp.Format(TimestampLayout),
		"type":               a.Type,
		"biometric_verified": a.BiometricVerified,
	}
	if a.Status.Valid {
		m["status"] = a.Status.String
	}
	if a.ConfidenceScore.Valid {
		m["confidence_score"] = a.ConfidenceScore.Float64
	}
	return m
}

// ValidAttendanceType 校验考勤类型枚举
func ValidAttendanceType(t string) bool {
	return t == AttendanceTypeCheckIn || t == AttendanceTypeCheckOut
}
