package domain

import "errors"

// 错误分类：repository / service 层用 %w 包装这些哨兵，
// HTTP 层用 errors.Is 映射状态码（404 / 400 / 409 / 403）
var (
	ErrBranchNotFound     = errors.New("branch not found")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrAttendanceNotFound = errors.New("attendance not found")

	// ErrValidation 创建时缺少必填字段或字段值越界
	ErrValidation = errors.New("validation failed")

	// ErrConflict 删除被引用的实体（branch 下还有员工 / 员工还有考勤记录）
	ErrConflict = errors.New("conflict")

	// ErrForbidden 管理操作密钥不匹配
	ErrForbidden = errors.New("forbidden")
)
