package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"biometrico-data/internal/domain"
	"biometrico-data/internal/repository"
)

// 测试统一用 UTC-6（对应生产部署的墨西哥分店时区，无夏令时偏差干扰）
var testLoc = time.FixedZone("UTC-6", -6*3600)

func setupAttendanceService(t *testing.T) (*AttendanceService, *fakeAttendanceRepo, *fakeEmployeesRepo, *fakeBranchesRepo) {
	t.Helper()
	branches := newFakeBranchesRepo()
	employees := newFakeEmployeesRepo()
	attendance := newFakeAttendanceRepo()

	// 预置一个分支和一个员工
	_, err := branches.CreateBranch(context.Background(), &domain.Branch{
		BranchName: "Main", Radius: 100,
	})
	require.NoError(t, err)
	_, err = employees.CreateEmployee(context.Background(), &domain.Employee{
		EmployeeNumber: "EMP-001",
		FirstName:      "Ana",
		LastName:       "García",
		IsActive:       true,
		BranchID:       sql.NullInt64{Int64: 1, Valid: true},
	})
	require.NoError(t, err)

	svc := NewAttendanceService(attendance, employees, branches, testLoc, "topsecret", zap.NewNop())
	return svc, attendance, employees, branches
}

func TestNormalizeTimestamp_SameInstantConverges(t *testing.T) {
	// 同一物理时刻的三种写法：UTC 带 Z、显式 -06:00、naive（按 UTC 解释）
	inputs := []string{
		"2025-12-09T09:00:00Z",
		"2025-12-09T03:00:00-06:00",
		"2025-12-09T09:00:00",
	}
	for _, in := range inputs {
		parsed, _, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		got := NormalizeTimestamp(parsed, testLoc)
		assert.Equal(t, "2025-12-09T03:00:00", got.Format(domain.TimestampLayout), "input %s", in)
	}
}

func TestNormalizeTimestamp_IsPure(t *testing.T) {
	parsed, hasOffset, err := ParseTimestamp("2025-06-01T12:30:45+02:00")
	require.NoError(t, err)
	assert.True(t, hasOffset)

	first := NormalizeTimestamp(parsed, testLoc)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, NormalizeTimestamp(parsed, testLoc))
	}
	// +02:00 的 12:30:45 是 UTC 10:30:45，UTC-6 下是 04:30:45
	assert.Equal(t, "2025-06-01T04:30:45", first.Format(domain.TimestampLayout))
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, _, err := ParseTimestamp("yesterday at nine")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecord_Idempotent(t *testing.T) {
	svc, _, _, _ := setupAttendanceService(t)
	ctx := context.Background()

	first, created, err := svc.Record(ctx, RecordAttendanceInput{
		EmployeeID: 1, BranchID: 1,
		Timestamp: "2025-12-09T09:00:00Z",
		Type:      domain.AttendanceTypeCheckIn,
		Status:    "on-time",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2025-12-09T03:00:00", first.Timestamp.Format(domain.TimestampLayout))

	// 同一时刻换一种等价写法重发：必须返回第一次的记录，不新增行
	second, created, err := svc.Record(ctx, RecordAttendanceInput{
		EmployeeID: 1, BranchID: 1,
		Timestamp: "2025-12-09T03:00:00-06:00",
		Type:      domain.AttendanceTypeCheckIn,
		Status:    "late", // 重发时字段不同也不覆盖，原记录不可变
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.AttendanceID, second.AttendanceID)
	assert.Equal(t, "on-time", second.Status.String)

	records, err := svc.Query(ctx, repository.AttendanceFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecord_DedupRaceReturnsExisting(t *testing.T) {
	svc, attendance, _, _ := setupAttendanceService(t)
	ctx := context.Background()

	// 模拟并发重试：查重没命中，但插入时另一个请求已经抢先写入
	attendance.createHook = func(att *domain.Attendance) error {
		competing := *att
		_, err := attendance.CreateAttendance(ctx, &competing)
		require.NoError(t, err)
		return domain.ErrConflict
	}

	rec, created, err := svc.Record(ctx, RecordAttendanceInput{
		EmployeeID: 1, BranchID: 1,
		Timestamp: "2025-12-09T09:00:00Z",
		Type:      domain.AttendanceTypeCheckIn,
	})
	require.NoError(t, err)
	assert.False(t, created)
	require.NotNil(t, rec)

	records, err := svc.Query(ctx, repository.AttendanceFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, records[0].AttendanceID, rec.AttendanceID)
}

func TestRecord_UnknownReferences(t *testing.T) {
	svc, _, _, _ := setupAttendanceService(t)
	ctx := context.Background()

	_, _, err := svc.Record(ctx, RecordAttendanceInput{
		EmployeeID: 99, BranchID: 1,
		Timestamp: "2025-12-09T09:00:00Z", Type: domain.AttendanceTypeCheckIn,
	})
	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)

	_, _, err = svc.Record(ctx, RecordAttendanceInput{
		EmployeeID: 1, BranchID: 99,
		Timestamp: "2025-12-09T09:00:00Z", Type: domain.AttendanceTypeCheckIn,
	})
	assert.ErrorIs(t, err, domain.ErrBranchNotFound)
}

func TestRecord_Validation(t *testing.T) {
	svc, _, _, _ := setupAttendanceService(t)
	ctx := context.Background()

	_, _, err := svc.Record(ctx, RecordAttendanceInput{
		EmployeeID: 1, BranchID: 1,
		Timestamp: "2025-12-09T09:00:00Z", Type: "lunch-break",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	tooHigh := 1.5
	_, _, err = svc.Record(ctx, RecordAttendanceInput{
		EmployeeID: 1, BranchID: 1,
		Timestamp: "2025-12-09T09:00:00Z", Type: domain.AttendanceTypeCheckIn,
		ConfidenceScore: &tooHigh,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestQuery_FiltersAndOrder(t *testing.T) {
	svc, _, _, _ := setupAttendanceService(t)
	ctx := context.Background()

	for _, ts := range []string{
		"2025-12-09T09:00:00Z",
		"2025-12-09T18:00:00Z",
		"2025-12-10T09:00:00Z",
	} {
		typ := domain.AttendanceTypeCheckIn
		if ts == "2025-12-09T18:00:00Z" {
			typ = domain.AttendanceTypeCheckOut
		}
		_, _, err := svc.Record(ctx, RecordAttendanceInput{
			EmployeeID: 1, BranchID: 1, Timestamp: ts, Type: typ,
		})
		require.NoError(t, err)
	}

	all, err := svc.Query(ctx, repository.AttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// 最新的在前
	assert.True(t, all[0].Timestamp.After(all[1].Timestamp))
	assert.True(t, all[1].Timestamp.After(all[2].Timestamp))

	// 日期过滤按本地日历日：UTC 12-10T09:00 在 UTC-6 是 12-10T03:00
	day := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	byDate, err := svc.Query(ctx, repository.AttendanceFilter{Date: &day})
	require.NoError(t, err)
	assert.Len(t, byDate, 1)
}

func TestClearAll_FailsClosed(t *testing.T) {
	svc, attendance, employees, branches := setupAttendanceService(t)
	ctx := context.Background()

	_, _, err := svc.Record(ctx, RecordAttendanceInput{
		EmployeeID: 1, BranchID: 1,
		Timestamp: "2025-12-09T09:00:00Z", Type: domain.AttendanceTypeCheckIn,
	})
	require.NoError(t, err)

	_, err = svc.ClearAll(ctx, "wrong")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// 密钥未配置时一律拒绝，空对空也不行
	unconfigured := NewAttendanceService(attendance, employees, branches, testLoc, "", zap.NewNop())
	_, err = unconfigured.ClearAll(ctx, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	deleted, err := svc.ClearAll(ctx, "topsecret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
