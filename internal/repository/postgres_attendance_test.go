package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biometrico-data/internal/domain"
)

func setupAttendanceMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresAttendanceRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresAttendanceRepository(db)
}

var attendanceRowColumns = []string{
	"attendance_id", "employee_id", "branch_id", "ts", "type",
	"status", "confidence_score", "biometric_verified",
}

func TestFindByDedupKey_Hit(t *testing.T) {
	db, mock, repo := setupAttendanceMock(t)
	defer db.Close()

	ts := time.Date(2025, 12, 9, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(attendanceRowColumns).
		AddRow(7, 1, 2, ts, domain.AttendanceTypeCheckIn, "on-time", 0.97, true)

	mock.ExpectQuery(`SELECT (.+) FROM attendances\s+WHERE employee_id = \$1 AND ts = \$2 AND type = \$3`).
		WithArgs(int64(1), ts, domain.AttendanceTypeCheckIn).
		WillReturnRows(rows)

	a, err := repo.FindByDedupKey(context.Background(), 1, ts, domain.AttendanceTypeCheckIn)
	require.NoError(t, err)
	assert.Equal(t, int64(7), a.AttendanceID)
	assert.Equal(t, "on-time", a.Status.String)
	assert.True(t, a.BiometricVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByDedupKey_Miss(t *testing.T) {
	db, mock, repo := setupAttendanceMock(t)
	defer db.Close()

	ts := time.Date(2025, 12, 9, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT (.+) FROM attendances`).
		WithArgs(int64(1), ts, domain.AttendanceTypeCheckOut).
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns))

	_, err := repo.FindByDedupKey(context.Background(), 1, ts, domain.AttendanceTypeCheckOut)
	assert.ErrorIs(t, err, domain.ErrAttendanceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAttendance_UniqueViolationBecomesConflict(t *testing.T) {
	db, mock, repo := setupAttendanceMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO attendances`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_attendances_dedup"})

	_, err := repo.CreateAttendance(context.Background(), &domain.Attendance{
		EmployeeID: 1,
		BranchID:   2,
		Timestamp:  time.Date(2025, 12, 9, 9, 0, 0, 0, time.UTC),
		Type:       domain.AttendanceTypeCheckIn,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAttendance_FKViolationNamesMissingSide(t *testing.T) {
	db, mock, repo := setupAttendanceMock(t)
	defer db.Close()

	att := &domain.Attendance{
		EmployeeID: 1,
		BranchID:   2,
		Timestamp:  time.Date(2025, 12, 9, 9, 0, 0, 0, time.UTC),
		Type:       domain.AttendanceTypeCheckIn,
	}

	mock.ExpectQuery(`INSERT INTO attendances`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "attendances_branch_id_fkey"})
	_, err := repo.CreateAttendance(context.Background(), att)
	assert.ErrorIs(t, err, domain.ErrBranchNotFound)

	mock.ExpectQuery(`INSERT INTO attendances`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "attendances_employee_id_fkey"})
	_, err = repo.CreateAttendance(context.Background(), att)
	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAttendance_BuildsConjunctiveFilter(t *testing.T) {
	db, mock, repo := setupAttendanceMock(t)
	defer db.Close()

	branchID := int64(2)
	date := time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)
	ts := time.Date(2025, 12, 9, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(attendanceRowColumns).
		AddRow(7, 1, 2, ts, domain.AttendanceTypeCheckIn, nil, nil, false)

	mock.ExpectQuery(`SELECT (.+) FROM attendances WHERE branch_id = \$1 AND ts::date = \$2::date ORDER BY ts DESC`).
		WithArgs(branchID, "2025-12-09").
		WillReturnRows(rows)

	records, err := repo.ListAttendance(context.Background(), AttendanceFilter{
		BranchID: &branchID,
		Date:     &date,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(7), records[0].AttendanceID)
	assert.False(t, records[0].Status.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAll_ReturnsAffectedCount(t *testing.T) {
	db, mock, repo := setupAttendanceMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM attendances`).
		WillReturnResult(sqlmock.NewResult(0, 12))

	n, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
