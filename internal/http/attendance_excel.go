package httpapi

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"biometrico-data/internal/domain"
)

// AttendanceExportHeader 考勤导出表头
var AttendanceExportHeader = []string{
	"ID",
	"Employee ID",
	"Branch ID",
	"Timestamp",
	"Type",
	"Status",
	"Confidence Score",
	"Biometric Verified",
}

// GenerateAttendanceExport 生成考勤导出 Excel 文件
// records 为空时只生成表头
func GenerateAttendanceExport(records []*domain.Attendance) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Attendance"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	for col, header := range AttendanceExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, rec := range records {
		row := i + 2
		values := []any{
			rec.AttendanceID,
			rec.EmployeeID,
			rec.BranchID,
			rec.Timestamp.Format(domain.TimestampLayout),
			rec.Type,
			"",
			"",
			rec.BiometricVerified,
		}
		if rec.Status.Valid {
			values[5] = rec.Status.String
		}
		if rec.ConfidenceScore.Valid {
			values[6] = rec.ConfidenceScore.Float64
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	_ = f.Close()
	return buf.Bytes(), nil
}
