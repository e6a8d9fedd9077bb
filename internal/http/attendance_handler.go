package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"biometrico-data/internal/repository"
	"biometrico-data/internal/service"
)

// AttendanceHandler 考勤入口
type AttendanceHandler struct {
	svc    *service.AttendanceService
	logger *zap.Logger
}

func NewAttendanceHandler(svc *service.AttendanceService, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{svc: svc, logger: logger}
}

type createAttendanceRequest struct {
	EmployeeID        int64    `json:"employee_id"`
	BranchID          int64    `json:"branch_id"`
	Timestamp         string   `json:"timestamp"`
	Type              string   `json:"type"`
	Status            string   `json:"status"`
	ConfidenceScore   *float64 `json:"confidence_score"`
	BiometricVerified bool     `json:"biometric_verified"`
}

// Create POST /api/v1/attendance
// 老 kiosk 固件把 employee_id/branch_id 放 query 参数，body 只有事件本体，两种都接受
func (h *AttendanceHandler) Create(w http.ResponseWriter, req *http.Request) {
	var body createAttendanceRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if v := req.URL.Query().Get("employee_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			body.EmployeeID = id
		}
	}
	if v := req.URL.Query().Get("branch_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			body.BranchID = id
		}
	}

	record, created, err := h.svc.Record(req.Context(), service.RecordAttendanceInput{
		EmployeeID:        body.EmployeeID,
		BranchID:          body.BranchID,
		Timestamp:         body.Timestamp,
		Type:              body.Type,
		Status:            body.Status,
		ConfidenceScore:   body.ConfidenceScore,
		BiometricVerified: body.BiometricVerified,
	})
	if err != nil {
		h.logger.Warn("Attendance create failed", zap.Error(err))
		writeError(w, errorStatus(err), fmt.Sprintf("Error creating attendance record: %v", err))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, record.ToJSON())
}

// parseAttendanceFilter query 参数 → 过滤器（给了的条件做合取）
func parseAttendanceFilter(req *http.Request) (repository.AttendanceFilter, error) {
	var filter repository.AttendanceFilter
	q := req.URL.Query()
	if v := q.Get("branch_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid branch_id %q", v)
		}
		filter.BranchID = &id
	}
	if v := q.Get("employee_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid employee_id %q", v)
		}
		filter.EmployeeID = &id
	}
	if v := q.Get("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", v)
		}
		filter.Date = &d
	}
	return filter, nil
}

// List GET /api/v1/attendance?branch_id=&employee_id=&date=
func (h *AttendanceHandler) List(w http.ResponseWriter, req *http.Request) {
	filter, err := parseAttendanceFilter(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.svc.Query(req.Context(), filter)
	if err != nil {
		h.logger.Error("Attendance query failed", zap.Error(err))
		writeError(w, errorStatus(err), err.Error())
		return
	}

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ToJSON())
	}
	writeJSON(w, http.StatusOK, out)
}

// Export GET /api/v1/attendance/export —— 同样的过滤条件，导出 xlsx
func (h *AttendanceHandler) Export(w http.ResponseWriter, req *http.Request) {
	filter, err := parseAttendanceFilter(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.svc.Query(req.Context(), filter)
	if err != nil {
		h.logger.Error("Attendance export query failed", zap.Error(err))
		writeError(w, errorStatus(err), err.Error())
		return
	}

	data, err := GenerateAttendanceExport(records)
	if err != nil {
		h.logger.Error("Attendance export generation failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, "failed to generate export")
		return
	}

	filename := fmt.Sprintf("attendance_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Clear DELETE /api/v1/attendance?secret=
// 密钥也接受 X-Admin-Secret 头；校验失败 403，不碰数据
func (h *AttendanceHandler) Clear(w http.ResponseWriter, req *http.Request) {
	secret := req.URL.Query().Get("secret")
	if secret == "" {
		secret = req.Header.Get("X-Admin-Secret")
	}

	deleted, err := h.svc.ClearAll(req.Context(), secret)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
