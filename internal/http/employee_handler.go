package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"biometrico-data/internal/service"
)

// EmployeeHandler 员工登记入口
type EmployeeHandler struct {
	svc    *service.EmployeeService
	logger *zap.Logger
}

func NewEmployeeHandler(svc *service.EmployeeService, logger *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{svc: svc, logger: logger}
}

type upsertEmployeeRequest struct {
	EmployeeNumber string          `json:"employee_number"`
	FirstName      *string         `json:"first_name"`
	LastName       *string         `json:"last_name"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	Position       *string         `json:"position"`
	Department     *string         `json:"department"`
	WorkSchedule   json.RawMessage `json:"work_schedule"`
	IsActive       *bool           `json:"is_active"`
	FaceEmbedding  []float64       `json:"face_embedding"`
	BranchID       *int64          `json:"branch_id"`
}

// Upsert POST /api/v1/employees
// branch_id 也接受 query 参数（对账脚本和老客户端都这么传），body 优先
func (h *EmployeeHandler) Upsert(w http.ResponseWriter, req *http.Request) {
	var body upsertEmployeeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.BranchID == nil {
		if v := req.URL.Query().Get("branch_id"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				body.BranchID = &id
			}
		}
	}

	emp, created, err := h.svc.UpsertEmployee(req.Context(), service.EmployeeInput{
		EmployeeNumber: body.EmployeeNumber,
		FirstName:      body.FirstName,
		LastName:       body.LastName,
		Email:          body.Email,
		Phone:          body.Phone,
		Position:       body.Position,
		Department:     body.Department,
		WorkSchedule:   body.WorkSchedule,
		IsActive:       body.IsActive,
		FaceEmbedding:  body.FaceEmbedding,
		BranchID:       body.BranchID,
	})
	if err != nil {
		h.logger.Warn("Employee upsert failed",
			zap.String("employee_number", body.EmployeeNumber),
			zap.Error(err),
		)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, emp.ToJSON())
}

// List GET /api/v1/employees?branch_id=
func (h *EmployeeHandler) List(w http.ResponseWriter, req *http.Request) {
	var branchID *int64
	if v := req.URL.Query().Get("branch_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid branch_id")
			return
		}
		branchID = &id
	}

	employees, err := h.svc.ListEmployees(req.Context(), branchID)
	if err != nil {
		h.logger.Error("Employee list failed", zap.Error(err))
		writeError(w, errorStatus(err), err.Error())
		return
	}
	out := make([]map[string]any, 0, len(employees))
	for _, e := range employees {
		out = append(out, e.ToJSON())
	}
	writeJSON(w, http.StatusOK, out)
}

// Get GET /api/v1/employees/{id}
func (h *EmployeeHandler) Get(w http.ResponseWriter, req *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	emp, err := h.svc.GetEmployee(req.Context(), id)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, emp.ToJSON())
}

// Delete DELETE /api/v1/employees/{id} —— 还有考勤记录时 409
func (h *EmployeeHandler) Delete(w http.ResponseWriter, req *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	if err := h.svc.DeleteEmployee(req.Context(), id); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
