package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"biometrico-data/internal/service"
)

// BranchHandler 分支登记入口
type BranchHandler struct {
	svc    *service.BranchService
	logger *zap.Logger
}

func NewBranchHandler(svc *service.BranchService, logger *zap.Logger) *BranchHandler {
	return &BranchHandler{svc: svc, logger: logger}
}

type upsertBranchRequest struct {
	Name      string   `json:"name"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    *float64 `json:"radius"`
	Phone     *string  `json:"phone"`
	City      *string  `json:"city"`
	Code      *string  `json:"code"`
}

// Upsert POST /api/v1/branches —— create-or-overwrite，按名字
func (h *BranchHandler) Upsert(w http.ResponseWriter, req *http.Request) {
	var body upsertBranchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	branch, created, err := h.svc.UpsertBranch(req.Context(), service.BranchInput{
		Name:      body.Name,
		Address:   body.Address,
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
		Radius:    body.Radius,
		Phone:     body.Phone,
		City:      body.City,
		Code:      body.Code,
	})
	if err != nil {
		h.logger.Warn("Branch upsert failed", zap.String("name", body.Name), zap.Error(err))
		writeError(w, errorStatus(err), err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, branch.ToJSON())
}

// List GET /api/v1/branches
func (h *BranchHandler) List(w http.ResponseWriter, req *http.Request) {
	branches, err := h.svc.ListBranches(req.Context())
	if err != nil {
		h.logger.Error("Branch list failed", zap.Error(err))
		writeError(w, errorStatus(err), err.Error())
		return
	}
	out := make([]map[string]any, 0, len(branches))
	for _, b := range branches {
		out = append(out, b.ToJSON())
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete DELETE /api/v1/branches/{id} —— 还有员工引用时 409
func (h *BranchHandler) Delete(w http.ResponseWriter, req *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid branch id")
		return
	}
	if err := h.svc.DeleteBranch(req.Context(), id); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
