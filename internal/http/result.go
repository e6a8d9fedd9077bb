package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"biometrico-data/internal/domain"
)

// errorBody 错误响应体，保持 {"detail": "..."} 形状（kiosk 客户端按这个解析）
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// errorStatus 错误分类 → HTTP 状态码
// 预期外的持久化错误统一按 400 返回给客户端，不向外抛 500
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrBranchNotFound),
		errors.Is(err, domain.ErrEmployeeNotFound),
		errors.Is(err, domain.ErrAttendanceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
