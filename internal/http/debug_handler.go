package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"biometrico-data/internal/migrate"
	"biometrico-data/internal/service"
	"biometrico-data/internal/store"
)

// DebugHandler 运维入口：手动触发 schema 迁移、查看最近一次对账结果
type DebugHandler struct {
	runner *migrate.Runner
	kv     store.KV // 可为 nil
	logger *zap.Logger
}

func NewDebugHandler(runner *migrate.Runner, kv store.KV, logger *zap.Logger) *DebugHandler {
	return &DebugHandler{runner: runner, kv: kv, logger: logger}
}

// Migrate GET /api/v1/debug/migrate
// 重跑任意次都安全；返回按序的指令结果日志，部分失败只体现在日志里
func (h *DebugHandler) Migrate(w http.ResponseWriter, req *http.Request) {
	logs := h.runner.Run(req.Context())
	writeJSON(w, http.StatusOK, logs)
}

// SyncStatus GET /api/v1/debug/sync-status —— 最近一次对账的汇总
func (h *DebugHandler) SyncStatus(w http.ResponseWriter, req *http.Request) {
	if h.kv == nil {
		writeError(w, http.StatusNotFound, "sync status store not configured")
		return
	}
	raw, err := h.kv.Get(req.Context(), service.SyncLastRunKey)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			writeError(w, http.StatusNotFound, "no sync run recorded")
			return
		}
		h.logger.Error("Failed to read sync status", zap.Error(err))
		writeError(w, http.StatusBadRequest, "failed to read sync status")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(json.RawMessage(raw))
}
