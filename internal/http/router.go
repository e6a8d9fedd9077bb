package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	withAccessLog(r.logger, r.mux).ServeHTTP(w, req)
}

// RegisterHealthRoutes 根路由和健康检查
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Biometrico API is running",
			"status":  "ok",
		})
	})
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
	})
}

// RegisterAttendanceRoutes 考勤路由
func (r *Router) RegisterAttendanceRoutes(h *AttendanceHandler) {
	r.Handle("/api/v1/attendance", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			h.Create(w, req)
		case http.MethodGet:
			h.List(w, req)
		case http.MethodDelete:
			// 特权批量清除（预共享密钥）
			h.Clear(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/api/v1/attendance/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Export(w, req)
	})
}

// RegisterRegistryRoutes 分支/员工登记路由
func (r *Router) RegisterRegistryRoutes(bh *BranchHandler, eh *EmployeeHandler) {
	r.Handle("/api/v1/branches", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			bh.Upsert(w, req)
		case http.MethodGet:
			bh.List(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// branches/{id}
	r.Handle("/api/v1/branches/", func(w http.ResponseWriter, req *http.Request) {
		id := strings.TrimPrefix(req.URL.Path, "/api/v1/branches/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if req.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		bh.Delete(w, req, id)
	})

	r.Handle("/api/v1/employees", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			eh.Upsert(w, req)
		case http.MethodGet:
			eh.List(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// employees/{id}
	r.Handle("/api/v1/employees/", func(w http.ResponseWriter, req *http.Request) {
		id := strings.TrimPrefix(req.URL.Path, "/api/v1/employees/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		switch req.Method {
		case http.MethodGet:
			eh.Get(w, req, id)
		case http.MethodDelete:
			eh.Delete(w, req, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// RegisterDebugRoutes 调试/运维路由（手动触发迁移、查看最近一次对账）
func (r *Router) RegisterDebugRoutes(h *DebugHandler) {
	r.Handle("/api/v1/debug/migrate", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Migrate(w, req)
	})
	r.Handle("/api/v1/debug/sync-status", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.SyncStatus(w, req)
	})
}
