package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ericksa/contractreview/internal/audit"
	"github.com/ericksa/contractreview/internal/config"
	"github.com/ericksa/contractreview/internal/logging"
	"github.com/ericksa/contractreview/internal/middleware"
	"github.com/ericksa/contractreview/internal/rpcerr"
	"github.com/ericksa/contractreview/pkg/mcp"
	"github.com/gorilla/mux"
)

const (
	maxBodyBytes      = 10 << 20
	defaultAuditLimit = 100
)

type gateway struct {
	handler *mcp.Handler
	audit   *audit.Auditor
	logger  *logging.AppLogger
}

func newRouter(cfg *config.Config, gw *gateway) *mux.Router {
	notFound := middleware.CORS(nil)(http.HandlerFunc(notFoundHandler))
	notAllowed := middleware.CORS(nil)(http.HandlerFunc(methodNotAllowedHandler))

	router := mux.NewRouter()
	middleware.Register(router, gw.logger)
	router.NotFoundHandler = notFound
	router.MethodNotAllowedHandler = notAllowed

	// MCP streamable HTTP endpoint
	router.Handle("/mcp", gw.handler)

	router.HandleFunc("/health", gw.healthHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/tools", gw.listToolsHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/tools/{tool}", gw.executeToolHandler).Methods(http.MethodPost, http.MethodOptions)

	// Subrouters do not inherit the parent's fallback handlers.
	api := router.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = notFound
	api.MethodNotAllowedHandler = notAllowed
	api.HandleFunc("/scan", gw.toolHandler("scan_contract_risks")).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/check", gw.toolHandler("check_contract_completeness")).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/detect", gw.toolHandler("detect_contract_context")).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/report", gw.toolHandler("generate_contract_report")).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/patterns", gw.toolHandler("list_risk_patterns")).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/patterns/{key}", gw.lookupHandler("get_risk_pattern_details", "pattern_id")).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/jurisdictions", gw.toolHandler("list_jurisdictions")).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/jurisdictions/{key}", gw.lookupHandler("get_jurisdiction_knowledge", "jurisdiction")).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/reports", gw.reportsHandler).Methods(http.MethodGet, http.MethodOptions)

	// Admin routes require the auth token when one is configured.
	auth := middleware.Auth(cfg.Auth.Token)
	router.Handle("/audit", auth(http.HandlerFunc(gw.auditHandler))).Methods(http.MethodGet, http.MethodOptions)
	config.NewConfigAPI(cfg).Register(router, auth)

	return router
}

func (gw *gateway) healthHandler(w http.ResponseWriter, r *http.Request) {
	tools := gw.handler.Tools()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	kb := gw.handler.Knowledge()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"service":       mcp.ServerName,
		"version":       version,
		"tools":         names,
		"patterns":      len(kb.Patterns()),
		"jurisdictions": len(kb.Jurisdictions()),
	})
}

func (gw *gateway) listToolsHandler(w http.ResponseWriter, r *http.Request) {
	tools := gw.handler.Tools()
	out := make([]map[string]string, len(tools))
	for i, t := range tools {
		out[i] = map[string]string{"name": t.Name, "description": t.Description}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": out})
}

func (gw *gateway) executeToolHandler(w http.ResponseWriter, r *http.Request) {
	gw.toolHandler(mux.Vars(r)["tool"])(w, r)
}

// toolHandler passes the request body to tool unchanged.
func (gw *gateway) toolHandler(tool string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var args []byte
		if r.Method == http.MethodPost {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
					return
				}
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			args = body
		}
		gw.run(w, r, tool, args)
	}
}

// lookupHandler serves a catalog entry named by the {key} path variable.
// Unknown keys keep the {error, available} payload but answer 404.
func (gw *gateway) lookupHandler(tool, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		args, _ := json.Marshal(map[string]string{field: mux.Vars(r)["key"]})
		result, err := gw.handler.ExecuteTool(r.Context(), tool, args)
		if err != nil {
			writeToolError(w, err)
			return
		}

		var miss struct {
			Error string `json:"error"`
		}
		status := http.StatusOK
		if json.Unmarshal(result, &miss) == nil && miss.Error != "" {
			status = http.StatusNotFound
		}
		writeRaw(w, status, result)
	}
}

func (gw *gateway) reportsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	args, _ := json.Marshal(map[string]int{"limit": limit})

	result, err := gw.handler.ExecuteTool(r.Context(), "list_archived_reports", args)
	if err != nil {
		if rpcerr.From(err).Code == rpcerr.MethodNotFound {
			writeError(w, http.StatusNotFound, "Report archive is not configured")
			return
		}
		writeToolError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, result)
}

func (gw *gateway) auditHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := gw.audit.GetLogs(limit, r.URL.Query().Get("tool"))
	if err != nil {
		gw.logger.Error("Failed to read audit log", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to read audit log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "count": len(entries)})
}

func (gw *gateway) run(w http.ResponseWriter, r *http.Request, tool string, args []byte) {
	result, err := gw.handler.ExecuteTool(r.Context(), tool, args)
	if err != nil {
		writeToolError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, result)
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func writeToolError(w http.ResponseWriter, err error) {
	rpc := rpcerr.From(err)
	writeError(w, rpc.Code.HTTPStatus(), rpc.Message)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
