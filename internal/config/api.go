package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
)

const redacted = "***"

// ConfigAPI serves a read-only view of the running configuration.
// Secrets are redacted in every response.
type ConfigAPI struct {
	cfg    *Config
	mu     sync.RWMutex
	router *mux.Router
}

func NewConfigAPI(cfg *Config) *ConfigAPI {
	api := &ConfigAPI{
		cfg:    cfg,
		router: mux.NewRouter(),
	}
	api.routes()
	return api
}

func (api *ConfigAPI) Router() *mux.Router {
	return api.router
}

// Register mounts the routes under /configure on r. mwf applies to these
// routes only, on top of r's own middleware.
func (api *ConfigAPI) Register(r *mux.Router, mwf ...mux.MiddlewareFunc) {
	s := r.PathPrefix("/configure").Subrouter()
	s.Use(mwf...)
	s.HandleFunc("", api.getConfig).Methods(http.MethodGet, http.MethodOptions)
	s.HandleFunc("/validate", api.validateConfig).Methods(http.MethodPost, http.MethodOptions)
	s.HandleFunc("/{section}", api.getSection).Methods(http.MethodGet, http.MethodOptions)
}

func (api *ConfigAPI) routes() {
	api.Register(api.router)
}

func (api *ConfigAPI) getConfig(w http.ResponseWriter, r *http.Request) {
	api.mu.RLock()
	defer api.mu.RUnlock()
	writeJSON(w, http.StatusOK, api.safeConfigCopy())
}

func (api *ConfigAPI) validateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"valid": false, "error": fmt.Sprintf("invalid config payload: %v", err)})
		return
	}
	if err := cfg.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"valid": false, "error": fmt.Sprintf("invalid configuration: %v", err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"valid": true, "message": "configuration is valid"})
}

func (api *ConfigAPI) getSection(w http.ResponseWriter, r *http.Request) {
	api.mu.RLock()
	defer api.mu.RUnlock()

	safe := api.safeConfigCopy()
	section := mux.Vars(r)["section"]
	var out interface{}

	switch section {
	case "server":
		out = safe.Server
	case "auth":
		out = safe.Auth
	case "log":
		out = safe.Log
	case "knowledge":
		out = safe.Knowledge
	case "audit":
		out = safe.Audit
	case "archive":
		out = safe.Archive
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown config section: %s", section)})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (api *ConfigAPI) safeConfigCopy() *Config {
	copyCfg := *api.cfg
	if copyCfg.Archive.AccessKey != "" {
		copyCfg.Archive.AccessKey = redacted
	}
	if copyCfg.Archive.SecretKey != "" {
		copyCfg.Archive.SecretKey = redacted
	}
	if copyCfg.Auth.Token != "" {
		copyCfg.Auth.Token = redacted
	}
	if copyCfg.Audit.Driver == "postgres" && copyCfg.Audit.DSN != "" {
		copyCfg.Audit.DSN = redacted
	}
	return &copyCfg
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
