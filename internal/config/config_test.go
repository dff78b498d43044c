package config

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", ReadTimeout: "15s", WriteTimeout: "15s", IdleTimeout: "60s"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Audit:  AuditConfig{Enabled: true, Driver: "sqlite3", DSN: ":memory:"},
		Archive: ArchiveConfig{
			Bucket: "contract-reports",
		},
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
log:
  format: json
knowledge:
  dir: /tmp/catalog
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "/tmp/catalog", cfg.Knowledge.Dir)
	assert.Equal(t, "sqlite3", cfg.Audit.Driver)
	assert.False(t, cfg.Audit.Enabled)
	assert.False(t, cfg.Archive.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9090\"\n")
	t.Setenv("CONTRACT_SERVER_ADDR", ":7070")
	t.Setenv("CONTRACT_AUTH_TOKEN", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "s3cret", cfg.Auth.Token)
}

func TestLoadAuditOptIn(t *testing.T) {
	path := writeConfig(t, "audit:\n  enabled: true\n  dsn: /tmp/audit.db\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "/tmp/audit.db", cfg.Audit.DSN)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestTimeouts(t *testing.T) {
	read, write, idle := validConfig().Server.Timeouts()
	assert.Equal(t, 15*time.Second, read)
	assert.Equal(t, 15*time.Second, write)
	assert.Equal(t, time.Minute, idle)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server address cannot be empty"},
		{"bad timeout", func(c *Config) { c.Server.ReadTimeout = "soon" }, "invalid server read_timeout"},
		{"zero timeout", func(c *Config) { c.Server.IdleTimeout = "0s" }, "must be positive"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"bad driver", func(c *Config) { c.Audit.Driver = "mysql" }, "unsupported audit driver"},
		{"audit disabled ignores driver", func(c *Config) { c.Audit.Enabled = false; c.Audit.Driver = "mysql" }, ""},
		{"archive missing keys", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Endpoint = "localhost:9000"
		}, "archive access key"},
		{"archive bad bucket", func(c *Config) {
			c.Archive = ArchiveConfig{Enabled: true, Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "Bad_Bucket"}
		}, "invalid archive bucket name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsValidBucketName(t *testing.T) {
	assert.True(t, isValidBucketName("contract-reports"))
	assert.False(t, isValidBucketName("ab"))
	assert.False(t, isValidBucketName("a..b"))
	assert.False(t, isValidBucketName(".reports"))
}

func TestConfigAPIRedactsSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Token = "token"
	cfg.Archive.AccessKey = "access"
	cfg.Archive.SecretKey = "secret"
	api := NewConfigAPI(cfg)

	req := httptest.NewRequest(http.MethodGet, "/configure", nil)
	w := httptest.NewRecorder()
	api.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got Config
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, redacted, got.Auth.Token)
	assert.Equal(t, redacted, got.Archive.AccessKey)
	assert.Equal(t, redacted, got.Archive.SecretKey)
	// the live config is untouched
	assert.Equal(t, "secret", cfg.Archive.SecretKey)
}

func TestConfigAPISection(t *testing.T) {
	api := NewConfigAPI(validConfig())

	w := httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/configure/log", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"level":"info","format":"text"}`, w.Body.String())

	w = httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/configure/llm", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigAPIValidate(t *testing.T) {
	api := NewConfigAPI(validConfig())

	body, err := json.Marshal(validConfig())
	require.NoError(t, err)
	w := httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/configure/validate", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":true`)

	bad := validConfig()
	bad.Server.Addr = ""
	body, err = json.Marshal(bad)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/configure/validate", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "server address cannot be empty")
}
