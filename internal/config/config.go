package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AppName   = "contractreview"
	EnvPrefix = "CONTRACT"
)

// Config represents the complete gateway configuration.
// The structure matches config.yaml and can be overridden by CONTRACT_* environment variables.
type Config struct {
	Server    ServerConfig    `json:"server" mapstructure:"server"`
	Auth      AuthConfig      `json:"auth" mapstructure:"auth"`
	Log       LogConfig       `json:"log" mapstructure:"log"`
	Knowledge KnowledgeConfig `json:"knowledge" mapstructure:"knowledge"`
	Audit     AuditConfig     `json:"audit" mapstructure:"audit"`
	Archive   ArchiveConfig   `json:"archive" mapstructure:"archive"`
}

// ServerConfig contains HTTP listener settings. Timeouts are Go duration strings.
type ServerConfig struct {
	Addr         string `json:"addr" mapstructure:"addr"`
	ReadTimeout  string `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout string `json:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  string `json:"idle_timeout" mapstructure:"idle_timeout"`
}

// AuthConfig protects the admin routes. An empty token leaves them open.
type AuthConfig struct {
	Token string `json:"token" mapstructure:"token"`
}

type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// KnowledgeConfig points at an optional directory of catalog overrides.
type KnowledgeConfig struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

type AuditConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Driver  string `json:"driver" mapstructure:"driver"`
	DSN     string `json:"dsn" mapstructure:"dsn"`
}

// ArchiveConfig configures S3-compatible storage for rendered reports.
type ArchiveConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Endpoint  string `json:"endpoint" mapstructure:"endpoint"`
	AccessKey string `json:"access_key" mapstructure:"access_key"`
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`
	Bucket    string `json:"bucket" mapstructure:"bucket"`
	UseSSL    bool   `json:"use_ssl" mapstructure:"use_ssl"`
	Prefix    string `json:"prefix" mapstructure:"prefix"`
}

// Load loads the configuration from file and environment variables.
// An empty path searches ., $HOME/.contractreview and the XDG config dir.
func Load(path string) (*Config, error) {
	// Load .env first (ignore error if not present)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/." + AppName)
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, AppName))
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Knowledge.Dir = resolvePath(cfg.Knowledge.Dir)
	if cfg.Audit.Driver == "sqlite3" {
		cfg.Audit.DSN = resolvePath(cfg.Audit.DSN)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("auth.token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("knowledge.dir", "")

	// Audit rows hold full contract text, so recording is opt-in.
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.driver", "sqlite3")
	v.SetDefault("audit.dsn", filepath.Join(xdg.StateHome, AppName, "audit.db"))

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.endpoint", "127.0.0.1:9000")
	v.SetDefault("archive.access_key", "")
	v.SetDefault("archive.secret_key", "")
	v.SetDefault("archive.bucket", "contract-reports")
	v.SetDefault("archive.use_ssl", false)
	v.SetDefault("archive.prefix", "reports/")
}

// Timeouts returns the parsed server timeouts. Call Validate first.
func (s ServerConfig) Timeouts() (read, write, idle time.Duration) {
	read, _ = time.ParseDuration(s.ReadTimeout)
	write, _ = time.ParseDuration(s.WriteTimeout)
	idle, _ = time.ParseDuration(s.IdleTimeout)
	return read, write, idle
}

// resolvePath resolves ~ to home directory and cleans the path
func resolvePath(p string) string {
	if p == "" || p == ":memory:" {
		return p
	}
	if p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return filepath.Clean(p)
}
