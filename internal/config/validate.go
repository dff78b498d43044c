package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"
)

var bucketNameRE = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server address cannot be empty")
	}
	if _, err := net.ResolveTCPAddr("tcp", c.Server.Addr); err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}

	for name, value := range map[string]string{
		"read_timeout":  c.Server.ReadTimeout,
		"write_timeout": c.Server.WriteTimeout,
		"idle_timeout":  c.Server.IdleTimeout,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid server %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("server %s must be positive", name)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}

	if c.Audit.Enabled {
		switch c.Audit.Driver {
		case "sqlite3", "postgres":
		default:
			return fmt.Errorf("unsupported audit driver: %q", c.Audit.Driver)
		}
		if c.Audit.DSN == "" {
			return errors.New("audit dsn cannot be empty when audit is enabled")
		}
	}

	if c.Archive.Enabled {
		if c.Archive.Endpoint == "" {
			return errors.New("archive endpoint cannot be empty when archive is enabled")
		}
		if c.Archive.AccessKey == "" {
			return errors.New("archive access key cannot be empty when archive is enabled")
		}
		if c.Archive.SecretKey == "" {
			return errors.New("archive secret key cannot be empty when archive is enabled")
		}
		if !isValidBucketName(c.Archive.Bucket) {
			return fmt.Errorf("invalid archive bucket name: %s", c.Archive.Bucket)
		}
	}

	return nil
}

// isValidBucketName checks if a bucket name is valid according to MinIO/S3 rules
func isValidBucketName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return bucketNameRE.MatchString(name)
}
