package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ericksa/contractreview/internal/logging"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Auditor records every tool call. A zero Auditor discards everything.
type Auditor struct {
	db     *sql.DB
	driver string
	logger *logging.AppLogger
}

// Record is one tool call to be written.
type Record struct {
	Tool     string
	Source   string // mcp or http
	Input    []byte
	Output   []byte
	Err      error
	Duration time.Duration
}

type AuditEntry struct {
	ID         int64     `json:"id"`
	RequestID  string    `json:"request_id"`
	Tool       string    `json:"tool"`
	Source     string    `json:"source"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

var schemas = map[string]string{
	DriverSQLite: `CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		tool TEXT NOT NULL,
		source TEXT NOT NULL,
		input TEXT,
		output TEXT,
		error TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		timestamp DATETIME NOT NULL
	)`,
	DriverPostgres: `CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		request_id TEXT NOT NULL,
		tool TEXT NOT NULL,
		source TEXT NOT NULL,
		input TEXT,
		output TEXT,
		error TEXT,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		timestamp TIMESTAMPTZ NOT NULL
	)`,
}

// Open connects to the audit database and creates the table if needed.
func Open(driver, dsn string, logger *logging.AppLogger) (*Auditor, error) {
	schema, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported audit driver: %s", driver)
	}
	if logger == nil {
		logger = logging.GetDefault()
	}
	if driver == DriverSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if driver == DriverSQLite {
		// every :memory: connection is a separate database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	return &Auditor{db: db, driver: driver, logger: logger}, nil
}

// Nop returns an Auditor that records nothing.
func Nop() *Auditor {
	return &Auditor{}
}

func (a *Auditor) Enabled() bool {
	return a != nil && a.db != nil
}

// Log writes rec and returns the request id assigned to it.
// Failures are logged, never returned: auditing must not fail a tool call.
func (a *Auditor) Log(rec Record) string {
	id := uuid.NewString()
	if !a.Enabled() {
		return id
	}
	var errStr string
	if rec.Err != nil {
		errStr = rec.Err.Error()
	}
	_, err := a.db.Exec(
		a.rebind("INSERT INTO audit_log (request_id, tool, source, input, output, error, duration_ms, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"),
		id, rec.Tool, rec.Source, string(rec.Input), string(rec.Output), errStr, rec.Duration.Milliseconds(), time.Now().UTC(),
	)
	if err != nil {
		a.logger.Error("Failed to write audit log", "tool", rec.Tool, "err", err)
	}
	return id
}

// GetLogs returns the newest entries first. An empty tool matches every tool.
func (a *Auditor) GetLogs(limit int, tool string) ([]AuditEntry, error) {
	if !a.Enabled() {
		return []AuditEntry{}, nil
	}
	query := "SELECT id, request_id, tool, source, input, output, error, duration_ms, timestamp FROM audit_log"
	args := []interface{}{}
	if tool != "" {
		query += " WHERE tool = ?"
		args = append(args, tool)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := a.db.Query(a.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := []AuditEntry{}
	for rows.Next() {
		var e AuditEntry
		var input, output, errStr sql.NullString
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Tool, &e.Source, &input, &output, &errStr, &e.DurationMS, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.Input, e.Output, e.Error = input.String, output.String, errStr.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// rebind rewrites ? placeholders as $n for postgres.
func (a *Auditor) rebind(query string) string {
	if a.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (a *Auditor) Close() {
	if a.Enabled() {
		a.db.Close()
	}
}
