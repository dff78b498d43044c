package audit

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ericksa/contractreview/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuditor(t *testing.T) *Auditor {
	t.Helper()
	logger, _ := logging.NewTestLogger()
	a, err := Open(DriverSQLite, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestLogAndGetLogs(t *testing.T) {
	a := newTestAuditor(t)

	id := a.Log(Record{
		Tool:     "scan_contract_risks",
		Source:   "mcp",
		Input:    []byte(`{"content":"x"}`),
		Output:   []byte(`{"risks":[]}`),
		Duration: 3 * time.Millisecond,
	})
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	a.Log(Record{Tool: "get_risk_pattern_details", Source: "http", Err: errors.New("boom")})

	entries, err := a.GetLogs(10, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, "get_risk_pattern_details", entries[0].Tool)
	assert.Equal(t, "boom", entries[0].Error)
	assert.Equal(t, "http", entries[0].Source)

	assert.Equal(t, id, entries[1].RequestID)
	assert.Equal(t, `{"content":"x"}`, entries[1].Input)
	assert.Equal(t, int64(3), entries[1].DurationMS)
	assert.False(t, entries[1].Timestamp.IsZero())
}

func TestGetLogsFilterAndLimit(t *testing.T) {
	a := newTestAuditor(t)
	for i := 0; i < 3; i++ {
		a.Log(Record{Tool: "scan_contract_risks", Source: "mcp"})
	}
	a.Log(Record{Tool: "list_risk_patterns", Source: "mcp"})

	entries, err := a.GetLogs(2, "scan_contract_risks")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "scan_contract_risks", e.Tool)
	}
}

func TestOpenSQLiteFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "audit.db")
	a, err := Open(DriverSQLite, dsn, nil)
	require.NoError(t, err)
	defer a.Close()
	assert.True(t, a.Enabled())
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "dsn", nil)
	assert.Error(t, err)
}

func TestNopAuditor(t *testing.T) {
	a := Nop()
	assert.False(t, a.Enabled())
	assert.NotEmpty(t, a.Log(Record{Tool: "x"}))
	entries, err := a.GetLogs(5, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
	a.Close()
}

func TestRebind(t *testing.T) {
	pg := &Auditor{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 LIMIT $2", pg.rebind("SELECT * FROM t WHERE a = ? LIMIT ?"))

	lite := &Auditor{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}
