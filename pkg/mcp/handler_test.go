package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ericksa/contractreview/internal/audit"
	"github.com/ericksa/contractreview/internal/knowledge"
	"github.com/ericksa/contractreview/internal/logging"
	"github.com/ericksa/contractreview/internal/rpcerr"
	"github.com/ericksa/contractreview/internal/workers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *audit.Auditor) {
	t.Helper()
	logger, _ := logging.NewTestLogger()
	aud, err := audit.Open(audit.DriverSQLite, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(aud.Close)

	h := NewHandler(knowledge.MustDefault(), Options{Version: "test", Logger: logger, Auditor: aud})
	return h, aud
}

func connect(t *testing.T, h *Handler) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := h.Server().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callText(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestToolsRegistered(t *testing.T) {
	h, _ := newTestHandler(t)
	cs := connect(t, h)

	res, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"scan_contract_risks",
		"check_contract_completeness",
		"detect_contract_context",
		"list_risk_patterns",
		"get_risk_pattern_details",
		"get_jurisdiction_knowledge",
		"list_jurisdictions",
		"generate_contract_report",
	}, names)
	assert.Len(t, h.Tools(), len(names))
}

func TestCallScanOverMCP(t *testing.T) {
	h, aud := newTestHandler(t)
	cs := connect(t, h)

	text, isErr := callText(t, cs, "scan_contract_risks", map[string]any{
		"content": "Either party may terminate this Agreement without cause.",
	})
	require.False(t, isErr)

	var res struct {
		Risks []struct {
			ID      string `json:"id"`
			Context string `json:"context"`
		} `json:"risks"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	require.Len(t, res.Risks, 1)
	assert.Equal(t, "unfair_termination", res.Risks[0].ID)
	assert.Equal(t, "Either party may terminate this Agreement without cause", res.Risks[0].Context)

	entries, err := aud.GetLogs(10, "scan_contract_risks")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, SourceMCP, entries[0].Source)
}

func TestCallChineseNonCompeteOverMCP(t *testing.T) {
	h, _ := newTestHandler(t)
	cs := connect(t, h)

	text, isErr := callText(t, cs, "scan_contract_risks", map[string]any{
		"content": "员工离职后两年内不得竞争。",
	})
	require.False(t, isErr)

	var res struct {
		Summary struct {
			DetectedLanguage string `json:"detected_language"`
		} `json:"summary"`
		Risks []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"risks"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Equal(t, "zh", res.Summary.DetectedLanguage)
	require.Len(t, res.Risks, 1)
	assert.Equal(t, "excessive_noncompete", res.Risks[0].ID)
	assert.Equal(t, "过度的竞业限制", res.Risks[0].Name)
}

func TestUnknownPatternOverMCP(t *testing.T) {
	h, _ := newTestHandler(t)
	cs := connect(t, h)

	text, isErr := callText(t, cs, "get_risk_pattern_details", map[string]any{"pattern_id": "nonexistent_id"})
	assert.False(t, isErr)

	var res struct {
		Error     string   `json:"error"`
		Available []string `json:"available"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Equal(t, "Unknown pattern: nonexistent_id", res.Error)
	assert.Len(t, res.Available, 10)
}

func TestNoArgumentToolOverMCP(t *testing.T) {
	h, _ := newTestHandler(t)
	cs := connect(t, h)

	text, isErr := callText(t, cs, "list_jurisdictions", map[string]any{})
	require.False(t, isErr)
	assert.Contains(t, text, `"code":"uk"`)
}

func TestMissingRequiredArgumentOverMCP(t *testing.T) {
	h, _ := newTestHandler(t)
	cs := connect(t, h)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "scan_contract_risks",
		Arguments: map[string]any{},
	})
	if err == nil {
		assert.True(t, res.IsError)
	}
}

func TestReportFormatErrorOverMCP(t *testing.T) {
	h, _ := newTestHandler(t)
	cs := connect(t, h)

	text, isErr := callText(t, cs, "generate_contract_report", map[string]any{"content": "x", "format": "pdf"})
	require.True(t, isErr)

	var payload struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Equal(t, int(rpcerr.InvalidParams), payload.Code)
	assert.Contains(t, payload.Message, "pdf")
}

func TestExecuteTool(t *testing.T) {
	h, aud := newTestHandler(t)
	ctx := context.Background()

	out, err := h.ExecuteTool(ctx, "detect_contract_context", json.RawMessage(`{"content":"This Lease is governed by the laws of England."}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"detected_language":"en","likely_jurisdiction":"uk","contract_type":"lease","word_count":9}`, string(out))

	_, err = h.ExecuteTool(ctx, "no_such_tool", nil)
	var rpc *rpcerr.Error
	require.True(t, errors.As(err, &rpc))
	assert.Equal(t, rpcerr.MethodNotFound, rpc.Code)
	assert.Equal(t, "Unknown tool: no_such_tool", rpc.Message)

	_, err = h.ExecuteTool(ctx, "scan_contract_risks", json.RawMessage(`{}`))
	require.True(t, errors.As(err, &rpc))
	assert.Equal(t, rpcerr.InvalidParams, rpc.Code)

	entries, err := aud.GetLogs(10, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, SourceHTTP, entries[0].Source)
	assert.Contains(t, entries[0].Error, "Missing content field")
}

type panicWorker struct{}

func (panicWorker) GetTools() []workers.ToolDef {
	return []workers.ToolDef{{Name: "explode", Description: "panics"}}
}

func (panicWorker) Execute(ctx context.Context, name string, input json.RawMessage) ([]byte, error) {
	panic("kaboom")
}

func TestExecuteRecoversPanics(t *testing.T) {
	h, _ := newTestHandler(t)
	h.routes["explode"] = panicWorker{}

	_, err := h.ExecuteTool(context.Background(), "explode", nil)
	var rpc *rpcerr.Error
	require.True(t, errors.As(err, &rpc))
	assert.Equal(t, rpcerr.Internal, rpc.Code)
	assert.Equal(t, "Internal error in explode", rpc.Message)
}
