package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericksa/contractreview/internal/audit"
	"github.com/ericksa/contractreview/internal/engine"
	"github.com/ericksa/contractreview/internal/knowledge"
	"github.com/ericksa/contractreview/internal/logging"
	"github.com/ericksa/contractreview/internal/rpcerr"
	"github.com/ericksa/contractreview/internal/workers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const ServerName = "contract-review"

// Sources recorded in the audit log.
const (
	SourceMCP  = "mcp"
	SourceHTTP = "http"
)

type Worker interface {
	GetTools() []workers.ToolDef
	Execute(ctx context.Context, name string, input json.RawMessage) ([]byte, error)
}

// ContentInput is the argument of every text-scanning tool.
type ContentInput struct {
	Content string `json:"content" jsonschema:"full contract text in English, Chinese or both"`
}

type PatternInput struct {
	PatternID string `json:"pattern_id" jsonschema:"risk pattern id, as returned by list_risk_patterns"`
}

type JurisdictionInput struct {
	Jurisdiction string `json:"jurisdiction" jsonschema:"jurisdiction code: us, eu, cn or uk"`
}

type ReportInput struct {
	Content string `json:"content" jsonschema:"full contract text in English, Chinese or both"`
	Title   string `json:"title,omitempty" jsonschema:"report title; defaults to Contract Review"`
	Format  string `json:"format,omitempty" jsonschema:"markdown (default) or html"`
	Archive bool   `json:"archive,omitempty" jsonschema:"upload the rendered report to object storage"`
}

type ListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of reports to return"`
}

type NoInput struct{}

// Options configures a Handler. Zero values disable auditing and archiving.
type Options struct {
	Version string
	Logger  *logging.AppLogger
	Auditor *audit.Auditor
	Archive workers.ReportStore
}

// Handler owns the tool workers and exposes them over MCP and to the HTTP mirror.
type Handler struct {
	kb         *knowledge.Base
	logger     *logging.AppLogger
	audit      *audit.Auditor
	workers    []Worker
	routes     map[string]Worker
	tools      []workers.ToolDef
	server     *mcp.Server
	streamable http.Handler
}

func NewHandler(kb *knowledge.Base, opts Options) *Handler {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetDefault()
	}
	if opts.Auditor == nil {
		opts.Auditor = audit.Nop()
	}

	e := engine.New(kb)
	h := &Handler{
		kb:     kb,
		logger: opts.Logger,
		audit:  opts.Auditor,
		routes: make(map[string]Worker),
		workers: []Worker{
			workers.NewContractWorker(e),
			workers.NewKnowledgeWorker(kb),
			workers.NewReportWorker(e, opts.Archive),
		},
	}
	for _, w := range h.workers {
		for _, tool := range w.GetTools() {
			h.routes[tool.Name] = w
			h.tools = append(h.tools, tool)
		}
	}

	h.initMCPServer(opts.Version)
	return h
}

func (h *Handler) initMCPServer(version string) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}, nil)

	for _, tool := range h.tools {
		switch tool.Name {
		case "scan_contract_risks", "check_contract_completeness", "detect_contract_context":
			addTool[ContentInput](h, server, tool)
		case "get_risk_pattern_details":
			addTool[PatternInput](h, server, tool)
		case "get_jurisdiction_knowledge":
			addTool[JurisdictionInput](h, server, tool)
		case "generate_contract_report":
			addTool[ReportInput](h, server, tool)
		case "list_archived_reports":
			addTool[ListInput](h, server, tool)
		default:
			addTool[NoInput](h, server, tool)
		}
	}

	h.server = server
	h.streamable = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return h.server
	}, nil)
}

// addTool registers one tool with a typed input so the SDK validates
// required arguments before the worker runs.
func addTool[In any](h *Handler, server *mcp.Server, tool workers.ToolDef) {
	name := tool.Name
	mcp.AddTool(server, &mcp.Tool{
		Name:        name,
		Description: tool.Description,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, any, error) {
		args, err := json.Marshal(input)
		if err != nil {
			return errorResult(rpcerr.Wrap(rpcerr.InvalidParams, err)), nil, nil
		}
		result, err := h.execute(ctx, SourceMCP, name, args)
		if err != nil {
			return errorResult(rpcerr.From(err)), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(result)},
			},
		}, nil, nil
	})
}

func errorResult(err *rpcerr.Error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(err.JSON())},
		},
	}
}

// execute routes one call, turning panics into internal errors and writing
// the audit record.
func (h *Handler) execute(ctx context.Context, source, name string, args json.RawMessage) (result []byte, err error) {
	w, ok := h.routes[name]
	if !ok {
		return nil, rpcerr.UnknownTool(name)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("tool panicked", "tool", name, "panic", r)
			result, err = nil, rpcerr.New(rpcerr.Internal, "Internal error in %s", name)
		}
		id := h.audit.Log(audit.Record{
			Tool:     name,
			Source:   source,
			Input:    args,
			Output:   result,
			Err:      err,
			Duration: time.Since(start),
		})
		if err != nil {
			h.logger.Warn("tool failed", "tool", name, "source", source, "request_id", id, "err", err)
		} else {
			h.logger.Debug("tool call", "tool", name, "source", source, "request_id", id, "duration", time.Since(start))
		}
	}()

	return w.Execute(ctx, name, args)
}

// ExecuteTool runs a tool for the HTTP mirror. Errors are *rpcerr.Error.
func (h *Handler) ExecuteTool(ctx context.Context, toolName string, args json.RawMessage) ([]byte, error) {
	result, err := h.execute(ctx, SourceHTTP, toolName, args)
	if err != nil {
		return nil, rpcerr.From(err)
	}
	return result, nil
}

// Tools lists every registered tool in registration order.
func (h *Handler) Tools() []workers.ToolDef {
	return h.tools
}

func (h *Handler) Knowledge() *knowledge.Base {
	return h.kb
}

func (h *Handler) Server() *mcp.Server {
	return h.server
}

// RunStdio serves MCP on stdin and stdout until ctx is done or the client hangs up.
func (h *Handler) RunStdio(ctx context.Context) error {
	return h.server.Run(ctx, &mcp.StdioTransport{})
}

// ServeHTTP serves the streamable HTTP transport.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}
