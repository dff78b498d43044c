package workers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ericksa/contractreview/internal/archive"
	"github.com/ericksa/contractreview/internal/engine"
	"github.com/ericksa/contractreview/internal/knowledge"
	"github.com/ericksa/contractreview/internal/report"
	"github.com/ericksa/contractreview/internal/rpcerr"
)

const defaultListLimit = 50

// ReportStore keeps rendered reports. *archive.Archiver implements it.
type ReportStore interface {
	Put(ctx context.Context, title, ext, contentType string, body []byte) (archive.Object, error)
	List(ctx context.Context, limit int) ([]archive.Object, error)
}

// ReportWorker renders full reviews and optionally archives them.
type ReportWorker struct {
	engine *engine.Engine
	store  ReportStore
}

// NewReportWorker builds the worker. store may be nil when archiving is off.
func NewReportWorker(e *engine.Engine, store ReportStore) *ReportWorker {
	return &ReportWorker{engine: e, store: store}
}

type reportArgs struct {
	Content *string `json:"content"`
	Title   string  `json:"title"`
	Format  string  `json:"format"`
	Archive bool    `json:"archive"`
}

type ReportResult struct {
	Title    string             `json:"title"`
	Format   string             `json:"format"`
	Language knowledge.Language `json:"language"`
	Summary  engine.ScanSummary `json:"summary"`
	Score    string             `json:"score"`
	Report   string             `json:"report"`
	Archived *archive.Object    `json:"archived_object,omitempty"`
}

func (w *ReportWorker) GetTools() []ToolDef {
	tools := []ToolDef{
		{
			Name:        "generate_contract_report",
			Description: "Run every check on contract text and render one review report in markdown (default) or html. Set archive to upload the report to object storage.",
		},
	}
	if w.store != nil {
		tools = append(tools, ToolDef{
			Name:        "list_archived_reports",
			Description: "List reports previously uploaded to object storage.",
		})
	}
	return tools
}

func (w *ReportWorker) Execute(ctx context.Context, name string, input json.RawMessage) ([]byte, error) {
	switch name {
	case "generate_contract_report":
		return w.generate(ctx, input)
	case "list_archived_reports":
		if w.store != nil {
			return w.list(ctx, input)
		}
	}
	return nil, rpcerr.UnknownTool(name)
}

func (w *ReportWorker) generate(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req reportArgs
	if err := decodeArgs(input, &req); err != nil {
		return nil, err
	}
	if req.Content == nil {
		return nil, rpcerr.MissingField("content")
	}
	if req.Archive && w.store == nil {
		return nil, rpcerr.New(rpcerr.InvalidParams, "Report archive is not configured")
	}

	review := report.Build(w.engine, req.Title, *req.Content)
	rendered, err := report.Render(review, req.Format)
	if err != nil {
		var fe *report.FormatError
		if errors.As(err, &fe) {
			return nil, rpcerr.Wrap(rpcerr.InvalidParams, err)
		}
		return nil, err
	}

	res := ReportResult{
		Title:    review.Title,
		Format:   rendered.Format,
		Language: review.Language,
		Summary:  review.Scan.Summary,
		Score:    review.Completeness.Score,
		Report:   string(rendered.Body),
	}
	if req.Archive {
		obj, err := w.store.Put(ctx, review.Title, rendered.Ext, rendered.ContentType, rendered.Body)
		if err != nil {
			return nil, err
		}
		res.Archived = &obj
	}
	return json.Marshal(res)
}

func (w *ReportWorker) list(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		Limit int `json:"limit"`
	}
	if err := decodeArgs(input, &req); err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}

	objects, err := w.store.List(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"reports": objects, "count": len(objects)})
}
