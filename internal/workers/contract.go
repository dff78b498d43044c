package workers

import (
	"context"
	"encoding/json"

	"github.com/ericksa/contractreview/internal/engine"
	"github.com/ericksa/contractreview/internal/rpcerr"
)

// ContractWorker runs the text scanners over contract content.
type ContractWorker struct {
	engine *engine.Engine
}

func NewContractWorker(e *engine.Engine) *ContractWorker {
	return &ContractWorker{engine: e}
}

func (w *ContractWorker) GetTools() []ToolDef {
	return []ToolDef{
		{
			Name:        "scan_contract_risks",
			Description: "Scan contract text for risky clauses such as unlimited liability, broad indemnification or excessive non-competes. Returns matches ordered high, medium, low with the matched keywords and a context sentence. Works on English and Chinese text.",
		},
		{
			Name:        "check_contract_completeness",
			Description: "Check contract text against a 12-item checklist of essential elements (parties, dates, term, payment, signatures, governing law, disputes, termination, confidentiality, amendment, notices, force majeure) and report a score with evidence.",
		},
		{
			Name:        "detect_contract_context",
			Description: "Detect the language, likely jurisdiction (us, cn, eu, uk) and contract type of contract text, plus its word count.",
		},
	}
}

func (w *ContractWorker) Execute(ctx context.Context, name string, input json.RawMessage) ([]byte, error) {
	switch name {
	case "scan_contract_risks":
		return w.scanRisks(input)
	case "check_contract_completeness":
		return w.checkCompleteness(input)
	case "detect_contract_context":
		return w.detectContext(input)
	default:
		return nil, rpcerr.UnknownTool(name)
	}
}

func (w *ContractWorker) scanRisks(input json.RawMessage) ([]byte, error) {
	text, err := requireContent(input)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w.engine.ScanRisks(text))
}

func (w *ContractWorker) checkCompleteness(input json.RawMessage) ([]byte, error) {
	text, err := requireContent(input)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w.engine.CheckCompleteness(text))
}

func (w *ContractWorker) detectContext(input json.RawMessage) ([]byte, error) {
	text, err := requireContent(input)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w.engine.DetectContext(text))
}
