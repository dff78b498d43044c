package workers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ericksa/contractreview/internal/knowledge"
	"github.com/ericksa/contractreview/internal/rpcerr"
)

// KnowledgeWorker answers lookups against the risk and jurisdiction catalogs.
type KnowledgeWorker struct {
	kb *knowledge.Base
}

func NewKnowledgeWorker(kb *knowledge.Base) *KnowledgeWorker {
	return &KnowledgeWorker{kb: kb}
}

// PatternSummary is the list form of a risk pattern.
type PatternSummary struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	NameZH   string             `json:"name_zh"`
	Severity knowledge.Severity `json:"severity"`
}

// PatternDetails is the full wire form of a risk pattern.
type PatternDetails struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	NameZH           string             `json:"name_zh"`
	Severity         knowledge.Severity `json:"severity"`
	Description      string             `json:"description"`
	DescriptionZH    string             `json:"description_zh"`
	Recommendation   string             `json:"recommendation"`
	RecommendationZH string             `json:"recommendation_zh"`
	KeywordsEN       []string           `json:"keywords_en"`
	KeywordsZH       []string           `json:"keywords_zh"`
}

type JurisdictionSummary struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	NameZH string `json:"name_zh"`
}

// JurisdictionProfile is the full wire form of a jurisdiction.
type JurisdictionProfile struct {
	Code      string             `json:"code"`
	Name      string             `json:"name"`
	NameZH    string             `json:"name_zh"`
	KeyLaws   []knowledge.KeyLaw `json:"key_laws"`
	RiskFocus []string           `json:"risk_focus"`
	Notes     string             `json:"notes,omitempty"`
}

func (w *KnowledgeWorker) GetTools() []ToolDef {
	return []ToolDef{
		{
			Name:        "list_risk_patterns",
			Description: "List every risk pattern the scanner knows, with its id, English and Chinese name and severity.",
		},
		{
			Name:        "get_risk_pattern_details",
			Description: "Get the full description, recommendation and English and Chinese keywords of one risk pattern by id.",
		},
		{
			Name:        "get_jurisdiction_knowledge",
			Description: "Get key laws, risk focus areas and notes for a jurisdiction: us, eu, cn or uk.",
		},
		{
			Name:        "list_jurisdictions",
			Description: "List the jurisdictions with reference data available.",
		},
	}
}

func (w *KnowledgeWorker) Execute(ctx context.Context, name string, input json.RawMessage) ([]byte, error) {
	switch name {
	case "list_risk_patterns":
		return json.Marshal(map[string]any{"patterns": w.ListPatterns()})
	case "get_risk_pattern_details":
		return w.patternDetails(input)
	case "get_jurisdiction_knowledge":
		return w.jurisdictionKnowledge(input)
	case "list_jurisdictions":
		return json.Marshal(map[string]any{"jurisdictions": w.ListJurisdictions()})
	default:
		return nil, rpcerr.UnknownTool(name)
	}
}

func (w *KnowledgeWorker) ListPatterns() []PatternSummary {
	patterns := w.kb.Patterns()
	out := make([]PatternSummary, len(patterns))
	for i, p := range patterns {
		out[i] = PatternSummary{
			ID:       p.ID,
			Name:     p.Name[knowledge.English],
			NameZH:   p.Name[knowledge.Chinese],
			Severity: p.Severity,
		}
	}
	return out
}

// PatternDetails looks up one pattern in wire form.
func (w *KnowledgeWorker) PatternDetails(id string) (PatternDetails, bool) {
	p, ok := w.kb.PatternByID(id)
	if !ok {
		return PatternDetails{}, false
	}
	return PatternDetails{
		ID:               p.ID,
		Name:             p.Name[knowledge.English],
		NameZH:           p.Name[knowledge.Chinese],
		Severity:         p.Severity,
		Description:      p.Description[knowledge.English],
		DescriptionZH:    p.Description[knowledge.Chinese],
		Recommendation:   p.Recommendation[knowledge.English],
		RecommendationZH: p.Recommendation[knowledge.Chinese],
		KeywordsEN:       nonNil(p.Keywords[knowledge.English]),
		KeywordsZH:       nonNil(p.Keywords[knowledge.Chinese]),
	}, true
}

func (w *KnowledgeWorker) ListJurisdictions() []JurisdictionSummary {
	js := w.kb.Jurisdictions()
	out := make([]JurisdictionSummary, len(js))
	for i, j := range js {
		out[i] = JurisdictionSummary{Code: j.Code, Name: j.Name[knowledge.English], NameZH: j.Name[knowledge.Chinese]}
	}
	return out
}

// JurisdictionProfile looks up one jurisdiction in wire form.
func (w *KnowledgeWorker) JurisdictionProfile(code string) (JurisdictionProfile, bool) {
	j, ok := w.kb.Jurisdiction(code)
	if !ok {
		return JurisdictionProfile{}, false
	}
	return JurisdictionProfile{
		Code:      j.Code,
		Name:      j.Name[knowledge.English],
		NameZH:    j.Name[knowledge.Chinese],
		KeyLaws:   j.KeyLaws,
		RiskFocus: nonNil(j.RiskFocus),
		Notes:     j.Notes,
	}, true
}

func (w *KnowledgeWorker) patternDetails(input json.RawMessage) ([]byte, error) {
	var req struct {
		PatternID *string `json:"pattern_id"`
	}
	if err := decodeArgs(input, &req); err != nil {
		return nil, err
	}
	if req.PatternID == nil {
		return nil, rpcerr.MissingField("pattern_id")
	}

	details, ok := w.PatternDetails(*req.PatternID)
	if !ok {
		return json.Marshal(unknownKey{
			Error:     "Unknown pattern: " + *req.PatternID,
			Available: w.kb.PatternIDs(),
		})
	}
	return json.Marshal(details)
}

func (w *KnowledgeWorker) jurisdictionKnowledge(input json.RawMessage) ([]byte, error) {
	var req struct {
		Jurisdiction *string `json:"jurisdiction"`
	}
	if err := decodeArgs(input, &req); err != nil {
		return nil, err
	}
	if req.Jurisdiction == nil {
		return nil, rpcerr.MissingField("jurisdiction")
	}

	profile, ok := w.JurisdictionProfile(*req.Jurisdiction)
	if !ok {
		return json.Marshal(unknownKey{
			Error:     "Unknown jurisdiction: " + strings.TrimSpace(*req.Jurisdiction),
			Available: w.kb.JurisdictionCodes(),
		})
	}
	return json.Marshal(profile)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
