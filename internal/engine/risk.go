package engine

import (
	"sort"
	"strings"

	"github.com/ericksa/contractreview/internal/knowledge"
)

// RiskMatch is one risk pattern found in a contract, localized.
type RiskMatch struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Severity        knowledge.Severity `json:"severity"`
	Description     string             `json:"description"`
	Recommendation  string             `json:"recommendation"`
	MatchedKeywords []string           `json:"matched_keywords"`
	Context         string             `json:"context"`
}

type ScanSummary struct {
	Total            int                `json:"total"`
	High             int                `json:"high"`
	Medium           int                `json:"medium"`
	Low              int                `json:"low"`
	DetectedLanguage knowledge.Language `json:"detected_language"`
}

type ScanResult struct {
	Summary ScanSummary `json:"summary"`
	Risks   []RiskMatch `json:"risks"`
}

// ScanRisks matches every risk pattern against text. Results are ordered
// high, medium, low and keep catalog order within a severity.
func (e *Engine) ScanRisks(text string) ScanResult {
	lang := DetectLanguage(text)
	folded := fold(text)
	var sents []string

	risks := []RiskMatch{}
	for _, p := range e.kb.Patterns() {
		matched := matchKeywords(p, text, folded)
		if len(matched) == 0 {
			continue
		}
		if sents == nil {
			sents = sentences(text)
		}
		risks = append(risks, RiskMatch{
			ID:              p.ID,
			Name:            p.Name.Get(lang),
			Severity:        p.Severity,
			Description:     p.Description.Get(lang),
			Recommendation:  p.Recommendation.Get(lang),
			MatchedKeywords: matched,
			Context:         contextFor(sents, matched[0]),
		})
	}

	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].Severity.Rank() < risks[j].Severity.Rank()
	})

	summary := ScanSummary{Total: len(risks), DetectedLanguage: lang}
	for _, r := range risks {
		switch r.Severity {
		case knowledge.SeverityHigh:
			summary.High++
		case knowledge.SeverityMedium:
			summary.Medium++
		case knowledge.SeverityLow:
			summary.Low++
		}
	}
	return ScanResult{Summary: summary, Risks: risks}
}

// matchKeywords returns every keyword of p found in text, English first.
func matchKeywords(p knowledge.RiskPattern, text, folded string) []string {
	var matched []string
	for _, lang := range knowledge.KeywordLanguages {
		for _, kw := range p.Keywords[lang] {
			if kw == "" {
				continue
			}
			if containsCue(lang, text, folded, kw) {
				matched = append(matched, kw)
			}
		}
	}
	return matched
}

func containsCue(lang knowledge.Language, text, folded, cue string) bool {
	if lang.CaseSensitive() {
		return strings.Contains(text, cue)
	}
	return strings.Contains(folded, fold(cue))
}

// contextFor returns the first sentence containing keyword, capped in length.
// CJK keywords compare exactly, others ignore case.
func contextFor(sents []string, keyword string) string {
	exact := hasCJK(keyword)
	needle := keyword
	if !exact {
		needle = fold(keyword)
	}
	for _, s := range sents {
		hay := s
		if !exact {
			hay = fold(s)
		}
		if strings.Contains(hay, needle) {
			return truncateRunes(s, maxContextRunes)
		}
	}
	return ""
}
