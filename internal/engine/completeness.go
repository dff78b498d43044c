package engine

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ericksa/contractreview/internal/knowledge"
)

type ChecklistResult struct {
	ID       string `json:"id"`
	Element  string `json:"element"`
	Found    bool   `json:"found"`
	Evidence string `json:"evidence,omitempty"`
}

type CompletenessResult struct {
	Score           string            `json:"score"`
	Found           int               `json:"found"`
	Total           int               `json:"total"`
	Percentage      int               `json:"percentage"`
	Checklist       []ChecklistResult `json:"checklist"`
	MissingElements []string          `json:"missing_elements"`
}

// CheckCompleteness tests each checklist item in order. For an item, English
// cues are tried first, then Chinese cues, then regex cues; the first hit wins.
func (e *Engine) CheckCompleteness(text string) CompletenessResult {
	lang := DetectLanguage(text)
	folded := fold(text)
	runes := []rune(text)

	items := e.kb.Checklist()
	res := CompletenessResult{
		Total:           len(items),
		Checklist:       make([]ChecklistResult, 0, len(items)),
		MissingElements: []string{},
	}
	for _, item := range items {
		row := ChecklistResult{ID: item.ID, Element: item.Name.Get(lang)}
		if start, end, ok := e.findItem(item, text, folded); ok {
			row.Found = true
			row.Evidence = window(runes, start, end, evidenceBefore, evidenceAfter)
			res.Found++
		} else {
			res.MissingElements = append(res.MissingElements, row.Element)
		}
		res.Checklist = append(res.Checklist, row)
	}

	res.Percentage = percentage(res.Found, res.Total)
	res.Score = fmt.Sprintf("%d/%d (%d%%)", res.Found, res.Total, res.Percentage)
	return res
}

// findItem returns the rune span of the first cue of item found in text.
func (e *Engine) findItem(item knowledge.ChecklistItem, text, folded string) (int, int, bool) {
	for _, cue := range item.Patterns[knowledge.English] {
		if cue == "" {
			continue
		}
		c := fold(cue)
		if i := strings.Index(folded, c); i >= 0 {
			start := runeOffset(folded, i)
			return start, start + utf8.RuneCountInString(c), true
		}
	}
	for _, cue := range item.Patterns[knowledge.Chinese] {
		if cue == "" {
			continue
		}
		if i := strings.Index(text, cue); i >= 0 {
			start := runeOffset(text, i)
			return start, start + utf8.RuneCountInString(cue), true
		}
	}
	for _, re := range e.kb.Expressions(item.ID) {
		if loc := re.FindStringIndex(text); loc != nil {
			return runeOffset(text, loc[0]), runeOffset(text, loc[1]), true
		}
	}
	return 0, 0, false
}

func percentage(found, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(found) / float64(total) * 100))
}
