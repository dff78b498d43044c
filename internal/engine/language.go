// Package engine implements the deterministic contract scanning core: language
// detection, risk scanning, completeness checking and context detection.
//
// Every operation is a pure function of the input text and a read-only
// knowledge.Base, so an Engine may be shared across goroutines.
package engine

import (
	"unicode"

	"github.com/ericksa/contractreview/internal/knowledge"
)

const (
	chineseRatio = 0.3
	mixedRatio   = 0.1
)

// DetectLanguage classifies text by the share of CJK ideographs among its
// non-whitespace runes. Empty text is English.
func DetectLanguage(text string) knowledge.Language {
	var cjk, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if isCJK(r) {
			cjk++
		}
	}
	if total == 0 {
		return knowledge.English
	}
	ratio := float64(cjk) / float64(total)
	switch {
	case ratio > chineseRatio:
		return knowledge.Chinese
	case ratio > mixedRatio:
		return knowledge.Mixed
	default:
		return knowledge.English
	}
}

// Engine runs the scanners against one knowledge base.
type Engine struct {
	kb *knowledge.Base
}

func New(kb *knowledge.Base) *Engine {
	return &Engine{kb: kb}
}

// Knowledge returns the catalog the engine scans with.
func (e *Engine) Knowledge() *knowledge.Base {
	return e.kb
}
