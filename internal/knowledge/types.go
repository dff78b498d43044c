package knowledge

import "fmt"

// Language identifies which half of a bilingual field is shown to the caller.
type Language string

const (
	English Language = "en"
	Chinese Language = "zh"
	Mixed   Language = "mixed"
)

// Display returns the language whose text is surfaced in responses.
// Mixed documents are answered in English.
func (l Language) Display() Language {
	if l == Chinese {
		return Chinese
	}
	return English
}

// CaseSensitive reports whether keywords in this language are matched exactly.
// CJK has no letter case, so Chinese cues are compared byte for byte.
func (l Language) CaseSensitive() bool {
	return l == Chinese
}

// Severity ranks a risk pattern. Ordering is high, medium, low.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank returns the sort position of the severity, lowest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}

func (s Severity) Valid() bool {
	return s.Rank() < 3
}

// Text is a display string keyed by language.
type Text map[Language]string

// Get returns the text for lang, falling back to English.
func (t Text) Get(lang Language) string {
	if s, ok := t[lang.Display()]; ok && s != "" {
		return s
	}
	return t[English]
}

func (t Text) validate(field string) error {
	if t[English] == "" {
		return fmt.Errorf("%s: missing %q text", field, English)
	}
	if t[Chinese] == "" {
		return fmt.Errorf("%s: missing %q text", field, Chinese)
	}
	return nil
}

// RiskPattern is a category of contractual risk detected by keyword.
type RiskPattern struct {
	ID             string                `yaml:"id"`
	Severity       Severity              `yaml:"severity"`
	Name           Text                  `yaml:"name"`
	Description    Text                  `yaml:"description"`
	Recommendation Text                  `yaml:"recommendation"`
	Keywords       map[Language][]string `yaml:"keywords"`
}

// KeywordLanguages is the order in which keyword lists are tried.
var KeywordLanguages = []Language{English, Chinese}

// KeyLaw is a statute or regulation relevant to a jurisdiction.
type KeyLaw struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Jurisdiction holds static legal reference data for a region.
type Jurisdiction struct {
	Code      string   `yaml:"code"`
	Name      Text     `yaml:"name"`
	KeyLaws   []KeyLaw `yaml:"key_laws"`
	RiskFocus []string `yaml:"risk_focus"`
	Notes     string   `yaml:"notes"`
}

// ChecklistItem is one contractual element whose presence is tested.
type ChecklistItem struct {
	ID       string                `yaml:"id"`
	Name     Text                  `yaml:"name"`
	Patterns map[Language][]string `yaml:"patterns"`
	Regex    []string              `yaml:"regex"`
}
