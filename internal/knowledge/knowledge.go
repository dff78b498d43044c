// Package knowledge holds the static contract-review catalog: risk patterns,
// jurisdiction profiles and the completeness checklist.
//
// The catalog is plain YAML embedded in the binary. A directory may override
// any of the three files so the catalog can be extended without a rebuild.
// A Base is immutable once loaded and safe for concurrent use.
package knowledge

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	RiskPatternsFile  = "risk_patterns.yaml"
	JurisdictionsFile = "jurisdictions.yaml"
	ChecklistFile     = "checklist.yaml"
)

//go:embed data/*.yaml
var embedded embed.FS

// Base is the loaded, validated catalog.
type Base struct {
	patterns      []RiskPattern
	patternIndex  map[string]int
	jurisdictions []Jurisdiction
	jurisIndex    map[string]int
	checklist     []ChecklistItem
	expressions   map[string][]*regexp.Regexp
}

var (
	defaultBase *Base
	defaultErr  error
	defaultOnce sync.Once
)

// Default returns the catalog built from the embedded data only.
func Default() (*Base, error) {
	defaultOnce.Do(func() {
		defaultBase, defaultErr = Load("")
	})
	return defaultBase, defaultErr
}

// MustDefault is Default for callers that cannot continue without a catalog.
func MustDefault() *Base {
	kb, err := Default()
	if err != nil {
		panic(err)
	}
	return kb
}

// Load builds a catalog from the embedded data, replacing each file that also
// exists in overrideDir. An empty overrideDir uses the embedded data alone.
func Load(overrideDir string) (*Base, error) {
	data, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	var override fs.FS
	if overrideDir != "" {
		info, err := os.Stat(overrideDir)
		if err != nil {
			return nil, fmt.Errorf("knowledge dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("knowledge dir %s is not a directory", overrideDir)
		}
		override = os.DirFS(overrideDir)
	}
	return LoadFS(data, override)
}

// LoadFS builds a catalog from base, preferring files found in override.
// override may be nil.
func LoadFS(base, override fs.FS) (*Base, error) {
	kb := &Base{
		patternIndex: make(map[string]int),
		jurisIndex:   make(map[string]int),
		expressions:  make(map[string][]*regexp.Regexp),
	}
	if err := decodeFile(base, override, RiskPatternsFile, &kb.patterns); err != nil {
		return nil, err
	}
	if err := decodeFile(base, override, JurisdictionsFile, &kb.jurisdictions); err != nil {
		return nil, err
	}
	if err := decodeFile(base, override, ChecklistFile, &kb.checklist); err != nil {
		return nil, err
	}
	if err := kb.validate(); err != nil {
		return nil, err
	}
	return kb, nil
}

func decodeFile(base, override fs.FS, name string, out any) error {
	var raw []byte
	var err error
	if override != nil {
		raw, err = fs.ReadFile(override, name)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", name, err)
		}
	}
	if raw == nil {
		raw, err = fs.ReadFile(base, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (kb *Base) validate() error {
	if len(kb.patterns) == 0 {
		return errors.New("risk patterns: catalog is empty")
	}
	for i, p := range kb.patterns {
		if p.ID == "" {
			return fmt.Errorf("risk patterns: entry %d has no id", i)
		}
		if _, dup := kb.patternIndex[p.ID]; dup {
			return fmt.Errorf("risk patterns: duplicate id %q", p.ID)
		}
		if !p.Severity.Valid() {
			return fmt.Errorf("risk pattern %s: unknown severity %q", p.ID, p.Severity)
		}
		for field, text := range map[string]Text{"name": p.Name, "description": p.Description, "recommendation": p.Recommendation} {
			if err := text.validate(field); err != nil {
				return fmt.Errorf("risk pattern %s: %w", p.ID, err)
			}
		}
		if err := checkCueLanguages(p.Keywords); err != nil {
			return fmt.Errorf("risk pattern %s: keywords: %w", p.ID, err)
		}
		if countCues(p.Keywords) == 0 {
			return fmt.Errorf("risk pattern %s: no keywords", p.ID)
		}
		kb.patternIndex[p.ID] = i
	}

	for i, j := range kb.jurisdictions {
		if j.Code == "" || j.Code != strings.ToLower(j.Code) {
			return fmt.Errorf("jurisdictions: entry %d has invalid code %q", i, j.Code)
		}
		if _, dup := kb.jurisIndex[j.Code]; dup {
			return fmt.Errorf("jurisdictions: duplicate code %q", j.Code)
		}
		if err := j.Name.validate("name"); err != nil {
			return fmt.Errorf("jurisdiction %s: %w", j.Code, err)
		}
		kb.jurisIndex[j.Code] = i
	}

	seen := make(map[string]bool)
	for i, item := range kb.checklist {
		if item.ID == "" {
			return fmt.Errorf("checklist: entry %d has no id", i)
		}
		if seen[item.ID] {
			return fmt.Errorf("checklist: duplicate id %q", item.ID)
		}
		seen[item.ID] = true
		if err := item.Name.validate("name"); err != nil {
			return fmt.Errorf("checklist item %s: %w", item.ID, err)
		}
		if err := checkCueLanguages(item.Patterns); err != nil {
			return fmt.Errorf("checklist item %s: patterns: %w", item.ID, err)
		}
		if countCues(item.Patterns) == 0 && len(item.Regex) == 0 {
			return fmt.Errorf("checklist item %s: no patterns", item.ID)
		}
		for _, expr := range item.Regex {
			re, err := regexp.Compile(expr)
			if err != nil {
				return fmt.Errorf("checklist item %s: bad regex %q: %w", item.ID, expr, err)
			}
			kb.expressions[item.ID] = append(kb.expressions[item.ID], re)
		}
	}
	return nil
}

// checkCueLanguages rejects cue lists under a language the matcher never reads.
func checkCueLanguages(cues map[Language][]string) error {
	for lang := range cues {
		if !slices.Contains(KeywordLanguages, lang) {
			return fmt.Errorf("unsupported language %q (want %s or %s)", lang, English, Chinese)
		}
	}
	return nil
}

func countCues(cues map[Language][]string) int {
	n := 0
	for _, list := range cues {
		for _, c := range list {
			if c != "" {
				n++
			}
		}
	}
	return n
}

// Patterns returns the risk patterns in catalog order.
func (kb *Base) Patterns() []RiskPattern {
	return kb.patterns
}

// PatternByID looks up a risk pattern.
func (kb *Base) PatternByID(id string) (RiskPattern, bool) {
	i, ok := kb.patternIndex[id]
	if !ok {
		return RiskPattern{}, false
	}
	return kb.patterns[i], true
}

// PatternIDs lists every pattern id in catalog order.
func (kb *Base) PatternIDs() []string {
	ids := make([]string, len(kb.patterns))
	for i, p := range kb.patterns {
		ids[i] = p.ID
	}
	return ids
}

// Jurisdictions returns every profile in catalog order.
func (kb *Base) Jurisdictions() []Jurisdiction {
	return kb.jurisdictions
}

// Jurisdiction looks up a profile by code, ignoring case and surrounding space.
func (kb *Base) Jurisdiction(code string) (Jurisdiction, bool) {
	i, ok := kb.jurisIndex[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return Jurisdiction{}, false
	}
	return kb.jurisdictions[i], true
}

// JurisdictionCodes lists every code in catalog order.
func (kb *Base) JurisdictionCodes() []string {
	codes := make([]string, len(kb.jurisdictions))
	for i, j := range kb.jurisdictions {
		codes[i] = j.Code
	}
	return codes
}

// Checklist returns the completeness items in checklist order.
func (kb *Base) Checklist() []ChecklistItem {
	return kb.checklist
}

// Expressions returns the compiled regex cues of a checklist item.
func (kb *Base) Expressions(itemID string) []*regexp.Regexp {
	return kb.expressions[itemID]
}

// SeverityCounts tallies the catalog by severity.
func (kb *Base) SeverityCounts() map[Severity]int {
	counts := make(map[Severity]int)
	for _, p := range kb.patterns {
		counts[p.Severity]++
	}
	return counts
}

// SortedSeverities returns the severities present in the catalog, highest first.
func (kb *Base) SortedSeverities() []Severity {
	counts := kb.SeverityCounts()
	out := make([]Severity, 0, len(counts))
	for s := range counts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank() < out[j].Rank() })
	return out
}
