package engine

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ericksa/contractreview/internal/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	kb, err := knowledge.Default()
	require.NoError(t, err)
	return New(kb)
}

func findRisk(res ScanResult, id string) (RiskMatch, bool) {
	for _, r := range res.Risks {
		if r.ID == id {
			return r, true
		}
	}
	return RiskMatch{}, false
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want knowledge.Language
	}{
		{"empty", "", knowledge.English},
		{"whitespace only", "  \n\t ", knowledge.English},
		{"english", "This Agreement is made between the parties.", knowledge.English},
		{"chinese", "甲方与乙方签订本合同。", knowledge.Chinese},
		{"mixed", "Party A 甲方乙方 signs", knowledge.Mixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

func TestScanPerpetualConfidentiality(t *testing.T) {
	e := newTestEngine(t)
	res := e.ScanRisks("Employee agrees to keep all company information confidential in perpetuity.")

	r, ok := findRisk(res, "perpetual_confidentiality")
	require.True(t, ok)
	assert.Equal(t, knowledge.SeverityMedium, r.Severity)
	assert.Contains(t, r.MatchedKeywords, "in perpetuity")
	assert.Equal(t, "Employee agrees to keep all company information confidential in perpetuity", r.Context)
	assert.Equal(t, "Perpetual Confidentiality", r.Name)
}

func TestScanUnfairTermination(t *testing.T) {
	e := newTestEngine(t)
	res := e.ScanRisks("The company may terminate this agreement at any time without cause.")

	r, ok := findRisk(res, "unfair_termination")
	require.True(t, ok)
	assert.Equal(t, knowledge.SeverityMedium, r.Severity)
	assert.Equal(t, []string{"without cause"}, r.MatchedKeywords)
}

func TestScanChineseNonCompete(t *testing.T) {
	e := newTestEngine(t)
	res := e.ScanRisks("员工离职后两年内不得竞争。")

	assert.Equal(t, knowledge.Chinese, res.Summary.DetectedLanguage)
	r, ok := findRisk(res, "excessive_noncompete")
	require.True(t, ok)
	assert.Equal(t, []string{"不得竞争"}, r.MatchedKeywords)
	assert.Equal(t, "过度的竞业限制", r.Name)
	assert.True(t, hasCJK(r.Description))
	assert.True(t, hasCJK(r.Recommendation))
	assert.Equal(t, "员工离职后两年内不得竞争", r.Context)
}

func TestScanEmpty(t *testing.T) {
	e := newTestEngine(t)
	res := e.ScanRisks("")
	assert.Empty(t, res.Risks)
	assert.Equal(t, 0, res.Summary.Total)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"risks":[]`)
}

func TestScanSeverityOrdering(t *testing.T) {
	e := newTestEngine(t)
	text := "Any dispute is subject to the exclusive jurisdiction of the courts. " +
		"This agreement shall automatically renew each year. " +
		"Contractor shall indemnify and hold harmless the Client. " +
		"Supplier accepts unlimited liability."
	res := e.ScanRisks(text)

	var ids []string
	for _, r := range res.Risks {
		ids = append(ids, r.ID)
	}
	// high block in catalog order, then medium, then low
	assert.Equal(t, []string{"unlimited_liability", "broad_indemnification", "auto_renewal", "jurisdiction_waiver"}, ids)
	assert.Equal(t, 2, res.Summary.High)
	assert.Equal(t, 1, res.Summary.Medium)
	assert.Equal(t, 1, res.Summary.Low)
	assert.Equal(t, 4, res.Summary.Total)
}

func TestScanCollectsAllKeywords(t *testing.T) {
	e := newTestEngine(t)
	res := e.ScanRisks("The NON-COMPETE clause (竞业限制) is a covenant not to compete.")

	r, ok := findRisk(res, "excessive_noncompete")
	require.True(t, ok)
	assert.Equal(t, []string{"non-compete", "covenant not to compete", "竞业限制"}, r.MatchedKeywords)
	// context comes from the first matched keyword only
	assert.Equal(t, "The NON-COMPETE clause (竞业限制) is a covenant not to compete", r.Context)
}

func TestScanKeywordCompleteness(t *testing.T) {
	e := newTestEngine(t)
	for _, p := range e.Knowledge().Patterns() {
		for _, lang := range knowledge.KeywordLanguages {
			for _, kw := range p.Keywords[lang] {
				text := "Preamble. " + strings.ToUpper(kw) + " applies."
				if lang == knowledge.Chinese {
					text = "前言。" + kw + "适用。"
				}
				r, ok := findRisk(e.ScanRisks(text), p.ID)
				if assert.True(t, ok, "keyword %q of %s", kw, p.ID) {
					assert.Contains(t, r.MatchedKeywords, kw)
				}
			}
		}
	}
}

func TestScanNoFalseMatch(t *testing.T) {
	e := newTestEngine(t)
	res := e.ScanRisks("The weather today is pleasant and the office opens at nine.")
	assert.Empty(t, res.Risks)
}

func TestScanContextTruncated(t *testing.T) {
	e := newTestEngine(t)
	long := strings.Repeat("word ", 60) + "hold harmless " + strings.Repeat("tail ", 20)
	r, ok := findRisk(e.ScanRisks(long), "broad_indemnification")
	require.True(t, ok)
	assert.LessOrEqual(t, len([]rune(r.Context)), maxContextRunes)
	assert.Equal(t, strings.TrimSpace(r.Context), r.Context)
}

func TestScanDeterministic(t *testing.T) {
	e := newTestEngine(t)
	text := "Employee shall not compete and agrees to liquidated damages. 本合同自动续约。"
	first, err := json.Marshal(e.ScanRisks(text))
	require.NoError(t, err)
	second, err := json.Marshal(e.ScanRisks(text))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompletenessEmpty(t *testing.T) {
	e := newTestEngine(t)
	res := e.CheckCompleteness("")

	assert.Equal(t, "0/12 (0%)", res.Score)
	assert.Equal(t, 0, res.Found)
	assert.Equal(t, 12, res.Total)
	assert.Equal(t, 0, res.Percentage)
	require.Len(t, res.Checklist, 12)
	for _, row := range res.Checklist {
		assert.False(t, row.Found, row.ID)
		assert.Empty(t, row.Evidence)
	}
	assert.Len(t, res.MissingElements, 12)
	assert.Equal(t, "Parties", res.MissingElements[0])
}

func TestCompletenessEvidenceWindow(t *testing.T) {
	e := newTestEngine(t)
	text := "Some introductory words here. This Agreement shall be subject to force majeure provisions set out in the schedule attached hereto and nothing else."
	res := e.CheckCompleteness(text)

	var row ChecklistResult
	for _, r := range res.Checklist {
		if r.ID == "force_majeure" {
			row = r
		}
	}
	require.True(t, row.Found)
	runes := []rune(text)
	start := strings.Index(text, "force majeure")
	want := strings.TrimSpace(string(runes[start-evidenceBefore : start+len("force majeure")+evidenceAfter]))
	assert.Equal(t, want, row.Evidence)
}

func TestCompletenessChineseAndRegex(t *testing.T) {
	e := newTestEngine(t)
	res := e.CheckCompleteness("甲方：某某公司\n本合同于2024年1月15日订立。")

	found := map[string]ChecklistResult{}
	for _, r := range res.Checklist {
		found[r.ID] = r
	}
	assert.True(t, found["parties"].Found)
	assert.True(t, found["effective_date"].Found)
	assert.Contains(t, found["effective_date"].Evidence, "2024年1月15日")
	assert.Equal(t, "合同当事人", found["parties"].Element)
	assert.Contains(t, res.MissingElements, "不可抗力")
}

func TestCompletenessMonotonic(t *testing.T) {
	e := newTestEngine(t)
	base := "This agreement is made by and between Acme and Beta."
	before := e.CheckCompleteness(base).Found
	after := e.CheckCompleteness(base + " Governed by the laws of Delaware. Force majeure applies.").Found
	assert.GreaterOrEqual(t, after, before)
	assert.Greater(t, after, before)
}

func TestPercentageGuard(t *testing.T) {
	assert.Equal(t, 0, percentage(0, 0))
	assert.Equal(t, 33, percentage(4, 12))
	assert.Equal(t, 100, percentage(12, 12))
}

func TestDetectContext(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name         string
		text         string
		jurisdiction string
		contractType string
	}{
		{"california non-compete", "This employment agreement is governed by California law and includes a non-compete.", "us", ContractEmployment},
		{"chinese lease", "出租人与承租人签订本租赁合同。", "cn", ContractLease},
		{"gdpr services", "The processor provides consulting under the GDPR.", "eu", ContractService},
		{"english law nda", "This non-disclosure agreement is subject to English law.", "uk", ContractNDA},
		{"purchase fallback us", "The buyer shall pay the seller on delivery.", "us", ContractPurchase},
		{"chinese fallback", "双方同意如下条款。", "cn", ContractGeneral},
		{"usage is not usa", "Usage of the current premises is permitted.", "us", ContractLease},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.DetectContext(tt.text)
			assert.Equal(t, tt.jurisdiction, res.LikelyJurisdiction)
			assert.Equal(t, tt.contractType, res.ContractType)
		})
	}
}

func TestDetectContextWordCount(t *testing.T) {
	e := newTestEngine(t)
	res := e.DetectContext("  one two\tthree\nfour  ")
	assert.Equal(t, 4, res.WordCount)
	assert.Equal(t, knowledge.English, res.DetectedLanguage)
	assert.Equal(t, 0, e.DetectContext("").WordCount)
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("based in the usa.", "usa"))
	assert.False(t, containsWord("usage rights", "usa"))
	assert.False(t, containsWord("the current term", "rent"))
	assert.True(t, containsWord("rent is due", "rent"))
	assert.True(t, containsWord("see u.s. law", "u.s."))
	assert.True(t, containsWord("加州usa", "usa"))
	assert.False(t, containsWord("", "usa"))
}
