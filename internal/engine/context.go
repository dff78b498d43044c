package engine

import (
	"strings"

	"github.com/ericksa/contractreview/internal/knowledge"
)

const (
	ContractEmployment = "employment"
	ContractNDA        = "nda"
	ContractService    = "service"
	ContractLease      = "lease"
	ContractPurchase   = "purchase"
	ContractGeneral    = "general"
)

// cueSet is one step of a first-match cascade. Latin cues are lower case and
// match on letter boundaries in folded text; CJK cues match the raw text.
type cueSet struct {
	label string
	latin []string
	cjk   []string
}

func (c cueSet) matches(text, folded string) bool {
	for _, cue := range c.latin {
		if containsWord(folded, cue) {
			return true
		}
	}
	for _, cue := range c.cjk {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

var jurisdictionCascade = []cueSet{
	{
		label: "us",
		latin: []string{
			"united states", "u.s.", "usa", "u.s.a.",
			"california", "new york", "delaware", "texas", "florida", "washington",
			"illinois", "massachusetts", "nevada", "new jersey", "pennsylvania",
			"virginia", "colorado", "georgia", "ohio", "michigan",
		},
		cjk: []string{"美国", "加州", "加利福尼亚", "纽约", "特拉华"},
	},
	{
		label: "cn",
		latin: []string{"people's republic of china", "prc"},
		cjk:   []string{"中华人民共和国", "中国", "北京", "上海", "深圳", "广州"},
	},
	{
		label: "eu",
		latin: []string{
			"gdpr", "european union",
			"germany", "france", "netherlands", "ireland", "italy", "spain",
			"belgium", "luxembourg", "sweden", "austria", "poland", "denmark",
		},
		cjk: []string{"欧盟", "德国", "法国"},
	},
	{
		label: "uk",
		latin: []string{"united kingdom", "england", "wales", "english law", "scotland"},
		cjk:   []string{"英国"},
	},
}

var contractTypeCascade = []cueSet{
	{
		label: ContractEmployment,
		latin: []string{"employment", "employee", "employees", "employer", "employ", "employed"},
		cjk:   []string{"劳动合同", "劳动者", "雇佣", "员工", "用人单位"},
	},
	{
		label: ContractNDA,
		latin: []string{"non-disclosure", "nondisclosure", "confidentiality agreement", "nda"},
		cjk:   []string{"保密协议"},
	},
	{
		label: ContractService,
		latin: []string{"services agreement", "service agreement", "statement of work", "consulting", "contractor", "services"},
		cjk:   []string{"服务合同", "服务协议", "委托", "咨询"},
	},
	{
		label: ContractLease,
		latin: []string{"lease", "leased", "landlord", "tenant", "tenants", "rent", "rental", "premises"},
		cjk:   []string{"租赁", "出租", "承租", "租金"},
	},
	{
		label: ContractPurchase,
		latin: []string{"purchase", "purchaser", "sale of goods", "buyer", "seller", "purchase order"},
		cjk:   []string{"买卖", "采购", "购销"},
	},
}

type ContextResult struct {
	DetectedLanguage   knowledge.Language `json:"detected_language"`
	LikelyJurisdiction string             `json:"likely_jurisdiction"`
	ContractType       string             `json:"contract_type"`
	WordCount          int                `json:"word_count"`
}

// DetectContext infers language, jurisdiction and contract type from surface cues.
func (e *Engine) DetectContext(text string) ContextResult {
	lang := DetectLanguage(text)
	folded := fold(text)
	return ContextResult{
		DetectedLanguage:   lang,
		LikelyJurisdiction: detectJurisdiction(text, folded, lang),
		ContractType:       detectContractType(text, folded),
		WordCount:          len(strings.Fields(text)),
	}
}

func detectJurisdiction(text, folded string, lang knowledge.Language) string {
	for _, set := range jurisdictionCascade {
		if set.matches(text, folded) {
			return set.label
		}
	}
	if lang == knowledge.Chinese {
		return "cn"
	}
	return "us"
}

func detectContractType(text, folded string) string {
	for _, set := range contractTypeCascade {
		if set.matches(text, folded) {
			return set.label
		}
	}
	return ContractGeneral
}
