// Package decision inspects a case detail page: header, parties, movement
// and result blocks, then runs the cascade that decides whether a decision
// document exists and what kind it is.
package decision

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"dario.cat/mergo"

	"courtparser-engine/internal/scrape/util"
)

// Decision types as published.
const (
	TypeDecision   = "Решение"
	TypeMotivated  = "Мотивированное решение"
	TypeRuling     = "Определение"
	TypeResolution = "Постановление"
	TypeOrder      = "Судебный приказ"
	TypeAct        = "Судебный акт"
	TypeDocument   = "Документ"
)

const federationPhrase = "именем российской федерации"

// LinkType maps a keyword in a download button's text to a decision type.
type LinkType struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Type    string `yaml:"type" json:"type"`
}

// Rules is the single source of truth for decision markers and thresholds.
// Config may override any field; zero fields keep the defaults.
type Rules struct {
	Required    []string `yaml:"required" json:"required"`
	Optional    []string `yaml:"optional" json:"optional"`
	MinRequired int      `yaml:"min_required" json:"min_required"`
	MinOptional int      `yaml:"min_optional" json:"min_optional"`

	FileExtensions []string   `yaml:"file_extensions" json:"file_extensions"`
	DecisionPath   string     `yaml:"decision_path" json:"decision_path"`
	LinkKeywords   []string   `yaml:"link_keywords" json:"link_keywords"`
	LinkTypes      []LinkType `yaml:"link_types" json:"link_types"`

	MinParagraphs  int `yaml:"min_paragraphs" json:"min_paragraphs"`
	MaxParagraphs  int `yaml:"max_paragraphs" json:"max_paragraphs"`
	MinFragmentLen int `yaml:"min_fragment_len" json:"min_fragment_len"`
	MinFragments   int `yaml:"min_fragments" json:"min_fragments"`

	// PageIndicators gate the whole-page fallback.
	PageIndicators []string `yaml:"page_indicators" json:"page_indicators"`
}

func DefaultRules() Rules {
	return Rules{
		Required: []string{
			federationPhrase,
			"решил:", "решила:",
			"определил:", "определила:",
			"постановил:", "постановила:",
			"установил:", "установила:",
		},
		Optional: []string{
			"суд", "судья", "рассмотрев", "заявление", "иск", "дело №",
			"председательствующий", "решение", "определение", "постановление",
			"удовлетворить", "отказать", "истец", "ответчик",
		},
		MinRequired: 1,
		MinOptional: 3,

		FileExtensions: []string{".doc", ".docx", ".pdf", ".rtf"},
		DecisionPath:   "/decisions/",
		LinkKeywords:   []string{"решение", "определение", "постановление", "приказ", "мотивированное"},
		LinkTypes: []LinkType{
			{"мотивированное решение", TypeMotivated},
			{"решение", TypeDecision},
			{"определение", TypeRuling},
			{"постановление", TypeResolution},
			{"приказ", TypeOrder},
		},

		MinParagraphs:  5,
		MaxParagraphs:  20,
		MinFragmentLen: 10,
		MinFragments:   3,

		PageIndicators: []string{"р е ш е н и е", "о п р е д е л е н и е", federationPhrase},
	}
}

// With returns the rules with the non-zero fields of override applied.
func (r Rules) With(override Rules) (Rules, error) {
	out := r
	if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
		return r, fmt.Errorf("merge decision rules: %w", err)
	}
	return out, nil
}

func normalize(text string) string {
	return util.Lower(util.CleanText(text))
}

func countHits(lower string, markers []string) int {
	n := 0
	for _, m := range markers {
		if strings.Contains(lower, util.Lower(m)) {
			n++
		}
	}
	return n
}

// Validate reports whether text reads like a judicial decision: enough
// required markers and enough optional ones. Adding markers never turns an
// accepted text into a rejected one.
func (r Rules) Validate(text string) bool {
	l := normalize(text)
	if l == "" {
		return false
	}
	return countHits(l, r.Required) >= r.MinRequired && countHits(l, r.Optional) >= r.MinOptional
}

// Classify names the document type of accepted text, or returns "" when the
// text cannot be classified (and must be treated as no decision).
func (r Rules) Classify(text string) string {
	l := normalize(text)
	fed := strings.Contains(l, federationPhrase)
	has := func(terms ...string) bool { return util.ContainsAny(l, terms...) }

	switch {
	case has("р е ш е н и е") || (has("решение") && fed):
		return TypeDecision
	case has("о п р е д е л е н и е") || (has("определение") && fed):
		return TypeRuling
	case has("п о с т а н о в л е н и е") || (has("постановление") && fed):
		return TypeResolution
	case has("приказ") && fed:
		return TypeOrder
	case has("мотивированное решение"):
		return TypeMotivated
	case has("решил:", "решила:"):
		return TypeDecision
	case has("определил:", "определила:"):
		return TypeRuling
	case has("постановил:", "постановила:"):
		return TypeResolution
	case fed:
		return TypeAct
	}
	return ""
}

// TypeFromLinkText maps download-button text to a type, most specific first.
func (r Rules) TypeFromLinkText(text string) string {
	l := normalize(text)
	for _, lt := range r.LinkTypes {
		if strings.Contains(l, util.Lower(lt.Keyword)) {
			return lt.Type
		}
	}
	return TypeDocument
}

// AcceptsLink applies the three file-link conditions: known extension,
// decisions path and a decision keyword in the text.
func (r Rules) AcceptsLink(href, text string) bool {
	ext := util.Extension(href)
	okExt := false
	for _, e := range r.FileExtensions {
		if ext == strings.ToLower(e) {
			okExt = true
			break
		}
	}
	if !okExt || !strings.Contains(href, r.DecisionPath) {
		return false
	}
	return util.ContainsAny(normalize(text), r.LinkKeywords...)
}

var decisionDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d{1,2}\s+[а-яё]+\s+\d{4}\s+года`),
	regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
}

// ExtractDecisionDate returns the first date in text that parses, trying
// long-form Russian dates, then dd.mm.yyyy, then ISO dates.
func ExtractDecisionDate(text string) *time.Time {
	for _, re := range decisionDatePatterns {
		for _, m := range re.FindAllString(text, -1) {
			if t := util.ParseDate(m); t != nil {
				return t
			}
		}
	}
	return nil
}
