package parser

import (
	"strings"
	"unicode"

	"github.com/introduceourtown/townrec/pkg/models"
)

var _ models.Parser = &SuffixFilterParser{}

// SuffixFilterParser collects every word ending in an administrative-unit suffix
// such as "-dong" or "-gu". It does not look for keywords or descriptions.
type SuffixFilterParser struct {
	suffixes []string
}

func NewSuffixFilterParser(suffixes []string) *SuffixFilterParser {
	lowered := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			lowered = append(lowered, s)
		}
	}
	return &SuffixFilterParser{suffixes: lowered}
}

func (p *SuffixFilterParser) Mode() models.ParseMode {
	return models.ParseModeSuffixFilter
}

func (p *SuffixFilterParser) Parse(raw string) models.ParseResult {
	var res models.ParseResult

	for _, token := range strings.Fields(raw) {
		token = strings.TrimFunc(token, isPunctOrSymbol)
		if p.hasSuffix(token) {
			emit(&res, token, "")
		}
	}

	return res
}

// hasSuffix requires a non-empty stem, so a bare "-gu" is not a location.
func (p *SuffixFilterParser) hasSuffix(token string) bool {
	lower := strings.ToLower(token)
	for _, s := range p.suffixes {
		if len(lower) > len(s) && strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func isPunctOrSymbol(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
