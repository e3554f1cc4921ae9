package parser

import (
	"strings"

	"github.com/introduceourtown/townrec/pkg/models"
)

var _ models.Parser = &NumberedListParser{}

// NumberedListParser treats every line starting with a digit as one recommendation.
// The text after the first space is used for both location and description.
type NumberedListParser struct {
	keywords keywordMatcher
}

func (p *NumberedListParser) Mode() models.ParseMode {
	return models.ParseModeNumberedList
}

func (p *NumberedListParser) Parse(raw string) models.ParseResult {
	var res models.ParseResult

	for _, line := range lines(raw) {
		if kws, ok := p.keywords.match(line); ok {
			res.Keywords = append(res.Keywords, kws...)
			continue
		}
		if line[0] < '0' || line[0] > '9' {
			continue
		}
		_, text, found := strings.Cut(line, " ")
		if !found {
			continue
		}
		emit(&res, text, text)
	}

	return res
}
