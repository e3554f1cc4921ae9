package parser

import (
	"strings"

	"github.com/introduceourtown/townrec/pkg/models"
)

var _ models.Parser = &SingleLineColonParser{}

// SingleLineColonParser reads "location: description" lines followed by a keyword line.
// Once a keyword line is seen, colon-splitting stops for the rest of the text, so a
// location line placed after the keywords is ignored.
type SingleLineColonParser struct {
	keywords keywordMatcher
}

func (p *SingleLineColonParser) Mode() models.ParseMode {
	return models.ParseModeSingleLineColon
}

func (p *SingleLineColonParser) Parse(raw string) models.ParseResult {
	var res models.ParseResult
	keywordSection := false

	for _, line := range lines(raw) {
		if kws, ok := p.keywords.match(line); ok {
			keywordSection = true
			res.Keywords = append(res.Keywords, kws...)
			continue
		}
		if keywordSection {
			continue
		}
		if location, description, found := strings.Cut(line, ":"); found {
			emit(&res, location, description)
		}
	}

	return res
}
