package parser

import (
	"regexp"

	"github.com/introduceourtown/townrec/pkg/models"
)

var (
	locationLabel     = prefixPattern("location:", true)
	descriptionLabel  = prefixPattern("description:", true)
	inlineDescription = regexp.MustCompile(`(?i)description:`)
)

var _ models.Parser = &LabeledMultiLineParser{}

// LabeledMultiLineParser reads
//
//	Location: Itaewon-dong, Mapo-gu
//	Description: trendy area
//
// pairing the description with every location of the preceding Location line.
// "Location: X Description: Y" on a single line is read the same way.
// Locations never followed by a description are emitted with an empty one.
type LabeledMultiLineParser struct {
	keywords keywordMatcher
}

func (p *LabeledMultiLineParser) Mode() models.ParseMode {
	return models.ParseModeLabeledMultiLine
}

func (p *LabeledMultiLineParser) Parse(raw string) models.ParseResult {
	var res models.ParseResult
	var pending []string

	flush := func(description string) {
		for _, location := range pending {
			emit(&res, location, description)
		}
		pending = nil
	}

	for _, line := range lines(raw) {
		if kws, ok := p.keywords.match(line); ok {
			res.Keywords = append(res.Keywords, kws...)
			continue
		}

		if rest, ok := cutPrefix(line, locationLabel); ok {
			flush("")
			locations, description, inline := cutLabel(rest, inlineDescription)
			pending = splitList(locations)
			if inline {
				flush(description)
			}
			continue
		}

		if rest, ok := cutPrefix(line, descriptionLabel); ok {
			flush(rest)
		}
	}
	flush("")

	return res
}

// cutLabel splits s around the first match of label.
func cutLabel(s string, label *regexp.Regexp) (before, after string, found bool) {
	loc := label.FindStringIndex(s)
	if loc == nil {
		return s, "", false
	}
	return s[:loc[0]], s[loc[1]:], true
}
