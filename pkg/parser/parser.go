// Package parser turns a raw completion into keywords and location / description pairs.
// Each response format is a separate strategy selected by configuration.
package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"dario.cat/mergo"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/models"
)

var log = internal.GetLogger()

type Options struct {
	Mode            models.ParseMode
	KeywordPrefixes []string
	// KeywordCaseInsensitive matches keyword prefixes regardless of case.
	KeywordCaseInsensitive bool
	Suffixes               []string
}

var defaultOptions = Options{
	Mode:            models.ParseModeSingleLineColon,
	KeywordPrefixes: []string{"Keywords:", "Keyword:"},
	Suffixes:        []string{"-dong", "-gu", "-eup"},
}

// New returns the parser strategy named by opts.Mode. Unset fields take their defaults.
func New(opts Options) (models.Parser, error) {
	if err := mergo.Merge(&opts, defaultOptions); err != nil {
		return nil, fmt.Errorf("failed to apply parser defaults: %w", err)
	}

	kw := newKeywordMatcher(opts.KeywordPrefixes, opts.KeywordCaseInsensitive)

	switch opts.Mode {
	case models.ParseModeSingleLineColon:
		return &SingleLineColonParser{keywords: kw}, nil
	case models.ParseModeLabeledMultiLine:
		return &LabeledMultiLineParser{keywords: kw}, nil
	case models.ParseModeNumberedList:
		return &NumberedListParser{keywords: kw}, nil
	case models.ParseModeSuffixFilter:
		return NewSuffixFilterParser(opts.Suffixes), nil
	default:
		return nil, fmt.Errorf("unsupported parser mode: %q", opts.Mode)
	}
}

// NewFromConfig builds a parser from the parser section of the config.
func NewFromConfig(cfg *config.Config) (models.Parser, error) {
	p, err := New(Options{
		Mode:                   models.ParseMode(cfg.Parser.Mode),
		KeywordPrefixes:        cfg.Parser.KeywordPrefixes,
		KeywordCaseInsensitive: !cfg.Parser.KeywordCaseSensitive,
		Suffixes:               cfg.Parser.Suffixes,
	})
	if err != nil {
		return nil, err
	}
	log.Infof("Using recommendation parser mode: %s", p.Mode())
	return p, nil
}

// emit appends a recommendation unless its location is blank.
func emit(res *models.ParseResult, location, description string) {
	location = strings.TrimSpace(location)
	if location == "" {
		return
	}
	res.Recommendations = append(res.Recommendations, models.Recommendation{
		Location:    location,
		Description: strings.TrimSpace(description),
	})
}

// lines returns the trimmed, non-blank lines of raw.
func lines(raw string) []string {
	split := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(split))
	for _, l := range split {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// splitList splits s on commas, trimming each piece and dropping empty ones.
func splitList(s string) []string {
	var out []string
	for _, piece := range strings.Split(s, ",") {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

type keywordMatcher struct {
	prefixes []*regexp.Regexp
}

func newKeywordMatcher(prefixes []string, caseInsensitive bool) keywordMatcher {
	sorted := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p != "" {
			sorted = append(sorted, p)
		}
	}
	// longest prefix first so "Keywords:" wins over "Keyword"
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	patterns := make([]*regexp.Regexp, len(sorted))
	for i, p := range sorted {
		patterns[i] = prefixPattern(p, caseInsensitive)
	}
	return keywordMatcher{prefixes: patterns}
}

// match reports whether line is a keyword line and returns its keywords.
func (k keywordMatcher) match(line string) ([]string, bool) {
	for _, p := range k.prefixes {
		if rest, ok := cutPrefix(line, p); ok {
			return splitList(rest), true
		}
	}
	return nil, false
}

// prefixPattern matches literal at the start of a line. Case is folded rune by
// rune, so match offsets always index the original line.
func prefixPattern(literal string, caseInsensitive bool) *regexp.Regexp {
	expr := "^" + regexp.QuoteMeta(literal)
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	return regexp.MustCompile(expr)
}

func cutPrefix(s string, prefix *regexp.Regexp) (string, bool) {
	loc := prefix.FindStringIndex(s)
	if loc == nil {
		return s, false
	}
	return s[loc[1]:], true
}
