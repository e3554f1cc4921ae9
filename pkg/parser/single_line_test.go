package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/introduceourtown/townrec/pkg/models"
)

func TestSingleLineColonParser(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		keywords []string
		recs     []models.Recommendation
	}{
		{
			name: "locations then keywords",
			raw:  "Seongsu-dong: cafes and galleries\n\nYeonnam-dong : quiet parks\nKeywords: cafe, park",
			keywords: []string{"cafe", "park"},
			recs: []models.Recommendation{
				{Location: "Seongsu-dong", Description: "cafes and galleries"},
				{Location: "Yeonnam-dong", Description: "quiet parks"},
			},
		},
		{
			name: "split on first colon only",
			raw:  "Itaewon-dong: open 10:00 to 22:00",
			recs: []models.Recommendation{
				{Location: "Itaewon-dong", Description: "open 10:00 to 22:00"},
			},
		},
		{
			name:     "lines after keywords are not locations",
			raw:      "Keywords: nightlife\nHongdae: clubs",
			keywords: []string{"nightlife"},
		},
		{
			name:     "multiple keyword lines append",
			raw:      "Mangwon-dong: market\nKeywords: food\nKeyword: market, food",
			keywords: []string{"food", "market", "food"},
			recs: []models.Recommendation{
				{Location: "Mangwon-dong", Description: "market"},
			},
		},
		{
			name: "blank location dropped",
			raw:  ": orphan description\nJamsil-dong:",
			recs: []models.Recommendation{
				{Location: "Jamsil-dong", Description: ""},
			},
		},
		{
			name: "crlf",
			raw:  "Seochon: hanok\r\nKeywords: history\r\n",
			keywords: []string{"history"},
			recs: []models.Recommendation{
				{Location: "Seochon", Description: "hanok"},
			},
		},
	}

	p := &SingleLineColonParser{keywords: newKeywordMatcher(defaultOptions.KeywordPrefixes, false)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.raw)
			assert.Equal(t, tt.keywords, res.Keywords)
			assert.Equal(t, tt.recs, res.Recommendations)
		})
	}
}
