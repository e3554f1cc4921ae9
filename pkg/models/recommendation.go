package models

import (
	"context"
	"time"
)

type Recommendation struct {
	Location    string `json:"location"`
	Description string `json:"description"`
}

// RequestContext carries a question and its optional geographic scope.
type RequestContext struct {
	Question string
	Region   *string
	Radius   *float64
}

type RecommendationResult struct {
	RawAnswer       string           `json:"answer"`
	Keywords        []string         `json:"keywords"`
	Recommendations []Recommendation `json:"recommendations"`
	Cached          bool             `json:"cached"`
}

type ParseMode string

const (
	ParseModeSuffixFilter     ParseMode = "suffix_filter"
	ParseModeNumberedList     ParseMode = "numbered_list"
	ParseModeSingleLineColon  ParseMode = "single_line_colon"
	ParseModeLabeledMultiLine ParseMode = "labeled_multi_line"
)

type ParseResult struct {
	Keywords        []string
	Recommendations []Recommendation
}

// Ambiguous reports whether nothing could be extracted.
func (r ParseResult) Ambiguous() bool {
	return len(r.Keywords) == 0 && len(r.Recommendations) == 0
}

type Parser interface {
	Parse(raw string) ParseResult
	Mode() ParseMode
}

type Recommender interface {
	Handle(
		ctx context.Context,
		sessionID string,
		req RequestContext,
	) (*RecommendationResult, error)
}

type ResponseCache interface {
	Get(ctx context.Context, key string) (*RecommendationResult, bool, error)
	Set(ctx context.Context, key string, value *RecommendationResult) error
}

// RecommendationRecord is the persisted form of one answered question.
type RecommendationRecord struct {
	SessionID       string           `json:"session_id"`
	Question        string           `json:"question"`
	Region          *string          `json:"region,omitempty"`
	Radius          *float64         `json:"radius,omitempty"`
	Prompt          string           `json:"prompt"`
	Answer          string           `json:"answer"`
	Keywords        []string         `json:"keywords"`
	Recommendations []Recommendation `json:"recommendations"`
	CreatedAt       time.Time        `json:"created_at"`
}

type RecommendationStore interface {
	Put(ctx context.Context, record *RecommendationRecord) error
	Close() error
}
