package models

import "context"

type Place struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Rating  *float64 `json:"rating"`
	Types   []string `json:"types"`
}

type ImageSearchResult struct {
	Labels []string `json:"labels"`
	Places []Place  `json:"similar_places"`
}

type LabelDetector interface {
	DetectLabels(ctx context.Context, image []byte) ([]string, error)
}

type PlaceSearcher interface {
	SearchText(ctx context.Context, query string) ([]Place, error)
}

type PlaceFinder interface {
	FindSimilar(ctx context.Context, image []byte) (*ImageSearchResult, error)
}

// ReferencePlace is one row of public reference data about a place.
type ReferencePlace struct {
	District string `json:"district"`
	Name     string `json:"name"`
	Address  string `json:"address"`
}

// ReferenceProvider returns reference places whose name or address mention
// any of the keywords.
type ReferenceProvider interface {
	References(ctx context.Context, keywords []string) ([]ReferencePlace, error)
}
