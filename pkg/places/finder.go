// Package places finds places that look like an uploaded photo: the image is
// labelled and the labels are used as a text search query.
package places

import (
	"context"
	"strings"

	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/models"
)

const DefaultMaxLabels = 5

var log = internal.GetLogger()

var _ models.PlaceFinder = &Finder{}

type Finder struct {
	detector  models.LabelDetector
	searcher  models.PlaceSearcher
	maxLabels int
}

func NewFinder(detector models.LabelDetector, searcher models.PlaceSearcher, maxLabels int) *Finder {
	if maxLabels <= 0 {
		maxLabels = DefaultMaxLabels
	}
	return &Finder{detector: detector, searcher: searcher, maxLabels: maxLabels}
}

// FindSimilar returns every detected label and the places found by searching
// for the first maxLabels of them.
func (f *Finder) FindSimilar(ctx context.Context, image []byte) (*models.ImageSearchResult, error) {
	if len(image) == 0 {
		return nil, models.NewBadRequestError("image is empty")
	}

	labels, err := f.detector.DetectLabels(ctx, image)
	if err != nil {
		return nil, err
	}

	if labels == nil {
		labels = []string{}
	}
	result := &models.ImageSearchResult{Labels: labels, Places: []models.Place{}}
	if len(labels) == 0 {
		log.Debug("no labels detected, skipping place search")
		return result, nil
	}

	queryLabels := labels
	if len(queryLabels) > f.maxLabels {
		queryLabels = queryLabels[:f.maxLabels]
	}

	places, err := f.searcher.SearchText(ctx, strings.Join(queryLabels, " "))
	if err != nil {
		return nil, err
	}
	result.Places = places

	return result, nil
}
