package places

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/pkg/metrics"
	"github.com/introduceourtown/townrec/pkg/models"
)

const placesService = "places"

const DefaultPlacesEndpoint = "https://maps.googleapis.com/maps/api/place/textsearch/json"

var _ models.PlaceSearcher = &PlacesTextSearch{}

type textSearchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Name             string   `json:"name"`
		FormattedAddress string   `json:"formatted_address"`
		Rating           *float64 `json:"rating"`
		Types            []string `json:"types"`
	} `json:"results"`
}

// PlacesTextSearch queries the Places Text Search API.
type PlacesTextSearch struct {
	client   *resty.Client
	endpoint string
	apiKey   string
	language string
}

func NewPlacesTextSearch(cfg *config.Config) *PlacesTextSearch {
	endpoint := cfg.Places.Endpoint
	if endpoint == "" {
		endpoint = DefaultPlacesEndpoint
	}

	client := resty.NewWithClient(NewTracedHTTPClient(cfg.Places.Timeout))

	return &PlacesTextSearch{
		client:   client,
		endpoint: endpoint,
		apiKey:   cfg.Places.APIKey,
		language: cfg.Places.Language,
	}
}

// NewTracedHTTPClient returns an http.Client whose requests are traced.
func NewTracedHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func (p *PlacesTextSearch) SearchText(ctx context.Context, query string) (places []models.Place, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(placesService, start, err) }()

	params := map[string]string{
		"query": query,
		"key":   p.apiKey,
	}
	if p.language != "" {
		params["language"] = p.language
	}

	var body textSearchResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&body).
		Get(p.endpoint)
	if err != nil {
		return nil, models.NewUpstreamSearchError(placesService, "text search request failed", err)
	}
	if resp.IsError() {
		return nil, models.NewUpstreamSearchError(
			placesService,
			"text search failed",
			fmt.Errorf("status code %d", resp.StatusCode()),
		)
	}

	switch body.Status {
	case "OK", "ZERO_RESULTS", "":
	default:
		return nil, models.NewUpstreamSearchError(
			placesService,
			"text search failed",
			fmt.Errorf("status %s: %s", body.Status, body.ErrorMessage),
		)
	}

	places = make([]models.Place, 0, len(body.Results))
	for _, r := range body.Results {
		types := r.Types
		if types == nil {
			types = []string{}
		}
		places = append(places, models.Place{
			Name:    r.Name,
			Address: r.FormattedAddress,
			Rating:  r.Rating,
			Types:   types,
		})
	}
	return places, nil
}
