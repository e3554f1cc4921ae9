package places

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/pkg/models"
)

func TestVisionLabelDetector(t *testing.T) {
	image := []byte("fake png bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images:annotate", r.URL.Path)

		var req struct {
			Requests []struct {
				Image struct {
					Content string `json:"content"`
				} `json:"image"`
				Features []struct {
					Type string `json:"type"`
				} `json:"features"`
			} `json:"requests"`
		}
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &req))
		require.Len(t, req.Requests, 1)
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), req.Requests[0].Image.Content)
		assert.Equal(t, "LABEL_DETECTION", req.Requests[0].Features[0].Type)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responses":[{"labelAnnotations":[
			{"description":"Park","score":0.9},
			{"description":"Tree","score":0.8},
			{"description":"","score":0.1}
		]}]}`))
	}))
	defer srv.Close()

	d, err := NewVisionLabelDetector(
		context.Background(),
		&config.Config{},
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	labels, err := d.DetectLabels(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, []string{"Park", "Tree"}, labels)
}

func TestVisionLabelDetector_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responses":[{"error":{"code":3,"message":"Bad image data."}}]}`))
	}))
	defer srv.Close()

	d, err := NewVisionLabelDetector(
		context.Background(),
		&config.Config{},
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	_, err = d.DetectLabels(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, models.ErrUpstreamSearch)
	assert.ErrorContains(t, err, "Bad image data.")
}

func newTestSearch(t *testing.T, handler http.HandlerFunc) *PlacesTextSearch {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Places.Endpoint = srv.URL + "/maps/api/place/textsearch/json"
	cfg.Places.APIKey = "test-key"
	cfg.Places.Language = "ko"
	return NewPlacesTextSearch(cfg)
}

func TestPlacesTextSearch(t *testing.T) {
	s := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Park Tree", r.URL.Query().Get("query"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "ko", r.URL.Query().Get("language"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"name":"Seoul Forest","formatted_address":"Seongdong-gu, Seoul","rating":4.6,"types":["park"]},
			{"name":"Unrated Garden","formatted_address":"Mapo-gu, Seoul"}
		]}`))
	})

	places, err := s.SearchText(context.Background(), "Park Tree")
	require.NoError(t, err)
	require.Len(t, places, 2)

	assert.Equal(t, "Seoul Forest", places[0].Name)
	assert.Equal(t, "Seongdong-gu, Seoul", places[0].Address)
	require.NotNil(t, places[0].Rating)
	assert.Equal(t, 4.6, *places[0].Rating)
	assert.Equal(t, []string{"park"}, places[0].Types)

	assert.Nil(t, places[1].Rating)
	assert.Equal(t, []string{}, places[1].Types)
}

func TestPlacesTextSearch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "api status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"invalid key"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSearch(t, tt.handler)
			_, err := s.SearchText(context.Background(), "park")
			assert.ErrorIs(t, err, models.ErrUpstreamSearch)
		})
	}
}

func TestPlacesTextSearch_ZeroResults(t *testing.T) {
	s := newTestSearch(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	places, err := s.SearchText(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, places)
}
