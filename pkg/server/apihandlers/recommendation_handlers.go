package apihandlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/introduceourtown/townrec/pkg/models"
	"github.com/introduceourtown/townrec/pkg/server/handlertools"
)

const defaultSessionID = "default"

type RecommendationRequest struct {
	Question  string   `json:"question"             validate:"required"`
	Region    *string  `json:"region,omitempty"`
	Radius    *float64 `json:"radius,omitempty"     validate:"omitempty,gte=0"`
	SessionID string   `json:"session_id,omitempty"`
}

type RecommendationResponse struct {
	SessionID       string                  `json:"session_id"`
	Region          *string                 `json:"region"`
	Radius          *float64                `json:"radius"`
	Question        string                  `json:"question"`
	Answer          string                  `json:"answer"`
	Keywords        []string                `json:"keywords"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Cached          bool                    `json:"cached"`
}

// LegacyNeighborhood is one entry of neighborhood_recommendations.
type LegacyNeighborhood struct {
	Neighborhood string `json:"neighborhood"`
	Description  string `json:"description"`
}

type LegacyRecommendationResponse struct {
	Region                      *string              `json:"region"`
	Radius                      *float64             `json:"radius"`
	Question                    string               `json:"question"`
	Answer                      string               `json:"answer"`
	Keywords                    []string             `json:"keywords"`
	NeighborhoodRecommendations []LegacyNeighborhood `json:"neighborhood_recommendations"`
}

// PostSessionRecommendationHandler godoc
//
//	@Summary		Answers a neighborhood question within a session
//	@Description	the session's conversation memory is used as context and updated with the answer
//	@Tags			recommendations
//	@Accept			json
//	@Produce		json
//	@Param			sessionId	path		string					true	"Session ID"
//	@Param			request		body		RecommendationRequest	true	"Question"
//	@Success		200			{object}	RecommendationResponse
//	@Failure		400			{object}	APIError	"Bad Request"
//	@Failure		404			{object}	APIError	"Not Found"
//	@Failure		502			{object}	APIError	"Bad Gateway"
//	@Failure		504			{object}	APIError	"Gateway Timeout"
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/sessions/{sessionId}/recommendations [post]
func PostSessionRecommendationHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")
		if !sessionExists(appState, sessionID) {
			handlertools.RenderError(w, models.NewNotFoundError("session "+sessionID), http.StatusNotFound)
			return
		}

		req, ok := decodeRecommendationRequest(w, r)
		if !ok {
			return
		}

		result, err := appState.Recommender.Handle(r.Context(), sessionID, req.requestContext())
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, newRecommendationResponse(sessionID, req, result)); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// PostRecommendationHandler godoc
//
//	@Summary		Answers a neighborhood question
//	@Description	the session is taken from session_id, falling back to the default session. An unknown session_id is rejected.
//	@Tags			recommendations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RecommendationRequest	true	"Question"
//	@Success		200		{object}	RecommendationResponse
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		404		{object}	APIError	"Not Found"
//	@Failure		502		{object}	APIError	"Bad Gateway"
//	@Failure		504		{object}	APIError	"Gateway Timeout"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/recommendations [post]
func PostRecommendationHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRecommendationRequest(w, r)
		if !ok {
			return
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = defaultSession(appState)
		}
		if !sessionExists(appState, sessionID) {
			handlertools.RenderError(w, models.NewNotFoundError("session "+sessionID), http.StatusNotFound)
			return
		}

		result, err := appState.Recommender.Handle(r.Context(), sessionID, req.requestContext())
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, newRecommendationResponse(sessionID, req, result)); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// PostLegacyRecommendationHandler serves the legacy recommend-neighborhoods
// route and response shape. It always uses the default session.
func PostLegacyRecommendationHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRecommendationRequest(w, r)
		if !ok {
			return
		}

		result, err := appState.Recommender.Handle(
			r.Context(),
			defaultSession(appState),
			req.requestContext(),
		)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		neighborhoods := make([]LegacyNeighborhood, len(result.Recommendations))
		for i, rec := range result.Recommendations {
			neighborhoods[i] = LegacyNeighborhood{
				Neighborhood: rec.Location,
				Description:  rec.Description,
			}
		}

		resp := LegacyRecommendationResponse{
			Region:                      req.Region,
			Radius:                      req.Radius,
			Question:                    req.Question,
			Answer:                      result.RawAnswer,
			Keywords:                    nonNilStrings(result.Keywords),
			NeighborhoodRecommendations: neighborhoods,
		}
		if err := handlertools.EncodeJSON(w, resp); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

func decodeRecommendationRequest(
	w http.ResponseWriter,
	r *http.Request,
) (*RecommendationRequest, bool) {
	var req RecommendationRequest
	if err := handlertools.DecodeJSON(r, &req); err != nil {
		handlertools.RenderError(w, err, http.StatusBadRequest)
		return nil, false
	}
	if err := handlertools.Validate(&req); err != nil {
		handlertools.RenderError(w, err, http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (req *RecommendationRequest) requestContext() models.RequestContext {
	return models.RequestContext{
		Question: req.Question,
		Region:   req.Region,
		Radius:   req.Radius,
	}
}

func newRecommendationResponse(
	sessionID string,
	req *RecommendationRequest,
	result *models.RecommendationResult,
) RecommendationResponse {
	recommendations := result.Recommendations
	if recommendations == nil {
		recommendations = []models.Recommendation{}
	}
	return RecommendationResponse{
		SessionID:       sessionID,
		Region:          req.Region,
		Radius:          req.Radius,
		Question:        req.Question,
		Answer:          result.RawAnswer,
		Keywords:        nonNilStrings(result.Keywords),
		Recommendations: recommendations,
		Cached:          result.Cached,
	}
}

func defaultSession(appState *models.AppState) string {
	if appState.Config != nil && appState.Config.Recommend.DefaultSession != "" {
		return appState.Config.Recommend.DefaultSession
	}
	return defaultSessionID
}

// sessionExists reports whether id was created through POST /sessions or is
// the default session, which is created on first use.
func sessionExists(appState *models.AppState, id string) bool {
	if id == defaultSession(appState) {
		return true
	}
	_, ok := appState.MemoryStore.Lookup(id)
	return ok
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
