package apihandlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/introduceourtown/townrec/pkg/models"
	"github.com/introduceourtown/townrec/pkg/server/handlertools"
)

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// CreateSessionHandler godoc
//
//	@Summary		Creates a session with an empty conversation memory
//	@Tags			session
//	@Produce		json
//	@Success		201	{object}	CreateSessionResponse
//	@Failure		500	{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/sessions [post]
func CreateSessionHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := uuid.NewString()
		appState.MemoryStore.Get(sessionID)

		resp := CreateSessionResponse{SessionID: sessionID}
		if err := handlertools.EncodeJSONStatus(w, http.StatusCreated, resp); err != nil {
			log.Errorf("failed to encode session response: %v", err)
		}
	}
}

// GetMemoryHandler godoc
//
//	@Summary		Returns the conversation memory of a session
//	@Description	the rolling summary and the retained turns. Reading has no side effects.
//	@Tags			memory
//	@Produce		json
//	@Param			sessionId	path		string	true	"Session ID"
//	@Success		200			{object}	models.Memory
//	@Failure		404			{object}	APIError	"Not Found"
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/sessions/{sessionId}/memory [get]
func GetMemoryHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")

		mem, ok := appState.MemoryStore.Lookup(sessionID)
		if !ok {
			handlertools.RenderError(w, models.NewNotFoundError("session "+sessionID), http.StatusNotFound)
			return
		}

		if err := handlertools.EncodeJSON(w, mem.Load()); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
