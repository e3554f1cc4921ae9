package handlertools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"

	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/models"
)

var log = internal.GetLogger()

var validate = validator.New()

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EncodeJSON encodes data into JSON and writes it to the response writer.
func EncodeJSON(w http.ResponseWriter, data interface{}) error {
	return EncodeJSONStatus(w, http.StatusOK, data)
}

// EncodeJSONStatus writes status and data as JSON. Headers are set before the
// status line is written.
func EncodeJSONStatus(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes a JSON request body into the provided data struct.
func DecodeJSON(r *http.Request, data interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		return models.NewBadRequestError(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// Validate checks data against its validate struct tags.
func Validate(data interface{}) error {
	if err := validate.Struct(data); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("'%s' failed on the '%s' rule", fe.Field(), fe.Tag())
			}
			return models.NewBadRequestError(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// StatusForError maps an error to the status it should be reported with.
// fallback is used when err is none of the known kinds.
func StatusForError(err error, fallback int) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUpstreamCompletion):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, models.ErrUpstreamSearch):
		return http.StatusBadGateway
	default:
		return fallback
	}
}

// RenderError renders a JSON error response. status is used unless err is
// one of the known kinds. Bad requests report only their message.
func RenderError(w http.ResponseWriter, err error, status int) {
	status = StatusForError(err, status)

	message := err.Error()
	var badRequestErr *models.BadRequestError
	if errors.As(err, &badRequestErr) {
		message = badRequestErr.Message
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		message = fmt.Sprintf(
			"request body too large. uploads are limited to %s",
			humanize.IBytes(uint64(maxBytesErr.Limit)),
		)
	}

	if status != http.StatusNotFound {
		// Don't log not found errors
		log.Error(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); encErr != nil {
		log.Errorf("failed to encode error response: %v", encErr)
	}
}
