package apihandlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/models"
	"github.com/introduceourtown/townrec/pkg/server/handlertools"
)

var log = internal.GetLogger()

const (
	imageFormField        = "image"
	defaultMaxUploadBytes = 10 << 20
)

// AnalyzeImageHandler godoc
//
//	@Summary		Finds places similar to an uploaded photo
//	@Description	labels are detected in the image and used as a places text search query
//	@Tags			places
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Image"
//	@Success		200		{object}	models.ImageSearchResult
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		413		{object}	APIError	"Request Entity Too Large"
//	@Failure		502		{object}	APIError	"Bad Gateway"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/places/analyze [post]
func AnalyzeImageHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := maxUploadBytes(appState)
		r.Body = http.MaxBytesReader(w, r.Body, limit)

		if err := r.ParseMultipartForm(limit); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				handlertools.RenderError(w, err, http.StatusRequestEntityTooLarge)
				return
			}
			handlertools.RenderError(
				w,
				models.NewBadRequestError("No image part in the request"),
				http.StatusBadRequest,
			)
			return
		}
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				log.Warnf("failed to remove multipart temp files: %v", err)
			}
		}()

		file, header, err := r.FormFile(imageFormField)
		if err != nil {
			handlertools.RenderError(
				w,
				models.NewBadRequestError("No image part in the request"),
				http.StatusBadRequest,
			)
			return
		}
		defer file.Close()

		if header.Filename == "" {
			handlertools.RenderError(
				w,
				models.NewBadRequestError("No selected file"),
				http.StatusBadRequest,
			)
			return
		}

		image, err := io.ReadAll(file)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		result, err := appState.PlaceFinder.FindSimilar(r.Context(), image)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, result); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

func maxUploadBytes(appState *models.AppState) int64 {
	if appState.Config != nil && appState.Config.Server.MaxUploadBytes > 0 {
		return appState.Config.Server.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}
