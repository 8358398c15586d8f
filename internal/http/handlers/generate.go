package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"promptpix/internal/domain"
	"promptpix/internal/imagegen"
	"promptpix/internal/middleware"
)

const (
	maxBodyBytes = 1 << 20

	invalidSizeMessage = "Invalid size parameter. Use 1024x1024, 1024x1792 or 1792x1024."
)

type generateResponse struct {
	Image    string   `json:"image"`
	Output   []string `json:"output"`
	Size     string   `json:"size"`
	Aspect   string   `json:"aspect"`
	Style    string   `json:"style"`
	Provider string   `json:"provider"`
}

// Generate serves POST /generate and /api/generate. It accepts a JSON body or
// a url-encoded form with the same field names.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestIDFromContext(r.Context())
	if a.Images == nil {
		a.error(w, http.StatusBadRequest, (&domain.InvalidConfigurationError{Missing: "image service"}).Error(), "")
		return
	}

	body, err := decodeGenerateBody(w, r)
	if err != nil {
		a.Logger.Warn().Err(err).Str("request_id", requestID).Msg("generate: bad payload")
		a.error(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := a.Images.Generate(r.Context(), body, requestID)
	if err != nil {
		a.generationError(w, requestID, err)
		return
	}

	a.json(w, http.StatusOK, generateResponse{
		Image:    result.Image,
		Output:   result.Output,
		Size:     result.Size,
		Aspect:   string(result.Aspect),
		Style:    result.Style,
		Provider: result.Provider,
	})
}

func decodeGenerateBody(w http.ResponseWriter, r *http.Request) (imagegen.RequestBody, error) {
	var body imagegen.RequestBody
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return body, err
		}
		body.Prompt = r.FormValue("prompt")
		body.Style = r.FormValue("style")
		if body.Style == "" {
			body.Style = r.FormValue("styleLabel")
		}
		body.Size = r.FormValue("size")
		body.Aspect = r.FormValue("aspect")
		return body, nil
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		// An empty body falls through so the prompt check reports it.
		if errors.Is(err, io.EOF) {
			return imagegen.RequestBody{}, nil
		}
		return body, err
	}
	return body, nil
}

func (a *App) generationError(w http.ResponseWriter, requestID string, err error) {
	status := domain.HTTPStatus(err)
	event := a.Logger.Error()
	if status < http.StatusInternalServerError {
		event = a.Logger.Warn()
	}
	event.Err(err).Str("request_id", requestID).Int("status", status).Msg("generate: failed")

	var rejected *domain.UpstreamRejectedError
	switch {
	case errors.As(err, &rejected) && rejected.SizeRelated():
		a.error(w, status, invalidSizeMessage, rejected.Detail)
	case errors.As(err, &rejected):
		a.error(w, status, "image provider rejected the request", rejected.Detail)
	case status == http.StatusBadRequest:
		a.error(w, status, err.Error(), "")
	case errors.Is(err, domain.ErrEmptyResult):
		a.error(w, status, "image provider returned no images", err.Error())
	default:
		a.error(w, status, "image generation failed", err.Error())
	}
}
