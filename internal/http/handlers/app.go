package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"promptpix/internal/imagegen"
	"promptpix/internal/infra"

	"github.com/rs/zerolog"
)

// ImageService is the slice of imagegen.Service the handlers depend on.
type ImageService interface {
	Generate(ctx context.Context, body imagegen.RequestBody, requestID string) (*imagegen.Result, error)
	Provider() string
	SupportedSizes() []string
	Styles() []imagegen.StylePreset
}

type App struct {
	Config *infra.Config
	Logger zerolog.Logger
	Images ImageService
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, images ImageService) *App {
	return &App{Config: cfg, Logger: logger, Images: images}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message, details string) {
	a.json(w, code, errorResponse{Error: message, Details: details})
}
