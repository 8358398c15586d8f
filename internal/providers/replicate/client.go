package replicate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	replicatego "github.com/replicate/replicate-go"
	"github.com/rs/zerolog"

	"promptpix/internal/domain"
	"promptpix/internal/infra"
)

const providerName = "replicate"

// Options configures the Replicate predictions client.
type Options struct {
	APIToken string
	BaseURL  string
	// Model is "owner/name"; used only when Version is empty.
	Model string
	// Version pins an exact model version and takes precedence over Model.
	// "owner/name:version" is accepted as well.
	Version string
	// Input is merged into every prediction input before the prompt fields.
	Input         map[string]any
	ImageInputKey string
	PollInterval  time.Duration
	// Timeout bounds create plus all polls. MaxPolls bounds status reads.
	Timeout    time.Duration
	MaxPolls   int
	HTTPClient *http.Client
	Logger     *infra.Logger
	// Wait replaces the fixed delay between polls; tests use it to count waits.
	Wait func(ctx context.Context, d time.Duration) error
}

// Client drives Replicate predictions through replicate-go. The polling policy
// (fixed interval, bounded, cancellable) lives in Generate.
type Client struct {
	api           *replicatego.Client
	model         string
	version       string
	input         map[string]any
	imageInputKey string
	pollInterval  time.Duration
	timeout       time.Duration
	maxPolls      int
	logger        *infra.Logger
	wait          func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.APIToken)
	if token == "" {
		return nil, &domain.InvalidConfigurationError{Provider: providerName, Missing: "REPLICATE_API_TOKEN"}
	}
	version, model := resolveSelector(opts.Version, opts.Model)
	if version == "" && model == "" {
		return nil, &domain.InvalidConfigurationError{Provider: providerName, Missing: "REPLICATE_VERSION or REPLICATE_MODEL"}
	}
	if version == "" {
		if owner, name, ok := strings.Cut(model, "/"); !ok || owner == "" || name == "" {
			return nil, &domain.InvalidConfigurationError{Provider: providerName, Missing: "REPLICATE_MODEL as owner/name"}
		}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1"
	}
	api, err := replicatego.NewClient(
		replicatego.WithToken(token),
		replicatego.WithBaseURL(baseURL),
		replicatego.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("replicate: new client: %w", err)
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	imageKey := strings.TrimSpace(opts.ImageInputKey)
	if imageKey == "" {
		imageKey = "image"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		l := zerolog.New(io.Discard)
		logger = &l
	}
	wait := opts.Wait
	if wait == nil {
		wait = sleep
	}
	return &Client{
		api:           api,
		model:         model,
		version:       version,
		input:         opts.Input,
		imageInputKey: imageKey,
		pollInterval:  interval,
		timeout:       timeout,
		maxPolls:      opts.MaxPolls,
		logger:        logger,
		wait:          wait,
	}, nil
}

// Name identifies the provider in logs and responses.
func (c *Client) Name() string { return providerName }

// Model returns the selector in use, version first.
func (c *Client) Model() string {
	if c.version != "" {
		return c.version
	}
	return c.model
}

// createPrediction starts a prediction on the pinned version, or on the
// model's latest version when none is pinned.
func (c *Client) createPrediction(ctx context.Context, input map[string]any) (*replicatego.Prediction, error) {
	var (
		pred *replicatego.Prediction
		err  error
	)
	if c.version != "" {
		pred, err = c.api.CreatePrediction(ctx, c.version, replicatego.PredictionInput(input), nil, false)
	} else {
		owner, name, _ := strings.Cut(c.model, "/")
		pred, err = c.api.CreatePredictionWithModel(ctx, owner, name, replicatego.PredictionInput(input), nil, false)
	}
	if err != nil {
		return nil, classifyError(err)
	}
	return pred, nil
}

func (c *Client) getPrediction(ctx context.Context, id string) (*replicatego.Prediction, error) {
	pred, err := c.api.GetPrediction(ctx, id)
	if err != nil {
		return nil, classifyError(err)
	}
	return pred, nil
}

// classifyError maps replicate-go errors onto the domain taxonomy. Anything
// that is not an API error body is treated as transport trouble.
func classifyError(err error) error {
	var apiErr *replicatego.APIError
	if errors.As(err, &apiErr) {
		detail := strings.TrimSpace(apiErr.Detail)
		if detail == "" {
			detail = apiErr.Title
		}
		return &domain.UpstreamRejectedError{
			Provider:   providerName,
			StatusCode: apiErr.Status,
			Code:       apiErr.Title,
			Detail:     detail,
		}
	}
	return &domain.TransportError{Provider: providerName, Err: err}
}

// resolveSelector prefers an explicit version. "owner/name:version" yields
// both parts.
func resolveSelector(version, model string) (string, string) {
	version = strings.TrimSpace(version)
	model = strings.TrimSpace(model)
	if ref, v, ok := strings.Cut(version, ":"); ok {
		if model == "" {
			model = ref
		}
		version = v
	}
	if ref, v, ok := strings.Cut(model, ":"); ok {
		model = ref
		if version == "" {
			version = v
		}
	}
	return strings.TrimSpace(version), strings.TrimSpace(model)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
