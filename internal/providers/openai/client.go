package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	goopenai "github.com/sashabaranov/go-openai"

	"promptpix/internal/domain"
	"promptpix/internal/infra"
)

const providerName = "openai"

const defaultImageModel = "gpt-image-1"

var imageModelAliases = map[string]string{
	"gpt-image":  "gpt-image-1",
	"gptimage1":  "gpt-image-1",
	"gpt-image1": "gpt-image-1",
	"dalle3":     "dall-e-3",
	"dall-e3":    "dall-e-3",
	"dalle-3":    "dall-e-3",
	"dalle2":     "dall-e-2",
	"dall-e2":    "dall-e-2",
	"dalle-2":    "dall-e-2",
}

// Options configures the OpenAI Images client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	// Size pins every request to one size token, ignoring the requested aspect.
	Size    string
	Quality string
	// RejectUnsupported fails requests whose aspect the model cannot render
	// instead of falling back to square.
	RejectUnsupported bool
	HTTPClient        *http.Client
	Logger            *infra.Logger
	RequestTimeout    time.Duration
}

// Client calls the OpenAI Images API, which answers synchronously with the
// final images.
type Client struct {
	api               *goopenai.Client
	apiKey            string
	model             string
	size              string
	quality           string
	rejectUnsupported bool
	logger            *infra.Logger
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, &domain.InvalidConfigurationError{Provider: providerName, Missing: "OPENAI_API_KEY"}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	config := goopenai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		config.BaseURL = base
	}
	config.HTTPClient = httpClient

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		l := zerolog.New(io.Discard)
		logger = &l
	}
	return &Client{
		api:               goopenai.NewClientWithConfig(config),
		apiKey:            apiKey,
		model:             canonicalModel(opts.Model),
		size:              strings.TrimSpace(opts.Size),
		quality:           strings.TrimSpace(opts.Quality),
		rejectUnsupported: opts.RejectUnsupported,
		logger:            logger,
	}, nil
}

// Name identifies the provider in logs and responses.
func (c *Client) Name() string { return providerName }

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Generate issues one images.generate call. The returned job is always
// terminal: either succeeded with at least one image, or an error.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (domain.ProviderJob, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return domain.ProviderJob{}, domain.ErrEmptyPrompt
	}
	size, err := c.sizeFor(req.Aspect)
	if err != nil {
		return domain.ProviderJob{}, err
	}
	imageReq := goopenai.ImageRequest{
		Prompt:  prompt,
		Model:   c.model,
		Size:    size,
		Quality: c.quality,
		N:       1,
	}
	if strings.HasPrefix(c.model, "dall-e") {
		imageReq.ResponseFormat = goopenai.CreateImageResponseFormatB64JSON
	}

	start := time.Now()
	resp, err := c.api.CreateImage(ctx, imageReq)
	if err != nil {
		return domain.ProviderJob{}, classifyError(err)
	}
	outputs := make([]domain.ImageRef, 0, len(resp.Data))
	for _, item := range resp.Data {
		switch {
		case strings.TrimSpace(item.B64JSON) != "":
			data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(item.B64JSON))
			if err != nil {
				return domain.ProviderJob{}, fmt.Errorf("openai: decode image payload: %w", err)
			}
			outputs = append(outputs, domain.InlineImage(data, domain.DefaultContentType))
		case strings.TrimSpace(item.URL) != "":
			outputs = append(outputs, domain.RemoteImage(item.URL))
		}
	}
	if len(outputs) == 0 {
		return domain.ProviderJob{}, fmt.Errorf("openai: %w", domain.ErrEmptyResult)
	}
	c.logger.Debug().
		Str("model", c.model).
		Str("size", size).
		Int("images", len(outputs)).
		Dur("elapsed", time.Since(start)).
		Msg("openai: generated images")
	return domain.ProviderJob{
		Status:    domain.JobStatusSucceeded,
		RawStatus: "succeeded",
		Output:    outputs,
		Size:      size,
	}, nil
}

// SupportedSizes lists the size tokens the configured model accepts, square first.
func (c *Client) SupportedSizes() []string {
	table := sizeTable(c.model)
	sizes := []string{table[domain.AspectSquare]}
	for _, aspect := range []domain.Aspect{domain.AspectPortrait, domain.AspectLandscape} {
		if size, ok := table[aspect]; ok {
			sizes = append(sizes, size)
		}
	}
	return sizes
}

func (c *Client) sizeFor(aspect domain.Aspect) (string, error) {
	if c.size != "" {
		return c.size, nil
	}
	table := sizeTable(c.model)
	if size, ok := table[aspect]; ok {
		return size, nil
	}
	if aspect != "" && aspect != domain.AspectSquare && c.rejectUnsupported {
		return "", fmt.Errorf("openai: %s does not render %s images: %w", c.model, aspect, domain.ErrUnsupportedSize)
	}
	return table[domain.AspectSquare], nil
}

func sizeTable(model string) map[domain.Aspect]string {
	switch {
	case strings.HasPrefix(model, "dall-e-2"):
		return map[domain.Aspect]string{domain.AspectSquare: "1024x1024"}
	case strings.HasPrefix(model, "dall-e-3"):
		return map[domain.Aspect]string{
			domain.AspectSquare:    "1024x1024",
			domain.AspectPortrait:  "1024x1792",
			domain.AspectLandscape: "1792x1024",
		}
	default:
		return map[domain.Aspect]string{
			domain.AspectSquare:    "1024x1024",
			domain.AspectPortrait:  "1024x1536",
			domain.AspectLandscape: "1536x1024",
		}
	}
}

func canonicalModel(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if model == "" {
		return defaultImageModel
	}
	if alias, ok := imageModelAliases[model]; ok {
		return alias
	}
	return model
}

func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &domain.TransportError{Provider: providerName, Err: err}
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		rejected := &domain.UpstreamRejectedError{
			Provider:   providerName,
			StatusCode: apiErr.HTTPStatusCode,
			Detail:     apiErr.Message,
		}
		if apiErr.Code != nil {
			rejected.Code = fmt.Sprint(apiErr.Code)
		}
		if apiErr.Param != nil {
			rejected.Param = *apiErr.Param
		}
		return rejected
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		detail := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			detail = reqErr.Err.Error()
		}
		return &domain.UpstreamRejectedError{Provider: providerName, StatusCode: reqErr.HTTPStatusCode, Detail: detail}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &domain.TransportError{Provider: providerName, Err: err}
	}
	return &domain.UpstreamRejectedError{Provider: providerName, Detail: err.Error()}
}
