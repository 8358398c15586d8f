package image

import (
	"encoding/json"
	"fmt"
	"net/http"

	"promptpix/internal/domain"
	"promptpix/internal/infra"
	"promptpix/internal/providers/openai"
	"promptpix/internal/providers/replicate"
)

// ProviderKind tags which adapter a ProviderConfig builds.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderReplicate ProviderKind = "replicate"
)

// ProviderConfig is resolved once at startup. Exactly one of OpenAI or
// Replicate is set, matching Kind.
type ProviderConfig struct {
	Kind      ProviderKind
	OpenAI    *openai.Options
	Replicate *replicate.Options
}

// SelectProvider picks the adapter from configuration. IMAGE_PROVIDER wins when
// set; otherwise a Replicate token with a model selector is preferred over an
// OpenAI key, matching the more specific configuration.
func SelectProvider(cfg *infra.Config) (ProviderConfig, error) {
	switch ProviderKind(cfg.ImageProvider) {
	case ProviderOpenAI:
		return openAIConfig(cfg)
	case ProviderReplicate:
		return replicateConfig(cfg)
	case "":
	default:
		return ProviderConfig{}, &domain.InvalidConfigurationError{Missing: fmt.Sprintf("IMAGE_PROVIDER %q is not one of openai, replicate", cfg.ImageProvider)}
	}

	if cfg.ReplicateAPIToken != "" && (cfg.ReplicateVersion != "" || cfg.ReplicateModel != "") {
		return replicateConfig(cfg)
	}
	if cfg.OpenAIAPIKey != "" {
		return openAIConfig(cfg)
	}
	if cfg.ReplicateAPIToken != "" {
		return replicateConfig(cfg)
	}
	return ProviderConfig{}, &domain.InvalidConfigurationError{Missing: "OPENAI_API_KEY or REPLICATE_API_TOKEN"}
}

func openAIConfig(cfg *infra.Config) (ProviderConfig, error) {
	if cfg.OpenAIAPIKey == "" {
		return ProviderConfig{}, &domain.InvalidConfigurationError{Provider: string(ProviderOpenAI), Missing: "OPENAI_API_KEY"}
	}
	return ProviderConfig{
		Kind: ProviderOpenAI,
		OpenAI: &openai.Options{
			APIKey:            cfg.OpenAIAPIKey,
			BaseURL:           cfg.OpenAIBaseURL,
			Model:             cfg.OpenAIImageModel,
			Size:              cfg.OpenAIImageSize,
			Quality:           cfg.OpenAIImageQuality,
			RejectUnsupported: cfg.OpenAIRejectBadSize,
			RequestTimeout:    cfg.ProviderTimeout,
		},
	}, nil
}

func replicateConfig(cfg *infra.Config) (ProviderConfig, error) {
	if cfg.ReplicateAPIToken == "" {
		return ProviderConfig{}, &domain.InvalidConfigurationError{Provider: string(ProviderReplicate), Missing: "REPLICATE_API_TOKEN"}
	}
	if cfg.ReplicateVersion == "" && cfg.ReplicateModel == "" {
		return ProviderConfig{}, &domain.InvalidConfigurationError{Provider: string(ProviderReplicate), Missing: "REPLICATE_VERSION or REPLICATE_MODEL"}
	}
	var input map[string]any
	if cfg.ReplicateInput != "" {
		if err := json.Unmarshal([]byte(cfg.ReplicateInput), &input); err != nil {
			return ProviderConfig{}, &domain.InvalidConfigurationError{Provider: string(ProviderReplicate), Missing: "REPLICATE_INPUT as a JSON object"}
		}
	}
	return ProviderConfig{
		Kind: ProviderReplicate,
		Replicate: &replicate.Options{
			APIToken:     cfg.ReplicateAPIToken,
			BaseURL:      cfg.ReplicateBaseURL,
			Model:        cfg.ReplicateModel,
			Version:      cfg.ReplicateVersion,
			Input:        input,
			PollInterval: cfg.ReplicatePollInterval,
			Timeout:      cfg.ReplicatePollTimeout,
			MaxPolls:     cfg.ReplicateMaxPolls,
		},
	}, nil
}

// Build constructs the adapter, injecting the shared HTTP client and logger.
func (pc ProviderConfig) Build(httpClient *http.Client, logger *infra.Logger) (Generator, error) {
	switch pc.Kind {
	case ProviderOpenAI:
		if pc.OpenAI == nil {
			break
		}
		opts := *pc.OpenAI
		opts.HTTPClient = httpClient
		opts.Logger = logger
		client, err := openai.NewClient(opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderReplicate:
		if pc.Replicate == nil {
			break
		}
		opts := *pc.Replicate
		opts.HTTPClient = httpClient
		opts.Logger = logger
		client, err := replicate.NewClient(opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return nil, fmt.Errorf("image: provider config %q is incomplete", pc.Kind)
}

var (
	_ Generator = (*openai.Client)(nil)
	_ Generator = (*replicate.Client)(nil)

	_ SizeLister = (*openai.Client)(nil)
)
