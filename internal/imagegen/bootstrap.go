package imagegen

import (
	"fmt"
	"net/http"

	"promptpix/internal/infra"
	"promptpix/internal/providers/image"
	"promptpix/internal/storage"
)

// OutputPath is the URL prefix generated files are served under.
const OutputPath = "/out"

// NewServiceFromConfig resolves the provider, output store and normalizer from
// cfg. A provider that cannot be resolved is logged and replaced with
// image.Unconfigured so the caller still gets a usable service.
func NewServiceFromConfig(cfg *infra.Config, httpClient *http.Client, logger *infra.Logger) (*Service, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.ProviderTimeout}
	}

	var generator image.Generator
	providerCfg, err := image.SelectProvider(cfg)
	if err == nil {
		generator, err = providerCfg.Build(httpClient, logger)
	}
	if err != nil {
		if logger != nil {
			logger.Warn().Err(err).Msg("imagegen: no usable image provider; generation requests will be rejected")
		}
		generator = image.Unconfigured{Err: err}
	}

	var store ObjectWriter
	if cfg.PersistImages {
		fs, err := storage.NewFileStore(cfg.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("imagegen: output store: %w", err)
		}
		store = fs
		if logger != nil {
			logger.Info().Str("output_dir", fs.BasePath()).Msg("imagegen: persisting outputs")
		}
	}

	opts := NormalizeOptions{
		StrictAspect:  cfg.StrictSize,
		Styles:        NewStyleCatalog(DefaultStyles),
		PublicBaseURL: cfg.PublicBaseURL,
	}
	return NewService(generator, NewMaterializer(store, OutputPath, cfg.PublicBaseURL), opts, logger), nil
}
