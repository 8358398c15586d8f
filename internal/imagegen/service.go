package imagegen

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"promptpix/internal/domain"
	"promptpix/internal/infra"
	"promptpix/internal/providers/image"
)

// Result is what one successful generation hands back to the HTTP layer.
type Result struct {
	// Image is the primary reference, equal to Output[0].
	Image  string
	Output []string
	// Size is the size the vendor was asked for; Aspect follows from it.
	Size     string
	Aspect   domain.Aspect
	Style    string
	Provider string
	JobID    string
}

// Service runs normalize, generate and materialize for a single request. It
// holds no per-request state and is safe for concurrent use.
type Service struct {
	generator    image.Generator
	materializer *Materializer
	normalize    NormalizeOptions
	logger       *infra.Logger
}

// NewService wires the pipeline. The generator and materializer are built once
// at startup and shared across requests.
func NewService(generator image.Generator, materializer *Materializer, opts NormalizeOptions, logger *infra.Logger) *Service {
	if generator == nil {
		generator = image.Unconfigured{}
	}
	if materializer == nil {
		materializer = NewMaterializer(nil, "", "")
	}
	if logger == nil {
		l := zerolog.New(io.Discard)
		logger = &l
	}
	return &Service{generator: generator, materializer: materializer, normalize: opts, logger: logger}
}

// Provider names the adapter in use.
func (s *Service) Provider() string {
	return s.generator.Name()
}

// SupportedSizes lists the sizes the provider accepts, or nil when it takes
// any aspect ratio.
func (s *Service) SupportedSizes() []string {
	if lister, ok := s.generator.(image.SizeLister); ok {
		return lister.SupportedSizes()
	}
	return nil
}

// Styles exposes the preset catalog used by the normalizer.
func (s *Service) Styles() []StylePreset {
	return s.normalize.Styles.Presets()
}

// Generate never returns a nil error together with an empty output list.
func (s *Service) Generate(ctx context.Context, body RequestBody, requestID string) (*Result, error) {
	req, err := Normalize(body, s.normalize)
	if err != nil {
		return nil, err
	}
	req.RequestID = requestID

	log := s.logger.With().
		Str("request_id", requestID).
		Str("provider", s.generator.Name()).
		Str("aspect", string(req.Aspect)).
		Logger()
	log.Info().Int("prompt_len", len(req.Prompt)).Str("style", req.Style).Msg("imagegen: generation started")

	start := time.Now()
	job, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(job.Output) == 0 {
		return nil, fmt.Errorf("%s: %w", s.generator.Name(), domain.ErrEmptyResult)
	}

	assets, err := s.materializer.Materialize(ctx, job.Output)
	if err != nil {
		return nil, err
	}
	output := make([]string, len(assets))
	for i, asset := range assets {
		output[i] = asset.Reference
	}
	log.Info().
		Str("job_id", job.ID).
		Int("images", len(output)).
		Bool("persisted", s.materializer.Persists()).
		Dur("elapsed", time.Since(start)).
		Msg("imagegen: generation finished")

	size, aspect := resolvedSize(req, job)
	return &Result{
		Image:    output[0],
		Output:   output,
		Size:     size,
		Aspect:   aspect,
		Style:    req.Style,
		Provider: s.generator.Name(),
		JobID:    job.ID,
	}, nil
}

// resolvedSize prefers the size the adapter negotiated with the vendor over
// what the caller asked for, since adapters may coerce unsupported shapes.
func resolvedSize(req domain.GenerationRequest, job domain.ProviderJob) (string, domain.Aspect) {
	if job.Size != "" {
		if aspect, ok := ParseAspect(job.Size); ok {
			return job.Size, aspect
		}
		return job.Size, req.Aspect
	}
	if aspect, ok := ParseAspect(req.RawSize); ok && req.RawSize != "" && aspect == req.Aspect {
		return req.RawSize, req.Aspect
	}
	return req.Aspect.Size(), req.Aspect
}
