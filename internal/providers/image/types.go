package image

import (
	"context"

	"promptpix/internal/domain"
)

// Generator is the contract implemented by all image providers. A nil error
// means the job is terminal-succeeded with at least one output.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.ProviderJob, error)
	Name() string
}

// SizeLister is implemented by adapters that only accept a fixed set of sizes.
type SizeLister interface {
	SupportedSizes() []string
}

// Unconfigured stands in when no provider could be resolved at startup so the
// server still answers health checks; every generation reports why.
type Unconfigured struct {
	Err error
}

// Generate fulfils the Generator interface.
func (u Unconfigured) Generate(context.Context, domain.GenerationRequest) (domain.ProviderJob, error) {
	if u.Err == nil {
		return domain.ProviderJob{}, &domain.InvalidConfigurationError{Missing: "OPENAI_API_KEY or REPLICATE_API_TOKEN"}
	}
	return domain.ProviderJob{}, u.Err
}

func (u Unconfigured) Name() string { return "none" }

var _ Generator = Unconfigured{}
