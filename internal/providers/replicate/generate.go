package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	replicatego "github.com/replicate/replicate-go"

	"promptpix/internal/domain"
)

var errPollLimit = errors.New("poll limit reached")

var aspectRatios = map[domain.Aspect]string{
	domain.AspectSquare:    "1:1",
	domain.AspectPortrait:  "2:3",
	domain.AspectLandscape: "3:2",
}

// Generate creates a prediction and polls it at a fixed interval until it
// reaches a terminal status, the poll bound is hit, or ctx ends.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (domain.ProviderJob, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return domain.ProviderJob{}, domain.ErrEmptyPrompt
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	pred, err := c.createPrediction(ctx, c.buildInput(req))
	if err != nil {
		return domain.ProviderJob{}, err
	}
	job := toJob(pred)
	c.logger.Debug().
		Str("prediction_id", job.ID).
		Str("status", job.RawStatus).
		Str("model", c.Model()).
		Msg("replicate: prediction created")

	polls := 0
	for !job.Status.Terminal() {
		if c.maxPolls > 0 && polls >= c.maxPolls {
			return job, c.failed(job, errPollLimit)
		}
		if err := c.wait(ctx, c.pollInterval); err != nil {
			return job, c.failed(job, err)
		}
		polls++
		next, err := c.getPrediction(ctx, job.ID)
		if err != nil {
			return job, c.failed(job, err)
		}
		job = toJob(next)
		c.logger.Debug().
			Str("prediction_id", job.ID).
			Str("status", job.RawStatus).
			Int("poll", polls).
			Msg("replicate: prediction polled")
	}

	if job.Status == domain.JobStatusFailed {
		return job, c.failed(job, nil)
	}
	if len(job.Output) == 0 {
		return job, fmt.Errorf("replicate: prediction %s: %w", job.ID, domain.ErrEmptyResult)
	}
	c.logger.Debug().
		Str("prediction_id", job.ID).
		Int("images", len(job.Output)).
		Int("polls", polls).
		Dur("elapsed", time.Since(start)).
		Msg("replicate: prediction succeeded")
	return job, nil
}

func (c *Client) failed(job domain.ProviderJob, cause error) error {
	return &domain.GenerationFailedError{Provider: providerName, Job: job, Err: cause}
}

func (c *Client) buildInput(req domain.GenerationRequest) map[string]any {
	input := make(map[string]any, len(c.input)+3)
	for k, v := range c.input {
		input[k] = v
	}
	input["prompt"] = strings.TrimSpace(req.Prompt)
	aspect := req.Aspect
	if aspect == "" {
		aspect = domain.AspectSquare
	}
	input["aspect_ratio"] = aspectRatios[aspect]
	if ref := strings.TrimSpace(req.ReferenceURL); ref != "" {
		input[c.imageInputKey] = ref
	}
	return input
}

func toJob(pred *replicatego.Prediction) domain.ProviderJob {
	job := domain.ProviderJob{
		ID:        pred.ID,
		RawStatus: string(pred.Status),
		Status:    domain.ParseJobStatus(string(pred.Status)),
		Error:     errorText(pred.Error),
	}
	if job.Status == domain.JobStatusSucceeded {
		job.Output = normalizeOutput(pred.Output)
	}
	return job
}

// normalizeOutput accepts a single reference, a list of references, or list
// items shaped as {"url": ...}. Order is preserved.
func normalizeOutput(output any) []domain.ImageRef {
	if raw, ok := output.(json.RawMessage); ok {
		if err := json.Unmarshal(raw, &output); err != nil {
			return nil
		}
	}
	var items []any
	switch v := output.(type) {
	case nil:
		return nil
	case []any:
		items = v
	default:
		items = []any{v}
	}
	refs := make([]domain.ImageRef, 0, len(items))
	for _, item := range items {
		if ref, ok := refFromValue(item); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func refFromValue(v any) (domain.ImageRef, bool) {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case map[string]any:
		for _, key := range []string{"url", "image", "uri"} {
			if str, ok := val[key].(string); ok {
				s = str
				break
			}
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.ImageRef{}, false
	}
	if ref, ok := domain.ParseDataURI(s); ok {
		return ref, true
	}
	return domain.RemoteImage(s), true
}

func errorText(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	case *string:
		if e == nil {
			return ""
		}
		return *e
	default:
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Sprint(e)
		}
		return string(raw)
	}
}
