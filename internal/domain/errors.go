package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrEmptyPrompt     = errors.New("prompt is required")
	ErrInvalidAspect   = errors.New("invalid size or aspect")
	ErrUnsupportedSize = errors.New("unsupported image size")
	ErrEmptyResult     = errors.New("provider returned no images")
)

// InvalidConfigurationError reports a missing credential or model selector.
type InvalidConfigurationError struct {
	Provider string
	Missing  string
}

func (e *InvalidConfigurationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("image provider not configured: %s", e.Missing)
	}
	return fmt.Sprintf("%s: missing configuration: %s", e.Provider, e.Missing)
}

// UpstreamRejectedError carries the vendor's own error detail for a well-formed
// request it refused.
type UpstreamRejectedError struct {
	Provider   string
	StatusCode int
	Code       string
	// Param names the request field the vendor blamed, when it says.
	Param  string
	Detail string
}

func (e *UpstreamRejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: upstream rejected request (%d %s): %s", e.Provider, e.StatusCode, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s: upstream rejected request (%d): %s", e.Provider, e.StatusCode, e.Detail)
}

// SizeRelated reports whether the vendor complained about the size parameter.
// Only a size error code, a size param or a quoted 'size' field reference
// count; prose that merely mentions a size does not.
func (e *UpstreamRejectedError) SizeRelated() bool {
	code := strings.ToLower(e.Code)
	if code == "size" || strings.Contains(code, "invalid_size") {
		return true
	}
	if strings.EqualFold(e.Param, "size") {
		return true
	}
	detail := strings.ToLower(e.Detail)
	return strings.Contains(detail, "did not match the expected pattern") ||
		strings.Contains(detail, "'size'") ||
		strings.Contains(detail, `"size"`)
}

// GenerationFailedError is returned when a polled job ends in failure or the
// loop is cut short. Job holds the last state we observed.
type GenerationFailedError struct {
	Provider string
	Job      ProviderJob
	Err      error
}

func (e *GenerationFailedError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(": generation failed")
	if e.Job.ID != "" {
		fmt.Fprintf(&b, " (job %s, status %s)", e.Job.ID, e.Job.RawStatus)
	}
	if e.Job.Error != "" {
		b.WriteString(": ")
		b.WriteString(e.Job.Error)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *GenerationFailedError) Unwrap() error { return e.Err }

// TransportError wraps a network failure talking to the vendor.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatus maps a pipeline error to the response code returned to the browser.
func HTTPStatus(err error) int {
	var (
		cfgErr      *InvalidConfigurationError
		rejectedErr *UpstreamRejectedError
		failedErr   *GenerationFailedError
		transErr    *TransportError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrEmptyPrompt),
		errors.Is(err, ErrInvalidAspect),
		errors.Is(err, ErrUnsupportedSize),
		errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &failedErr):
		return http.StatusInternalServerError
	case errors.As(err, &rejectedErr), errors.Is(err, ErrEmptyResult):
		return http.StatusBadGateway
	case errors.As(err, &transErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
