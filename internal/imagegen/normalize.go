package imagegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"promptpix/internal/domain"
)

// RequestBody is the inbound form. Text fields accept any JSON scalar and are
// coerced to strings.
type RequestBody struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
	Size   string `json:"size"`
	Aspect string `json:"aspect"`
}

// UnmarshalJSON coerces scalar values and folds styleLabel into style.
func (b *RequestBody) UnmarshalJSON(data []byte) error {
	var raw struct {
		Prompt     json.RawMessage `json:"prompt"`
		Style      json.RawMessage `json:"style"`
		StyleLabel json.RawMessage `json:"styleLabel"`
		Size       json.RawMessage `json:"size"`
		Aspect     json.RawMessage `json:"aspect"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Prompt = coerceText(raw.Prompt)
	b.Style = coerceText(raw.Style)
	if strings.TrimSpace(b.Style) == "" {
		b.Style = coerceText(raw.StyleLabel)
	}
	b.Size = coerceText(raw.Size)
	b.Aspect = coerceText(raw.Aspect)
	return nil
}

func coerceText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// NormalizeOptions tunes the normalizer per deployment.
type NormalizeOptions struct {
	// StrictAspect rejects unrecognized size/aspect input instead of
	// defaulting to square.
	StrictAspect bool
	Styles       *StyleCatalog
	// PublicBaseURL makes preset preview images resolvable by the vendor.
	PublicBaseURL string
}

// Normalize validates and shapes the inbound request into a generation intent.
func Normalize(body RequestBody, opts NormalizeOptions) (domain.GenerationRequest, error) {
	prompt := strings.TrimSpace(norm.NFC.String(body.Prompt))
	if prompt == "" {
		return domain.GenerationRequest{}, domain.ErrEmptyPrompt
	}
	style := strings.TrimSpace(norm.NFC.String(body.Style))

	aspectInput := body.Aspect
	if strings.TrimSpace(aspectInput) == "" {
		aspectInput = body.Size
	}
	aspect, ok := ParseAspect(aspectInput)
	if !ok {
		if opts.StrictAspect {
			return domain.GenerationRequest{}, fmt.Errorf("%w: %q", domain.ErrInvalidAspect, strings.TrimSpace(aspectInput))
		}
		aspect = domain.AspectSquare
	}

	req := domain.GenerationRequest{
		Prompt:  prompt,
		Style:   style,
		Aspect:  aspect,
		RawSize: canonicalSize(body.Size),
	}
	if style == "" {
		return req, nil
	}
	styleText := style
	if preset, found := opts.Styles.Lookup(style); found {
		if preset.Prompt != "" {
			styleText = style + ", " + preset.Prompt
		}
		if opts.PublicBaseURL != "" && preset.Preview != "" {
			req.ReferenceURL = strings.TrimRight(opts.PublicBaseURL, "/") + preset.Preview
		}
	}
	req.Prompt = MergeStyle(prompt, styleText)
	return req, nil
}

// MergeStyle appends the style to the prompt, prompt first.
func MergeStyle(prompt, style string) string {
	style = strings.TrimSpace(style)
	if style == "" {
		return prompt
	}
	return prompt + ". Style: " + style
}

// ParseAspect maps a size or aspect token to an Aspect. Empty input is the
// square default; ok is false only for input that could not be understood.
func ParseAspect(raw string) (domain.Aspect, bool) {
	token := strings.ToLower(strings.TrimSpace(raw))
	switch token {
	case "", "square", "auto":
		return domain.AspectSquare, true
	case "portrait", "vertical", "tall":
		return domain.AspectPortrait, true
	case "landscape", "horizontal", "wide":
		return domain.AspectLandscape, true
	}
	w, h, ok := splitDimensions(token)
	if !ok {
		return "", false
	}
	switch {
	case w == h:
		return domain.AspectSquare, true
	case w < h:
		return domain.AspectPortrait, true
	default:
		return domain.AspectLandscape, true
	}
}

func splitDimensions(token string) (int, int, bool) {
	token = strings.NewReplacer("×", "x", "*", "x", " ", "").Replace(token)
	left, right, found := strings.Cut(token, "x")
	if !found {
		left, right, found = strings.Cut(token, ":")
	}
	if !found {
		return 0, 0, false
	}
	w, err := strconv.Atoi(left)
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(right)
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// canonicalSize echoes a WxH size back in the vendor's "1024x1024" spelling.
func canonicalSize(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	w, h, ok := splitDimensions(token)
	if !ok || strings.Contains(token, ":") {
		return ""
	}
	return strconv.Itoa(w) + "x" + strconv.Itoa(h)
}
