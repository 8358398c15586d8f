package domain

// Aspect is the closed set of shapes the browser can ask for.
type Aspect string

const (
	AspectSquare    Aspect = "square"
	AspectPortrait  Aspect = "portrait"
	AspectLandscape Aspect = "landscape"
)

// GenerationRequest is the normalized, provider-agnostic generation intent.
type GenerationRequest struct {
	// Prompt already includes the merged style text.
	Prompt string
	// Style is the label as the caller sent it, for echoing back.
	Style        string
	Aspect       Aspect
	RawSize      string
	ReferenceURL string
	RequestID    string
}

// Size is the canonical square/tall/wide size the browser UI offers for a.
func (a Aspect) Size() string {
	switch a {
	case AspectPortrait:
		return "1024x1792"
	case AspectLandscape:
		return "1792x1024"
	default:
		return "1024x1024"
	}
}
