package domain

import (
	"encoding/base64"
	"strings"
)

// ImageRefKind distinguishes inline payloads from remote references.
type ImageRefKind string

const (
	ImageRefInline ImageRefKind = "inline"
	ImageRefURL    ImageRefKind = "url"
)

// DefaultContentType is assumed when a vendor does not say otherwise.
const DefaultContentType = "image/png"

// ImageRef is one raw output of a provider, before materialization.
type ImageRef struct {
	Kind        ImageRefKind
	URL         string
	Data        []byte
	ContentType string
}

// InlineImage builds an inline reference, defaulting the content type.
func InlineImage(data []byte, contentType string) ImageRef {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		contentType = DefaultContentType
	}
	return ImageRef{Kind: ImageRefInline, Data: data, ContentType: contentType}
}

// RemoteImage builds a URL reference.
func RemoteImage(url string) ImageRef {
	return ImageRef{Kind: ImageRefURL, URL: strings.TrimSpace(url)}
}

// ParseDataURI decodes "data:<mime>;base64,<payload>". ok is false for anything else.
func ParseDataURI(uri string) (ImageRef, bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !found {
		return ImageRef{}, false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return ImageRef{}, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ImageRef{}, false
	}
	return InlineImage(data, strings.TrimSuffix(meta, ";base64")), true
}

// DataURI renders the inline payload of r.
func (r ImageRef) DataURI() string {
	contentType := r.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// GeneratedAsset is a servable result handed back to the caller.
type GeneratedAsset struct {
	Reference   string
	ContentType string
	StorageKey  string
}
