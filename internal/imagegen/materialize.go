package imagegen

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"promptpix/internal/domain"
)

// ObjectWriter persists bytes under a key; storage.FileStore satisfies it.
type ObjectWriter interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Materializer turns provider outputs into servable references.
type Materializer struct {
	store      ObjectWriter
	publicPath string
	baseURL    string
}

// NewMaterializer persists inline images through store when it is non-nil;
// otherwise inline images come back as data URIs. publicPath is where the
// store's files are served from, baseURL optionally makes links absolute.
func NewMaterializer(store ObjectWriter, publicPath, baseURL string) *Materializer {
	publicPath = "/" + strings.Trim(strings.TrimSpace(publicPath), "/")
	return &Materializer{
		store:      store,
		publicPath: publicPath,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

// Persists reports whether inline images are written to storage.
func (m *Materializer) Persists() bool {
	return m != nil && m.store != nil
}

// Materialize keeps the vendor's order; element 0 is the primary image.
func (m *Materializer) Materialize(ctx context.Context, refs []domain.ImageRef) ([]domain.GeneratedAsset, error) {
	assets := make([]domain.GeneratedAsset, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		switch ref.Kind {
		case domain.ImageRefURL:
			assets[i] = domain.GeneratedAsset{Reference: ref.URL, ContentType: ref.ContentType}
		case domain.ImageRefInline:
			if !m.Persists() {
				assets[i] = domain.GeneratedAsset{Reference: ref.DataURI(), ContentType: contentTypeOf(ref)}
				continue
			}
			g.Go(func() error {
				asset, err := m.persist(gctx, ref)
				if err != nil {
					return err
				}
				assets[i] = asset
				return nil
			})
		default:
			g.Go(func() error {
				return fmt.Errorf("materialize: unknown image reference kind %q", ref.Kind)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

func (m *Materializer) persist(ctx context.Context, ref domain.ImageRef) (domain.GeneratedAsset, error) {
	contentType := contentTypeOf(ref)
	key := "img_" + uuid.NewString() + extensionForMIME(contentType)
	saved, err := m.store.Write(ctx, key, ref.Data)
	if err != nil {
		return domain.GeneratedAsset{}, fmt.Errorf("materialize: persist image: %w", err)
	}
	return domain.GeneratedAsset{
		Reference:   m.baseURL + path.Join(m.publicPath, saved),
		ContentType: contentType,
		StorageKey:  saved,
	}, nil
}

func contentTypeOf(ref domain.ImageRef) string {
	if ct := strings.TrimSpace(ref.ContentType); ct != "" {
		return ct
	}
	return domain.DefaultContentType
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
