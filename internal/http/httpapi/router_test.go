package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"promptpix/internal/domain"
	"promptpix/internal/http/handlers"
	"promptpix/internal/imagegen"
	"promptpix/internal/infra"
	"promptpix/internal/storage"

	"github.com/rs/zerolog"
)

type fixedGenerator struct {
	job domain.ProviderJob
}

func (g fixedGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.ProviderJob, error) {
	return g.job, nil
}

func (g fixedGenerator) Name() string { return "fixed" }

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	publicDir := t.TempDir()
	outputDir := filepath.Join(publicDir, "out")
	if err := os.WriteFile(filepath.Join(publicDir, "index.html"), []byte("<html>promptpix</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(publicDir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}

	store, err := storage.NewFileStore(outputDir)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	generator := fixedGenerator{job: domain.ProviderJob{
		ID:     "job-1",
		Status: domain.JobStatusSucceeded,
		Output: []domain.ImageRef{domain.InlineImage([]byte("png-bytes"), "image/png")},
	}}
	logger := zerolog.Nop()
	service := imagegen.NewService(generator, imagegen.NewMaterializer(store, "/out", ""), imagegen.NormalizeOptions{
		Styles: imagegen.NewStyleCatalog(imagegen.DefaultStyles),
	}, &logger)

	app := handlers.NewApp(&infra.Config{}, logger, service)
	srv := httptest.NewServer(NewRouter(app, Options{
		PublicDir:   publicDir,
		OutputDir:   outputDir,
		CORSOrigins: []string{"*"},
		Logger:      logger,
	}))
	t.Cleanup(srv.Close)
	return srv, outputDir
}

func TestGenerateServesPersistedImage(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/generate", "application/json", strings.NewReader(`{"prompt":"a red fox","style":"noir"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
	var body struct {
		Image  string   `json:"image"`
		Output []string `json:"output"`
		Size   string   `json:"size"`
		Style  string   `json:"style"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(body.Image, "/out/img_") || !strings.HasSuffix(body.Image, ".png") {
		t.Fatalf("unexpected image ref %q", body.Image)
	}
	if body.Size != "1024x1024" || body.Style != "noir" {
		t.Fatalf("unexpected body %+v", body)
	}

	img, err := http.Get(srv.URL + body.Image)
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	defer img.Body.Close()
	if img.StatusCode != http.StatusOK || img.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("image status = %d, type = %q", img.StatusCode, img.Header.Get("Content-Type"))
	}
}

func TestRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/health", wantStatus: http.StatusOK, wantBody: `{"ok":true}`},
		{path: "/styles", wantStatus: http.StatusOK, wantBody: `"id":"noir"`},
		{path: "/debug", wantStatus: http.StatusOK, wantBody: `"provider":"fixed"`},
		{path: "/app.js", wantStatus: http.StatusOK, wantBody: "console.log(1)"},
		{path: "/", wantStatus: http.StatusOK, wantBody: "promptpix"},
		{path: "/gallery/123", wantStatus: http.StatusOK, wantBody: "promptpix"},
		{path: "/styles/noir.jpg", wantStatus: http.StatusNotFound},
		{path: "/assets/missing.js", wantStatus: http.StatusNotFound},
		{path: "/out/", wantStatus: http.StatusNotFound},
		{path: "/out/missing.png", wantStatus: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tc.path)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			buf := new(strings.Builder)
			if _, err := io.Copy(buf, resp.Body); err != nil {
				t.Fatalf("read: %v", err)
			}
			if tc.wantBody != "" && !strings.Contains(buf.String(), tc.wantBody) {
				t.Fatalf("body %q missing %q", buf.String(), tc.wantBody)
			}
		})
	}
}

func TestGenerateRejectsOtherMethods(t *testing.T) {
	srv, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/generate", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
