package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"promptpix/internal/domain"
)

type imagesServer struct {
	mu       sync.Mutex
	calls    int
	lastBody map[string]any
	status   int
	response any
}

func (s *imagesServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.calls++
		s.lastBody = body
		status := s.status
		s.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(s.response)
	})
}

func newTestClient(t *testing.T, srv *httptest.Server, opts Options) *Client {
	t.Helper()
	opts.APIKey = "sk-test"
	opts.BaseURL = srv.URL + "/v1"
	opts.HTTPClient = srv.Client()
	client, err := NewClient(opts)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestGenerateDecodesInlineImages(t *testing.T) {
	stub := &imagesServer{response: map[string]any{
		"created": 1,
		"data": []any{
			map[string]any{"b64_json": "iVBORw0KGgo="},
			map[string]any{"url": "https://cdn.example.com/second.png"},
		},
	}}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	client := newTestClient(t, srv, Options{})
	job, err := client.Generate(context.Background(), domain.GenerationRequest{
		Prompt: "a cat. Style: noir",
		Aspect: domain.AspectPortrait,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if job.Status != domain.JobStatusSucceeded {
		t.Fatalf("status = %s", job.Status)
	}
	if len(job.Output) != 2 {
		t.Fatalf("outputs = %d, want 2", len(job.Output))
	}
	if job.Output[0].Kind != domain.ImageRefInline || len(job.Output[0].Data) != 8 {
		t.Fatalf("first output = %+v", job.Output[0])
	}
	if job.Output[1].Kind != domain.ImageRefURL || job.Output[1].URL != "https://cdn.example.com/second.png" {
		t.Fatalf("second output = %+v", job.Output[1])
	}
	if stub.lastBody["model"] != "gpt-image-1" {
		t.Fatalf("model = %v", stub.lastBody["model"])
	}
	if stub.lastBody["size"] != "1024x1536" {
		t.Fatalf("size = %v", stub.lastBody["size"])
	}
	if stub.lastBody["prompt"] != "a cat. Style: noir" {
		t.Fatalf("prompt = %v", stub.lastBody["prompt"])
	}
	if _, ok := stub.lastBody["response_format"]; ok {
		t.Fatalf("gpt-image models must not receive response_format")
	}
}

func TestGenerateSizeNegotiation(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		aspect   domain.Aspect
		wantSize string
		wantErr  error
	}{
		{name: "dall-e-3 landscape", opts: Options{Model: "dall-e-3"}, aspect: domain.AspectLandscape, wantSize: "1792x1024"},
		{name: "alias resolves", opts: Options{Model: "DALLE3"}, aspect: domain.AspectPortrait, wantSize: "1024x1792"},
		{name: "dall-e-2 coerces to square", opts: Options{Model: "dall-e-2"}, aspect: domain.AspectPortrait, wantSize: "1024x1024"},
		{name: "dall-e-2 rejects when strict", opts: Options{Model: "dall-e-2", RejectUnsupported: true}, aspect: domain.AspectLandscape, wantErr: domain.ErrUnsupportedSize},
		{name: "pinned size wins", opts: Options{Size: "1024x1536"}, aspect: domain.AspectLandscape, wantSize: "1024x1536"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &imagesServer{response: map[string]any{"data": []any{map[string]any{"b64_json": "AQID"}}}}
			srv := httptest.NewServer(stub.handler(t))
			defer srv.Close()

			client := newTestClient(t, srv, tc.opts)
			job, err := client.Generate(context.Background(), domain.GenerationRequest{Prompt: "lake", Aspect: tc.aspect})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				if stub.calls != 0 {
					t.Fatalf("vendor must not be called on a rejected size")
				}
				return
			}
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if stub.lastBody["size"] != tc.wantSize {
				t.Fatalf("size = %v, want %s", stub.lastBody["size"], tc.wantSize)
			}
			if job.Size != tc.wantSize {
				t.Fatalf("job size = %q, want %s", job.Size, tc.wantSize)
			}
		})
	}
}

func TestGenerateUpstreamRejected(t *testing.T) {
	stub := &imagesServer{
		status: http.StatusBadRequest,
		response: map[string]any{"error": map[string]any{
			"message": "Invalid value: '800x600'. Supported values are: '1024x1024', '1024x1536', '1536x1024', and 'auto'.",
			"type":    "invalid_request_error",
			"code":    "invalid_value",
			"param":   "size",
		}},
	}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	client := newTestClient(t, srv, Options{Size: "800x600"})
	_, err := client.Generate(context.Background(), domain.GenerationRequest{Prompt: "lake"})
	var rejected *domain.UpstreamRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want UpstreamRejectedError", err)
	}
	if rejected.StatusCode != http.StatusBadRequest || rejected.Code != "invalid_value" || rejected.Param != "size" {
		t.Fatalf("rejected = %+v", rejected)
	}
	if !rejected.SizeRelated() {
		t.Fatalf("expected size related rejection")
	}
}

func TestGenerateEmptyResult(t *testing.T) {
	stub := &imagesServer{response: map[string]any{"created": 1, "data": []any{}}}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	client := newTestClient(t, srv, Options{})
	_, err := client.Generate(context.Background(), domain.GenerationRequest{Prompt: "lake"})
	if !errors.Is(err, domain.ErrEmptyResult) {
		t.Fatalf("err = %v, want ErrEmptyResult", err)
	}
}

func TestGenerateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := newTestClient(t, srv, Options{})
	srv.Close()

	_, err := client.Generate(context.Background(), domain.GenerationRequest{Prompt: "lake"})
	var transport *domain.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("err = %v, want TransportError", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Options{})
	var cfgErr *domain.InvalidConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want InvalidConfigurationError", err)
	}
}

func TestSupportedSizes(t *testing.T) {
	client, err := NewClient(Options{APIKey: "k", Model: "dall-e-3"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	got := client.SupportedSizes()
	want := []string{"1024x1024", "1024x1792", "1792x1024"}
	if len(got) != len(want) {
		t.Fatalf("sizes = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sizes[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
