package infra

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PUBLIC_DIR", "")
	t.Setenv("OUTPUT_DIR", "")
	t.Setenv("OPENAI_IMAGE_MODEL", "")
	t.Setenv("REPLICATE_POLL_INTERVAL_MS", "")
	t.Setenv("PERSIST_OUTPUTS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "3000" {
		t.Fatalf("Port = %q, want 3000", cfg.Port)
	}
	if want := filepath.Join("public", "out"); cfg.OutputDir != want {
		t.Fatalf("OutputDir = %q, want %q", cfg.OutputDir, want)
	}
	if cfg.OpenAIImageModel != "gpt-image-1" {
		t.Fatalf("OpenAIImageModel = %q", cfg.OpenAIImageModel)
	}
	if cfg.ReplicatePollInterval != 1500*time.Millisecond {
		t.Fatalf("ReplicatePollInterval = %s", cfg.ReplicatePollInterval)
	}
	if cfg.PersistImages {
		t.Fatalf("PersistImages should default to false")
	}
}

func TestLoadConfigOutputDirFollowsPublicDir(t *testing.T) {
	t.Setenv("PUBLIC_DIR", "/srv/site")
	t.Setenv("OUTPUT_DIR", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if want := filepath.Join("/srv/site", "out"); cfg.OutputDir != want {
		t.Fatalf("OutputDir = %q, want %q", cfg.OutputDir, want)
	}
}

func TestLoadConfigPublicBaseURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "https://img.example.com/", want: "https://img.example.com"},
		{raw: "http://localhost:3000", want: "http://localhost:3000"},
		{raw: "img.example.com", want: ""},
		{raw: "ftp://img.example.com", want: ""},
		{raw: "", want: ""},
	}
	for _, tc := range tests {
		t.Setenv("PUBLIC_BASE_URL", tc.raw)
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig returned error: %v", err)
		}
		if cfg.PublicBaseURL != tc.want {
			t.Fatalf("PublicBaseURL(%q) = %q, want %q", tc.raw, cfg.PublicBaseURL, tc.want)
		}
	}
}

func TestLoadConfigParsesFlagsAndLists(t *testing.T) {
	t.Setenv("STRICT_SIZE", "true")
	t.Setenv("PERSIST_OUTPUTS", "1")
	t.Setenv("REPLICATE_MAX_POLLS", "40")
	t.Setenv("REPLICATE_POLL_INTERVAL_MS", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")
	t.Setenv("OPENAI_API_KEY", " sk-test ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.StrictSize || !cfg.PersistImages {
		t.Fatalf("flags not parsed: strict=%v persist=%v", cfg.StrictSize, cfg.PersistImages)
	}
	if cfg.ReplicateMaxPolls != 40 {
		t.Fatalf("ReplicateMaxPolls = %d", cfg.ReplicateMaxPolls)
	}
	if cfg.ReplicatePollInterval != 1500*time.Millisecond {
		t.Fatalf("invalid interval should fall back, got %s", cfg.ReplicatePollInterval)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("CORSOrigins = %#v", cfg.CORSOrigins)
	}
	if cfg.OpenAIAPIKey != "sk-test" || !cfg.HasProviderKey() {
		t.Fatalf("OpenAIAPIKey = %q", cfg.OpenAIAPIKey)
	}
}
