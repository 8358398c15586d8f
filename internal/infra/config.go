package infra

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	Port          string
	PublicDir     string
	OutputDir     string
	PersistImages bool
	PublicBaseURL string
	StrictSize    bool
	CORSOrigins   []string

	ImageProvider string

	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIImageModel      string
	OpenAIImageSize       string
	OpenAIImageQuality    string
	OpenAIRejectBadSize   bool
	ReplicateAPIToken     string
	ReplicateBaseURL      string
	ReplicateModel        string
	ReplicateVersion      string
	ReplicateInput        string
	ReplicatePollInterval time.Duration
	ReplicatePollTimeout  time.Duration
	ReplicateMaxPolls     int

	ProviderTimeout  time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	publicDir := getEnv("PUBLIC_DIR", "public")
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "3000"),
		PublicDir:     publicDir,
		OutputDir:     getEnv("OUTPUT_DIR", filepath.Join(publicDir, "out")),
		PersistImages: getEnvBool("PERSIST_OUTPUTS", false),
		PublicBaseURL: normalizeBaseURL(os.Getenv("PUBLIC_BASE_URL")),
		StrictSize:    getEnvBool("STRICT_SIZE", false),
		CORSOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		ImageProvider: strings.ToLower(strings.TrimSpace(os.Getenv("IMAGE_PROVIDER"))),

		OpenAIAPIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIImageModel:      getEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
		OpenAIImageSize:       strings.TrimSpace(os.Getenv("OPENAI_IMAGE_SIZE")),
		OpenAIImageQuality:    strings.TrimSpace(os.Getenv("OPENAI_IMAGE_QUALITY")),
		OpenAIRejectBadSize:   getEnvBool("OPENAI_REJECT_UNSUPPORTED_SIZE", false),
		ReplicateAPIToken:     strings.TrimSpace(os.Getenv("REPLICATE_API_TOKEN")),
		ReplicateBaseURL:      getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ReplicateModel:        strings.TrimSpace(os.Getenv("REPLICATE_MODEL")),
		ReplicateVersion:      strings.TrimSpace(os.Getenv("REPLICATE_VERSION")),
		ReplicateInput:        strings.TrimSpace(os.Getenv("REPLICATE_INPUT")),
		ReplicatePollInterval: time.Millisecond * time.Duration(getEnvInt("REPLICATE_POLL_INTERVAL_MS", 1500)),
		ReplicatePollTimeout:  time.Second * time.Duration(getEnvInt("REPLICATE_POLL_TIMEOUT_SECONDS", 180)),
		ReplicateMaxPolls:     getEnvInt("REPLICATE_MAX_POLLS", 0),

		ProviderTimeout:  time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 120)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 240)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}
	return cfg, nil
}

// HasProviderKey reports whether any vendor credential is present.
func (c *Config) HasProviderKey() bool {
	return c.OpenAIAPIKey != "" || c.ReplicateAPIToken != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// normalizeBaseURL drops trailing slashes and anything that is not an absolute
// http(s) URL.
func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ""
	}
	return raw
}
