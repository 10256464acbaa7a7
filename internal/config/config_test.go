package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/mhpenta/tryon"
	"github.com/mhpenta/tryon/internal/config"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
}

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "tryon", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Gemini.APIKey != "env-key" {
		t.Fatalf("expected key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Storage.Dir != filepath.Join(tempHome, ".local", "share", "tryon", "results") {
		t.Fatalf("unexpected storage dir: %q", cfg.Storage.Dir)
	}
	if cfg.Gemini.Transport != config.TransportREST {
		t.Fatalf("unexpected transport: %q", cfg.Gemini.Transport)
	}
	if len(cfg.Gemini.Models) != len(tryon.DefaultModels()) || cfg.Gemini.Models[0] != tryon.ModelFlashImagePreview {
		t.Fatalf("unexpected models: %v", cfg.Gemini.Models)
	}
	if cfg.Engine.MaxRetries != tryon.DefaultMaxRetries {
		t.Fatalf("unexpected max retries: %d", cfg.Engine.MaxRetries)
	}
	if cfg.RateLimitEnabled() {
		t.Fatal("expected rate limiting disabled by default")
	}
	if err := cfg.RequireAPIKey(); err != nil {
		t.Fatalf("RequireAPIKey: %v", err)
	}
}

func TestLoadFallsBackToGoogleAPIKey(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("HOME", t.TempDir())

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Gemini.APIKey != "google-key" {
		t.Fatalf("expected GOOGLE_API_KEY fallback, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "tryon.toml")
	content := `
[gemini]
api_key = "  file-key  "
transport = "GenAI"
models = ["model-a", " ", "model-b"]

[engine]
max_retries = 3

[ratelimit]
requests_per_minute = 30

[storage]
dir = "~/looks"
s3_prefix = "/tryon/"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Gemini.APIKey != "file-key" {
		t.Fatalf("file key should win over env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Transport != config.TransportGenAI {
		t.Fatalf("unexpected transport: %q", cfg.Gemini.Transport)
	}
	if strings.Join(cfg.Gemini.Models, ",") != "model-a,model-b" {
		t.Fatalf("unexpected models: %v", cfg.Gemini.Models)
	}
	if cfg.Engine.MaxRetries != 3 || cfg.Engine.BackoffBaseMS != 1000 {
		t.Fatalf("unexpected engine config: %+v", cfg.Engine)
	}
	if !cfg.RateLimitEnabled() {
		t.Fatal("expected rate limiting enabled")
	}
	if !strings.HasSuffix(cfg.Storage.Dir, "looks") || !filepath.IsAbs(cfg.Storage.Dir) {
		t.Fatalf("unexpected storage dir: %q", cfg.Storage.Dir)
	}
	if cfg.Storage.S3Prefix != "tryon" {
		t.Fatalf("unexpected s3 prefix: %q", cfg.Storage.S3Prefix)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown transport", "[gemini]\ntransport = \"grpc\"\n", "gemini.transport"},
		{"no models", "[gemini]\nmodels = []\n", "gemini.models"},
		{"zero retries", "[engine]\nmax_retries = 0\n", "engine.max_retries"},
		{"too many retries", "[engine]\nmax_retries = 11\n", "at most 10"},
		{"negative rate", "[ratelimit]\nrequests_per_minute = -1\n", "ratelimit.requests_per_minute"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
		{"unknown key", "[gemini]\napi_token = \"x\"\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tryon.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := config.Default()
	err := cfg.RequireAPIKey()
	if err == nil || !strings.Contains(err.Error(), "tryon config init") {
		t.Fatalf("expected helpful error, got %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(sample): %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	want := config.Default()
	if cfg.Engine != want.Engine {
		t.Fatalf("sample engine section drifted from defaults: %+v", cfg.Engine)
	}
	if strings.Join(cfg.Gemini.Models, ",") != strings.Join(want.Gemini.Models, ",") {
		t.Fatalf("sample models drifted from defaults: %v", cfg.Gemini.Models)
	}
}
