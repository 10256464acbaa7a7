// Package config loads the TOML configuration shared by the tryon binaries.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Gemini contains the generation service connection settings.
type Gemini struct {
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	Transport      string   `toml:"transport"` // "rest" or "genai"
	Models         []string `toml:"models"`
	APIVersions    []string `toml:"api_versions"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Engine contains the retry policy.
type Engine struct {
	MaxRetries      int `toml:"max_retries"`
	BackoffBaseMS   int `toml:"backoff_base_ms"`
	BackoffJitterMS int `toml:"backoff_jitter_ms"`
}

// RateLimit contains the client-side quota guard. A zero requests_per_minute
// disables it; a redis_addr shares the budget across processes.
type RateLimit struct {
	RequestsPerMinute int    `toml:"requests_per_minute"`
	Burst             int    `toml:"burst"`
	RedisAddr         string `toml:"redis_addr"`
	RedisPassword     string `toml:"redis_password"`
	RedisDB           int    `toml:"redis_db"`
	RedisKeyPrefix    string `toml:"redis_key_prefix"`
}

// Server contains the HTTP API settings.
type Server struct {
	Bind            string `toml:"bind"`
	MaxUploadMB     int    `toml:"max_upload_mb"`
	AllowClientKeys bool   `toml:"allow_client_keys"`
}

// Storage contains where generated images are saved.
type Storage struct {
	Dir               string `toml:"dir"`
	S3Bucket          string `toml:"s3_bucket"`
	S3Prefix          string `toml:"s3_prefix"`
	S3Endpoint        string `toml:"s3_endpoint"`
	S3Region          string `toml:"s3_region"`
	S3AccessKeyID     string `toml:"s3_access_key_id"`
	S3SecretAccessKey string `toml:"s3_secret_access_key"`
	S3PresignHours    int    `toml:"s3_presign_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"` // "console" or "json"
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tryon.
//
// Configuration sections by subsystem:
//   - Gemini: API key, endpoint, transport and candidate models
//   - Engine: retries and backoff
//   - RateLimit: client-side request budget
//   - Server: HTTP API bind address and upload limits
//   - Storage: local directory or S3-compatible bucket for results
//   - Logging: log format and level
type Config struct {
	Gemini    Gemini    `toml:"gemini"`
	Engine    Engine    `toml:"engine"`
	RateLimit RateLimit `toml:"ratelimit"`
	Server    Server    `toml:"server"`
	Storage   Storage   `toml:"storage"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has defaults applied, paths expanded and the API key filled from the
// environment when the file has none.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// RequireAPIKey reports a helpful error when no API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.Gemini.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'tryon config init')", defaultPath)
}

// RateLimitEnabled reports whether the quota guard should be installed.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimit.RequestsPerMinute > 0
}

// S3Enabled reports whether results go to a bucket rather than to disk.
func (c *Config) S3Enabled() bool {
	return c.Storage.S3Bucket != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
