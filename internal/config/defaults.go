package config

import "github.com/mhpenta/tryon"

const (
	defaultConfigPath      = "~/.config/tryon/config.toml"
	projectConfigName      = "tryon.toml"
	defaultTransport       = TransportREST
	defaultTimeoutSeconds  = 120
	maxRetriesLimit        = 10
	defaultBackoffBaseMS   = 1000
	defaultBackoffJitterMS = 1000
	defaultBind            = "127.0.0.1:8080"
	defaultMaxUploadMB     = 20
	defaultStorageDir      = "~/.local/share/tryon/results"
	defaultS3Region        = "us-east-1"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Supported transports.
const (
	TransportREST  = "rest"
	TransportGenAI = "genai"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	models := make([]string, 0, 3)
	for _, m := range tryon.DefaultModels() {
		models = append(models, m.ID)
	}

	return Config{
		Gemini: Gemini{
			Transport:      defaultTransport,
			Models:         models,
			APIVersions:    append([]string(nil), tryon.DefaultAPIVersions...),
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Engine: Engine{
			MaxRetries:      tryon.DefaultMaxRetries,
			BackoffBaseMS:   defaultBackoffBaseMS,
			BackoffJitterMS: defaultBackoffJitterMS,
		},
		Server: Server{
			Bind:        defaultBind,
			MaxUploadMB: defaultMaxUploadMB,
		},
		Storage: Storage{
			Dir:      defaultStorageDir,
			S3Region: defaultS3Region,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
