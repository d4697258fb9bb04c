package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	platformerrors "adventure-server-go/internal/platform/errors"
)

const (
	// DefaultPath is read when ADVENTURE_CONFIG is unset.
	DefaultPath = ".config.yaml"
	PathEnv     = "ADVENTURE_CONFIG"
)

// Loader layers the YAML file, the optional .env file and process
// environment variables on top of DefaultConfig.
type Loader struct {
	useDotEnv bool
	path      string
	getenv    func(string) string
	loaded    string
}

// NewLoader creates a loader that reads .config.yaml (or $ADVENTURE_CONFIG).
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		getenv:    os.Getenv,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath pins the YAML file location.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithEnv overrides environment lookup (useful for tests).
func (l *Loader) WithEnv(getenv func(string) string) *Loader {
	if getenv != nil {
		l.getenv = getenv
	}
	return l
}

// Path returns the file the last Load read, or "" when defaults were used.
func (l *Loader) Path() string {
	return l.loaded
}

// Load builds the effective configuration.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load", "failed to read .env", err)
		}
	}

	cfg := DefaultConfig()

	path := l.path
	if path == "" {
		path = l.getenv(PathEnv)
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load", "failed to parse "+path, err)
		}
		l.loaded = path
	case os.IsNotExist(err):
		l.loaded = ""
	default:
		return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load", "failed to read "+path, err)
	}

	l.applyEnv(cfg)

	if err := l.validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(l.getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&cfg.GenAI.APIKey, "GEMINI_API_KEY")
	set(&cfg.GenAI.BaseURL, "GENAI_BASE_URL")
	set(&cfg.GenAI.Model, "GENAI_MODEL")
	set(&cfg.GenAI.VisionModel, "GENAI_VISION_MODEL")
	set(&cfg.Astronomy.AppID, "APP_ID")
	set(&cfg.Astronomy.AppSecret, "APP_SECRET")
	set(&cfg.Geolocation.APIKey, "API_KEY")
	set(&cfg.Log.Level, "LOG_LEVEL")

	if v := l.getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return invalid("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Trip.DefaultRadiusMiles <= 0 {
		return invalid("trip.default_radius_miles must be positive")
	}
	if cfg.Trip.MaxRadiusMiles < cfg.Trip.DefaultRadiusMiles {
		return invalid("trip.max_radius_miles (%v) is below the default radius (%v)",
			cfg.Trip.MaxRadiusMiles, cfg.Trip.DefaultRadiusMiles)
	}
	if cfg.Trip.RadiusSlack < 1 {
		return invalid("trip.radius_slack must be at least 1, got %v", cfg.Trip.RadiusSlack)
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst <= 0) {
		return invalid("rate_limit requires positive rps and burst")
	}
	if cfg.Artifacts.TTL <= 0 {
		return invalid("artifacts.ttl must be positive")
	}
	switch strings.ToLower(cfg.Artifacts.Store.Type) {
	case "", "memory", "sqlite", "redis":
	default:
		return invalid("unsupported artifact store type: %s", cfg.Artifacts.Store.Type)
	}
	if lat := cfg.Geolocation.Fallback.Latitude; lat < -90 || lat > 90 {
		return invalid("geolocation.fallback.latitude out of range: %v", lat)
	}
	if lon := cfg.Geolocation.Fallback.Longitude; lon < -180 || lon > 180 {
		return invalid("geolocation.fallback.longitude out of range: %v", lon)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return platformerrors.New(platformerrors.KindConfig, "config.validate", fmt.Sprintf(format, args...))
}
