package config

import (
	"time"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Web         WebConfig         `yaml:"web"`
	GenAI       GenAIConfig       `yaml:"genai"`
	Astronomy   AstronomyConfig   `yaml:"astronomy"`
	Geolocation GeolocationConfig `yaml:"geolocation"`
	Artifacts   ArtifactConfig    `yaml:"artifacts"`
	Uploads     UploadConfig      `yaml:"uploads"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Trip        TripConfig        `yaml:"trip"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
	// TrustedProxies lists proxies whose X-Forwarded-For header is honoured.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type WebConfig struct {
	StaticDir string `yaml:"static_dir"`
}

// GenAIConfig points at an OpenAI-compatible chat completions endpoint.
type GenAIConfig struct {
	Type        string        `yaml:"type"`
	BaseURL     string        `yaml:"url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model_name"`
	VisionModel string        `yaml:"vision_model_name"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

type AstronomyConfig struct {
	AppID     string        `yaml:"app_id"`
	AppSecret string        `yaml:"app_secret"`
	BaseURL   string        `yaml:"url"`
	Style     string        `yaml:"style"`
	Timeout   time.Duration `yaml:"timeout"`
}

type GeolocationConfig struct {
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	Fallback Coordinate    `yaml:"fallback"`
}

type Coordinate struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type ArtifactConfig struct {
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
	Cleanup time.Duration `yaml:"cleanup"`
	Store   StoreConfig   `yaml:"store"`
}

type StoreConfig struct {
	Type   string            `yaml:"type"`
	SQLite ArtifactSQLite    `yaml:"sqlite,omitempty"`
	Redis  ArtifactRedis     `yaml:"redis,omitempty"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

type ArtifactSQLite struct {
	DSN string `yaml:"dsn,omitempty"`
}

type ArtifactRedis struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type UploadConfig struct {
	Dir      string         `yaml:"dir"`
	Security SecurityConfig `yaml:"security"`
}

type SecurityConfig struct {
	MaxFileSize    int64    `yaml:"max_file_size"`
	MaxPixels      int64    `yaml:"max_pixels"`
	MaxWidth       int      `yaml:"max_width"`
	MaxHeight      int      `yaml:"max_height"`
	AllowedFormats []string `yaml:"allowed_formats"`
	EnableDeepScan bool     `yaml:"enable_deep_scan"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// MetricsConfig toggles the Prometheus registry served at Path.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type TripConfig struct {
	DefaultRadiusMiles float64 `yaml:"default_radius_miles"`
	MaxRadiusMiles     float64 `yaml:"max_radius_miles"`
	// RadiusSlack scales the radius used to filter model output. Models
	// round distances, so points a little past the edge are still kept.
	RadiusSlack float64 `yaml:"radius_slack"`
}

// AstronomyConfigured reports whether star-chart credentials are present.
func (c *Config) AstronomyConfigured() bool {
	return c.Astronomy.AppID != "" && c.Astronomy.AppSecret != ""
}
