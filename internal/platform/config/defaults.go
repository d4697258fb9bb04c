package config

import "time"

// DefaultConfig returns the baseline configuration; file values and environment
// overrides are layered on top of it.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 5001,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			StaticDir: "./web",
		},
		GenAI: GenAIConfig{
			Type:        "openai",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:       "gemini-1.5-flash-latest",
			VisionModel: "gemini-1.5-flash-latest",
			Temperature: 0.7,
			MaxTokens:   4096,
			Timeout:     60 * time.Second,
		},
		Astronomy: AstronomyConfig{
			BaseURL: "https://api.astronomyapi.com/api/v2/studio/star-chart",
			Style:   "default",
			Timeout: 30 * time.Second,
		},
		Geolocation: GeolocationConfig{
			BaseURL: "https://ipinfo.io",
			Timeout: 5 * time.Second,
			Fallback: Coordinate{
				Latitude:  38.8951,
				Longitude: -77.0364,
			},
		},
		Artifacts: ArtifactConfig{
			Dir:     "data/maps",
			TTL:     time.Hour,
			Cleanup: 5 * time.Minute,
			Store: StoreConfig{
				Type: "memory",
				SQLite: ArtifactSQLite{
					DSN: "data/adventure.db",
				},
				Redis: ArtifactRedis{
					Prefix: "artifact:",
				},
			},
		},
		Uploads: UploadConfig{
			Dir: "data/uploads",
			Security: SecurityConfig{
				MaxFileSize:    5 * 1024 * 1024,
				MaxPixels:      16777216,
				MaxWidth:       8192,
				MaxHeight:      8192,
				AllowedFormats: []string{"jpeg", "jpg", "png", "webp", "gif"},
				EnableDeepScan: true,
			},
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     5,
			Burst:   10,
		},
		Trip: TripConfig{
			DefaultRadiusMiles: 15.0,
			MaxRadiusMiles:     250.0,
			RadiusSlack:        1.25,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
