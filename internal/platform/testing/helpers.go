package testing

import (
	"testing"
	"time"

	"adventure-server-go/internal/platform/config"
	"adventure-server-go/internal/platform/logging"
)

// SetupTestConfig returns defaults rooted in a per-test temp dir, with rate
// limiting off and credentials absent.
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Server.IP = "127.0.0.1"
	cfg.Log = config.LogConfig{
		Level: "debug",
		Dir:   dir + "/logs",
		File:  "test.log",
	}
	cfg.Web.StaticDir = dir + "/web"
	cfg.Artifacts.Dir = dir + "/maps"
	cfg.Artifacts.Cleanup = 50 * time.Millisecond
	cfg.Uploads.Dir = dir + "/uploads"
	cfg.RateLimit.Enabled = false

	return cfg
}

func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	cfg := SetupTestConfig(t)
	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })

	return logger
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error but got nil")
	}
}

func AssertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if expected != actual {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}
