package astronomy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"adventure-server-go/internal/core/providers/rest"
	"adventure-server-go/internal/domain/geo"
	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/utils"
)

var fallback = geo.Coordinate{Latitude: 38.8951, Longitude: -77.0364}

func TestClientIP(t *testing.T) {
	tests := []struct {
		forwarded string
		remote    string
		want      string
	}{
		{"203.0.113.7, 10.0.0.1", "10.0.0.1:5555", "203.0.113.7"},
		{"", "198.51.100.4:40000", "198.51.100.4"},
		{" ", "[::1]:8080", "::1"},
		{"", "192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		if got := ClientIP(tt.forwarded, tt.remote); got != tt.want {
			t.Errorf("ClientIP(%q, %q) = %q, want %q", tt.forwarded, tt.remote, got, tt.want)
		}
	}
}

func TestIsLocal(t *testing.T) {
	for ip, want := range map[string]bool{
		"127.0.0.1":   true,
		"::1":         true,
		"0.0.0.0":     true,
		"":            true,
		"not-an-ip":   true,
		"8.8.8.8":     false,
		"203.0.113.7": false,
	} {
		if got := IsLocal(ip); got != want {
			t.Errorf("IsLocal(%q) = %v, want %v", ip, got, want)
		}
	}
}

func TestParseLoc(t *testing.T) {
	c, err := parseLoc("40.7143,-74.0060")
	if err != nil || c.Latitude != 40.7143 || c.Longitude != -74.006 {
		t.Fatalf("parseLoc = %+v, %v", c, err)
	}
	for _, bad := range []string{"", "40.7", "north,west", "95,10"} {
		if _, err := parseLoc(bad); err == nil {
			t.Errorf("parseLoc(%q) should fail", bad)
		}
	}
}

func TestIPInfoLocator(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/8.8.8.8/json" || r.URL.Query().Get("token") != "secret" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"8.8.8.8","city":"Mountain View","region":"California","country":"US","loc":"37.4056,-122.0775","timezone":"America/Los_Angeles"}`))
	}))
	defer srv.Close()

	locator := NewIPInfoLocator(rest.New(rest.Config{Name: "ipinfo", Timeout: time.Second}, nil), srv.URL, "secret", nil)
	if !locator.Configured() {
		t.Fatalf("locator with token should be configured")
	}
	loc, err := locator.Locate(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("Locate error: %v", err)
	}
	if loc.Latitude != 37.4056 || loc.Longitude != -122.0775 || loc.City != "Mountain View" {
		t.Fatalf("unexpected location: %+v", loc)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}
}

func TestIPInfoLocatorFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/1.1.1.1") {
			_, _ = w.Write([]byte(`{"ip":"1.1.1.1","bogon":true}`))
			return
		}
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	locator := NewIPInfoLocator(rest.New(rest.Config{Name: "ipinfo"}, nil), srv.URL, "secret", nil)
	for _, ip := range []string{"1.1.1.1", "9.9.9.9"} {
		if _, err := locator.Locate(context.Background(), ip); err == nil {
			t.Errorf("Locate(%s) should fail", ip)
		}
	}
}

func TestIPInfoLocatorSharedLookupOutlivesCanceledCaller(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case arrived <- struct{}{}:
		default:
		}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(`{"loc":"48.8534,2.3488","city":"Paris"}`))
	}))
	defer srv.Close()

	locator := NewIPInfoLocator(rest.New(rest.Config{Name: "ipinfo", Timeout: 5 * time.Second}, nil), srv.URL, "secret", nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := locator.Locate(firstCtx, "2.2.2.2")
		firstErr <- err
	}()
	<-arrived

	second := make(chan *Location, 1)
	go func() {
		loc, err := locator.Locate(context.Background(), "2.2.2.2")
		if err != nil {
			t.Errorf("second caller failed: %v", err)
		}
		second <- loc
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled caller should stop waiting, got %v", err)
	}

	close(release)
	select {
	case loc := <-second:
		if loc == nil || loc.City != "Paris" {
			t.Fatalf("unexpected location for second caller: %+v", loc)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second caller never got a result")
	}
}

func newChartServer(t *testing.T, handler http.HandlerFunc) (*ChartClient, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client := NewChartClient(rest.New(rest.Config{Name: "astronomyapi", Timeout: 100 * time.Millisecond}, nil), ChartConfig{
		URL:       srv.URL,
		AppID:     "app",
		AppSecret: "shh",
	}, nil)
	return client, srv.Close
}

func TestChartClientStarChart(t *testing.T) {
	var got chartRequest
	var auth string
	client, stop := newChartServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"imageUrl":"https://widgets.astronomyapi.com/star-chart/generated/abc.png"}}`))
	})
	defer stop()

	date := time.Date(2026, 10, 15, 21, 0, 0, 0, time.UTC)
	chart, err := client.StarChart(context.Background(), fallback, date)
	if err != nil {
		t.Fatalf("StarChart error: %v", err)
	}
	if chart.ImageURL != "https://widgets.astronomyapi.com/star-chart/generated/abc.png" {
		t.Fatalf("unexpected chart: %+v", chart)
	}
	if auth != "Basic YXBwOnNoaA==" {
		t.Fatalf("unexpected authorization header %q", auth)
	}
	if got.Style != "default" || got.Observer.Date != "2026-10-15" || got.Observer.Latitude != fallback.Latitude {
		t.Fatalf("unexpected observer: %+v", got)
	}
	if got.View.Type != "area" || got.View.Parameters.Zoom != 2 ||
		got.View.Parameters.Position.Equatorial.RightAscension != 1 ||
		got.View.Parameters.Position.Equatorial.Declination != fallback.Latitude {
		t.Fatalf("unexpected view: %+v", got.View)
	}
}

func TestChartClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		message string
	}{
		{
			name: "provider error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"invalid credentials"}`, http.StatusForbidden)
			},
			message: "Failed to generate star map.",
		},
		{
			name: "missing image url",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":{}}`))
			},
			message: "Astronomy API response format unexpected.",
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
			},
			message: "Timeout connecting to Astronomy API.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, stop := newChartServer(t, tt.handler)
			defer stop()
			_, err := client.StarChart(context.Background(), fallback, time.Now())
			if platformerrors.Message(err) != tt.message {
				t.Fatalf("expected %q, got %v", tt.message, err)
			}
		})
	}
}

func TestChartClientDetails(t *testing.T) {
	client, stop := newChartServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"other":"value"}}`))
	})
	defer stop()

	_, err := client.StarChart(context.Background(), fallback, time.Now())
	details, ok := platformerrors.DetailsOf(err).(map[string]any)
	if !ok || details["data"] == nil {
		t.Fatalf("expected decoded body in details, got %#v", platformerrors.DetailsOf(err))
	}
}

type fakeLocator struct {
	configured bool
	calls      int
	loc        *Location
	err        error
}

func (f *fakeLocator) Configured() bool { return f.configured }

func (f *fakeLocator) Locate(context.Context, string) (*Location, error) {
	f.calls++
	return f.loc, f.err
}

type fakeCharter struct {
	configured bool
	at         geo.Coordinate
}

func (f *fakeCharter) Configured() bool { return f.configured }

func (f *fakeCharter) StarChart(_ context.Context, at geo.Coordinate, _ time.Time) (*Chart, error) {
	f.at = at
	return &Chart{ImageURL: "https://example.test/chart.png"}, nil
}

func TestServiceLoopbackUsesFallback(t *testing.T) {
	locator := &fakeLocator{configured: true}
	charts := &fakeCharter{configured: true}
	svc := NewService(ServiceOptions{Locator: locator, Charts: charts, Fallback: fallback})

	chart, err := svc.ChartFor(context.Background(), "127.0.0.1")
	if err != nil {
		t.Fatalf("ChartFor error: %v", err)
	}
	if chart.ImageURL != "https://example.test/chart.png" || charts.at != fallback {
		t.Fatalf("expected fallback chart, got %+v at %+v", chart, charts.at)
	}
	if locator.calls != 0 {
		t.Fatalf("locator must not be called for loopback, got %d calls", locator.calls)
	}
}

func TestServiceUnparsableAddressWarnsAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	logger, err := utils.NewLogger(&utils.LogCfg{LogLevel: "info", LogDir: dir, LogFile: "astro.log"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	locator := &fakeLocator{configured: true}
	svc := NewService(ServiceOptions{Locator: locator, Fallback: fallback, Logger: logger})

	at, err := svc.Resolve(context.Background(), "not-an-ip")
	logger.Close()
	if err != nil || at != fallback {
		t.Fatalf("expected fallback, got %+v %v", at, err)
	}
	if locator.calls != 0 {
		t.Fatalf("locator must not be called for a malformed address")
	}

	data, err := os.ReadFile(filepath.Join(dir, "astro.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "not an IP") {
		t.Fatalf("expected a warning about the malformed address, got: %s", data)
	}
}

func TestServiceResolve(t *testing.T) {
	remote := geo.Coordinate{Latitude: 51.5072, Longitude: -0.1276}

	svc := NewService(ServiceOptions{Locator: &fakeLocator{configured: false}, Fallback: fallback})
	if at, err := svc.Resolve(context.Background(), "8.8.8.8"); err != nil || at != fallback {
		t.Fatalf("missing lookup key should use fallback, got %+v %v", at, err)
	}

	svc = NewService(ServiceOptions{Locator: &fakeLocator{configured: true, loc: &Location{Coordinate: remote}}, Fallback: fallback})
	if at, err := svc.Resolve(context.Background(), "8.8.8.8"); err != nil || at != remote {
		t.Fatalf("expected located coordinate, got %+v %v", at, err)
	}

	failing := &fakeLocator{configured: true, err: platformerrors.New(platformerrors.KindUpstream, "test", "boom")}
	svc = NewService(ServiceOptions{Locator: failing, Fallback: fallback})
	if _, err := svc.Resolve(context.Background(), "8.8.8.8"); platformerrors.Message(err) != "Could not determine location from IP address." {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceNotConfigured(t *testing.T) {
	svc := NewService(ServiceOptions{Charts: &fakeCharter{configured: false}, Fallback: fallback})
	_, err := svc.ChartFor(context.Background(), "127.0.0.1")
	if !platformerrors.IsKind(err, platformerrors.KindConfig) ||
		platformerrors.Message(err) != "Astronomy API credentials (APP_ID, APP_SECRET) not configured on server." {
		t.Fatalf("unexpected error: %v", err)
	}
}
