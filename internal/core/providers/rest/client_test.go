package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"adventure-server-go/internal/domain/eventbus"
	platformerrors "adventure-server-go/internal/platform/errors"
)

func TestGetDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Token") != "abc" {
			t.Errorf("missing forwarded header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"loc":"40.7,-74.0"}`)
	}))
	defer srv.Close()

	c := New(Config{Name: "geo", Timeout: time.Second}, nil)
	resp, err := c.Get(context.Background(), srv.URL, http.Header{"X-Token": {"abc"}})
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("expected 2xx, got %d", resp.StatusCode)
	}
	var out struct {
		Loc string `json:"loc"`
	}
	if err := resp.DecodeJSON(&out); err != nil {
		t.Fatalf("DecodeJSON error: %v", err)
	}
	if out.Loc != "40.7,-74.0" {
		t.Fatalf("unexpected loc %q", out.Loc)
	}
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"style":"default"`) {
			t.Errorf("unexpected body %s", body)
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"bad observer"}`)
	}))
	defer srv.Close()

	c := New(Config{Name: "chart"}, nil)
	resp, err := c.PostJSON(context.Background(), srv.URL, nil, map[string]string{"style": "default"})
	if err != nil {
		t.Fatalf("PostJSON error: %v", err)
	}
	if resp.OK() || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 response, got %d", resp.StatusCode)
	}
	if c.State() != "closed" {
		t.Fatalf("4xx must not trip the breaker, state=%s", c.State())
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{Name: "flaky", MaxFailures: 2, OpenFor: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		resp, err := c.Get(context.Background(), srv.URL, nil)
		if err != nil {
			t.Fatalf("call %d: expected response, got error %v", i, err)
		}
		if resp.StatusCode != http.StatusBadGateway {
			t.Fatalf("call %d: expected 502, got %d", i, resp.StatusCode)
		}
	}

	_, err := c.Get(context.Background(), srv.URL, nil)
	if !platformerrors.IsKind(err, platformerrors.KindUpstream) {
		t.Fatalf("expected upstream error from open breaker, got %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("open breaker must not reach the server, hits=%d", hits.Load())
	}
	if c.State() != "open" {
		t.Fatalf("expected open state, got %s", c.State())
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(Config{Name: "slow", Timeout: 20 * time.Millisecond}, nil)
	_, err := c.Get(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Fatalf("expected IsTimeout to be true for %v", err)
	}
}

func TestFailuresPublishCapabilityErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	bus := eventbus.NewAsyncEventBus(1)
	bus.Start()
	defer bus.Stop()

	var mu sync.Mutex
	var got []eventbus.CapabilityEventData
	if err := bus.Subscribe(eventbus.EventCapabilityError, func(data eventbus.CapabilityEventData) {
		mu.Lock()
		got = append(got, data)
		mu.Unlock()
	}); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	c := New(Config{Name: "ipinfo", MaxFailures: 1, OpenFor: time.Minute, Events: bus}, nil)
	if _, err := c.Get(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("5xx reply should be returned, got %v", err)
	}
	if _, err := c.Get(context.Background(), srv.URL, nil); err == nil {
		t.Fatal("expected open breaker error")
	}

	ok := New(Config{Name: "quiet", Events: bus}, nil)
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer healthy.Close()
	if _, err := ok.Get(context.Background(), healthy.URL, nil); err != nil {
		t.Fatalf("healthy call failed: %v", err)
	}

	bus.WaitAsync()
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("expected two capability errors, got %+v", got)
	}
	for _, ev := range got {
		if ev.Component != "ipinfo" || ev.Operation != http.MethodGet || ev.Error == "" {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
}
