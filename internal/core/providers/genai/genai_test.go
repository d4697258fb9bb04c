package genai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"adventure-server-go/internal/domain/eventbus"
	platformerrors "adventure-server-go/internal/platform/errors"
)

type capturedRequest struct {
	Model          string `json:"model"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []json.RawMessage `json:"messages"`
}

func newChatServer(t *testing.T, reply string, status int, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if captured != nil {
			_ = json.Unmarshal(body, captured)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"error":{"message":"quota exceeded","type":"rate_limit"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gemini-test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
			"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 5, "total_tokens": 8},
		})
	}))
}

func newTestProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()
	p, err := NewProvider(Config{
		Type:        "openai",
		BaseURL:     baseURL + "/v1beta/openai/",
		APIKey:      "test-key",
		Model:       "gemini-text",
		VisionModel: "gemini-vision",
		Timeout:     5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	return p
}

func TestCompleteText(t *testing.T) {
	var captured capturedRequest
	srv := newChatServer(t, "  1. Bass\n2. Trout  ", http.StatusOK, &captured)
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	text, err := p.Complete(context.Background(), Request{Prompt: "list fish", JSON: true})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if text != "1. Bass\n2. Trout" {
		t.Fatalf("unexpected text %q", text)
	}
	if captured.Model != "gemini-text" {
		t.Fatalf("expected text model, got %s", captured.Model)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", captured.ResponseFormat)
	}
}

func TestCompleteVision(t *testing.T) {
	var captured capturedRequest
	srv := newChatServer(t, `{"common_name":"Heron"}`, http.StatusOK, &captured)
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	if _, err := p.Complete(context.Background(), Request{
		Prompt:   "identify",
		ImageURL: "data:image/png;base64,AAAA",
	}); err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if captured.Model != "gemini-vision" {
		t.Fatalf("expected vision model, got %s", captured.Model)
	}
	if len(captured.Messages) != 1 || !strings.Contains(string(captured.Messages[0]), `"image_url"`) {
		t.Fatalf("expected image_url part, got %s", captured.Messages)
	}
	if captured.ResponseFormat != nil {
		t.Fatalf("did not expect response format")
	}
}

func TestCompleteUpstreamError(t *testing.T) {
	srv := newChatServer(t, "", http.StatusTooManyRequests, nil)
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	_, err := p.Complete(context.Background(), Request{Prompt: "hi"})
	if !platformerrors.IsKind(err, platformerrors.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestCompleteFailurePublishesCapabilityError(t *testing.T) {
	srv := newChatServer(t, "", http.StatusInternalServerError, nil)
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

	p, err := NewProvider(Config{
		BaseURL:    srv.URL + "/v1beta/openai/",
		APIKey:     "test-key",
		Model:      "gemini-text",
		Timeout:    5 * time.Second,
		HTTPClient: &http.Client{},
		Events:     bus,
	}, nil)
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	if _, err := p.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected upstream error")
	}

	bus.WaitAsync()
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Component != "genai" || got[0].Operation != "text" || got[0].Error == "" {
		t.Fatalf("expected one genai capability error, got %+v", got)
	}
}

func TestCompleteWithoutKey(t *testing.T) {
	p, err := NewProvider(Config{Model: "m"}, nil)
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	if p.Configured() {
		t.Fatalf("expected unconfigured provider")
	}
	if _, err := p.Complete(context.Background(), Request{Prompt: "hi"}); !platformerrors.IsKind(err, platformerrors.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestNewProviderRejectsUnknownType(t *testing.T) {
	if _, err := NewProvider(Config{Type: "ollama"}, nil); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
