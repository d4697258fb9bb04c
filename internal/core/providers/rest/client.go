// Package rest is the shared outbound HTTP client for third-party JSON APIs.
// Calls go through a per-client circuit breaker; nothing is retried.
package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	gobreaker "github.com/sony/gobreaker/v2"

	"adventure-server-go/internal/domain/eventbus"
	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/platform/observability"
	"adventure-server-go/internal/utils"
)

const maxBodyBytes = 4 << 20

type Config struct {
	Name    string
	Timeout time.Duration
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenFor is how long the breaker stays open before probing.
	OpenFor    time.Duration
	HTTPClient *http.Client
	// Events receives a capability error for transport failures, 5xx
	// replies and rejected calls while the breaker is open.
	Events eventbus.Publisher
}

// Response is a fully read upstream reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into out.
func (r *Response) DecodeJSON(out any) error {
	return sonic.Unmarshal(r.Body, out)
}

type Client struct {
	name    string
	timeout time.Duration
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*Response]
	events  eventbus.Publisher
	logger  *utils.Logger
}

type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return fmt.Sprintf("upstream status %d", e.status)
}

func New(cfg Config, logger *utils.Logger) *Client {
	if cfg.Name == "" {
		cfg.Name = "rest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	maxFailures := cfg.MaxFailures
	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WarnTag("OBS", "circuit breaker %s: %s -> %s", name, from, to)
			observability.RecordMetric(context.Background(), "circuit_breaker_state_"+name, stateValue(to), nil)
		},
	})

	return &Client{
		name:    cfg.Name,
		timeout: cfg.Timeout,
		http:    httpClient,
		cb:      cb,
		events:  cfg.Events,
		logger:  logger,
	}
}

// Do sends req with the client timeout. Transport errors and 5xx replies count
// against the breaker; non-2xx replies are still returned for the caller to map.
func (c *Client) Do(ctx context.Context, req *http.Request) (resp *Response, err error) {
	const op = "rest.do"

	ctx, end := observability.StartSpan(ctx, c.name, req.Method)
	defer func() { end(err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err = c.cb.Execute(func() (*Response, error) {
		raw, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer raw.Body.Close()

		body, err := io.ReadAll(io.LimitReader(raw.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		out := &Response{StatusCode: raw.StatusCode, Header: raw.Header, Body: body}
		if raw.StatusCode >= 500 {
			return out, &serverError{status: raw.StatusCode}
		}
		return out, nil
	})

	var se *serverError
	switch {
	case err == nil:
		return resp, nil
	case errors.As(err, &se):
		c.logger.WarnTag("OBS", "%s %s returned %d", c.name, req.URL.Host, se.status)
		c.reportFailure(req.Method, se)
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.reportFailure(req.Method, err)
		return nil, platformerrors.Wrap(platformerrors.KindUpstream, op, c.name+" temporarily unavailable", err)
	default:
		c.reportFailure(req.Method, err)
		return nil, platformerrors.Wrap(platformerrors.KindUpstream, op, c.name+" request failed", err)
	}
}

func (c *Client) reportFailure(method string, err error) {
	if c.events == nil {
		return
	}
	c.events.PublishAsync(eventbus.EventCapabilityError, eventbus.CapabilityEventData{
		Component: c.name,
		Operation: method,
		Error:     err.Error(),
	})
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindUpstream, "rest.get", "failed to build request", err)
	}
	copyHeader(req.Header, header)
	req.Header.Set("Accept", "application/json")
	return c.Do(ctx, req)
}

// PostJSON encodes body and POSTs it.
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, body any) (*Response, error) {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindUpstream, "rest.post_json", "failed to encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindUpstream, "rest.post_json", "failed to build request", err)
	}
	copyHeader(req.Header, header)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.Do(ctx, req)
}

// State exposes the breaker state name for health reporting.
func (c *Client) State() string {
	return c.cb.State().String()
}

// IsTimeout reports whether err came from a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
