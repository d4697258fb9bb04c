// Package genai talks to an OpenAI-compatible chat completions endpoint
// (Gemini's compatibility layer by default) for text and vision prompts.
package genai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"adventure-server-go/internal/domain/eventbus"
	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/platform/observability"
	"adventure-server-go/internal/utils"
)

type Config struct {
	Type        string
	BaseURL     string
	APIKey      string
	Model       string
	VisionModel string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	HTTPClient  *http.Client
	// Events receives a capability error for every failed upstream call.
	Events eventbus.Publisher
}

// Provider issues single-shot (non-streaming) completions.
type Provider struct {
	config Config
	client *openai.Client
	logger *utils.Logger
}

// Request is one prompt, optionally with an image.
type Request struct {
	Prompt string
	// ImageURL is a data URI or https URL sent as an image_url part.
	ImageURL string
	// JSON asks the model for a JSON object response.
	JSON bool
}

func NewProvider(cfg Config, logger *utils.Logger) (*Provider, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "openai", "gemini":
	default:
		return nil, platformerrors.New(platformerrors.KindConfig, "genai.new_provider", "unsupported genai type: "+cfg.Type)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}

	p := &Provider{config: cfg, logger: logger}
	if cfg.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
		}
		if cfg.HTTPClient != nil {
			clientConfig.HTTPClient = cfg.HTTPClient
		}
		p.client = openai.NewClientWithConfig(clientConfig)
	} else {
		logger.WarnTag("GENAI", "api key not configured; trip, identify and fish lookups will fail")
	}
	return p, nil
}

// Configured reports whether an API key was supplied.
func (p *Provider) Configured() bool {
	return p.client != nil
}

// Complete sends the request and returns the first choice's text.
func (p *Provider) Complete(ctx context.Context, req Request) (text string, err error) {
	const op = "genai.complete"
	if p.client == nil {
		return "", platformerrors.New(platformerrors.KindConfig, op, "GEMINI_API_KEY not configured on server.")
	}

	model := p.config.Model
	message := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt}
	if req.ImageURL != "" {
		model = p.config.VisionModel
		message = openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    req.ImageURL,
					Detail: openai.ImageURLDetailAuto,
				}},
			},
		}
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    []openai.ChatCompletionMessage{message},
		Temperature: float32(p.config.Temperature),
		MaxTokens:   p.config.MaxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	operation := "text"
	if req.ImageURL != "" {
		operation = "vision"
	}
	ctx, end := observability.StartSpan(ctx, "genai", operation)
	defer func() { end(err) }()

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		p.logger.ErrorTag("GENAI", "%s completion failed: model=%s err=%v", operation, model, err)
		p.reportFailure(operation, err)
		return "", platformerrors.Wrap(platformerrors.KindUpstream, op, "generative model request failed", err)
	}
	if len(resp.Choices) == 0 {
		err = platformerrors.New(platformerrors.KindUpstream, op, "generative model returned no choices")
		p.reportFailure(operation, err)
		return "", err
	}

	text = strings.TrimSpace(resp.Choices[0].Message.Content)
	p.logger.DebugTag("GENAI", "%s completion: model=%s tokens=%d chars=%d elapsed=%s",
		operation, model, resp.Usage.TotalTokens, len(text), time.Since(start).Round(time.Millisecond))
	return text, nil
}

func (p *Provider) reportFailure(operation string, err error) {
	if p.config.Events == nil {
		return
	}
	p.config.Events.PublishAsync(eventbus.EventCapabilityError, eventbus.CapabilityEventData{
		Component: "genai",
		Operation: operation,
		Error:     err.Error(),
	})
}
