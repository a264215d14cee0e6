// Package llm implements extraction, note parsing, conflict explanation and
// change summaries on the Anthropic Messages API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultModel = anthropic.ModelClaudeSonnet4_5

	extractMaxTokens   = 8192
	noteMaxTokens      = 2048
	explainMaxTokens   = 512
	summarizeMaxTokens = 256
)

var (
	// ErrAPIKeyRequired is returned when an API key is needed but not provided.
	ErrAPIKeyRequired = errors.New("API key required")
	// ErrEmptyResponse indicates a reply without a text block.
	ErrEmptyResponse = errors.New("model returned no text")
)

// Config configures a Client.
type Config struct {
	APIKey string
	Model  string
	// MaxTokens caps extraction replies. Zero uses the default.
	MaxTokens int
	// MaxRetries is passed to the SDK. Zero disables retries.
	MaxRetries int
	// BaseURL overrides the API endpoint.
	BaseURL string
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration
}

// Client wraps the Anthropic API. It implements ingest.Extractor,
// capture.NoteParser, conflict.Explainer and merge.Summarizer.
type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	templates *template.Template
	logger    *slog.Logger
	now       func() time.Time
}

// NewClient creates a client. Env var ANTHROPIC_API_KEY takes precedence
// over cfg.APIKey.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	apiKey := cfg.APIKey
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY environment variable or provide via config", ErrAPIKeyRequired)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = extractMaxTokens
	}

	return &Client{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		templates: tmpl,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// complete sends one user prompt and returns the first text block.
func (c *Client) complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("messages request failed: %w", err)
	}
	if c.logger != nil {
		c.logger.Debug("model call", "model", c.model, "duration", time.Since(start), "stop_reason", message.StopReason)
	}

	if len(message.Content) == 0 {
		return "", ErrEmptyResponse
	}
	content := message.Content[0]
	if content.Type != "text" {
		return "", fmt.Errorf("%w: first block is %s", ErrEmptyResponse, content.Type)
	}
	return content.Text, nil
}

func (c *Client) render(name string, data any) (string, error) {
	var b strings.Builder
	if err := c.templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", name, err)
	}
	return b.String(), nil
}
