package copilot

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// ============================================================================
// ADVISOR — Paraphrases pre-computed metrics through a chat-completion API
// ============================================================================
// The Advisor is the ONLY component that calls an external AI service.
// It never sees raw datasets: callers interpolate already-computed scalars
// into a prompt and get prose back.
//
// Failures never surface as Go errors. The dashboard shows whatever text
// comes back, so every failure mode is rendered inline:
//   no key        → NotConfiguredMessage, no network call
//   non-200       → ErrorPrefix + raw response body
//   transport/bad → ErrorPrefix + diagnostic
// ============================================================================

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Defaults for the hosted chat-completion endpoint.
const (
	DefaultEndpoint     = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel        = "openai/gpt-4o-mini"
	DefaultTemperature  = 0.4
	DefaultTimeout      = 30 * time.Second
	DefaultSystemPrompt = "Sei un AI advisor per consulenti assicurativi."
)

// Inline messages shown in place of a response.
const (
	NotConfiguredMessage = "⚠️ API key non configurata."
	ErrorPrefix          = "⚠️ Errore AI: "
)

// Config holds advisor configuration.
type Config struct {
	APIKey       string        // bearer token; empty disables the advisor
	Model        string        // model name (empty = DefaultModel)
	Endpoint     string        // full chat-completions URL (empty = DefaultEndpoint)
	SystemPrompt string        // empty = DefaultSystemPrompt
	Temperature  *float64      // nil = DefaultTemperature; 0 is a valid setting
	Timeout      time.Duration // 0 = DefaultTimeout
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.Temperature == nil {
		t := DefaultTemperature
		c.Temperature = &t
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Advisor sends single-turn prompts to a chat-completion endpoint.
type Advisor struct {
	config Config
	client *http.Client
	log    *slog.Logger
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithHTTPClient replaces the HTTP client. Its Timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Advisor) { a.client = c }
}

// WithLogger sets the logger for request events.
func WithLogger(l *slog.Logger) Option {
	return func(a *Advisor) { a.log = l }
}

// New creates an Advisor. Missing config fields take the package defaults.
func New(cfg Config, opts ...Option) *Advisor {
	cfg = cfg.withDefaults()
	a := &Advisor{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Configured reports whether a credential is available.
func (a *Advisor) Configured() bool {
	return a != nil && a.config.APIKey != ""
}

// Model returns the configured model name.
func (a *Advisor) Model() string { return a.config.Model }

// ============================================================================
// CHAT COMPLETION CALL
// ============================================================================

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Ask sends prompt as the user message and returns the model's reply
// verbatim, or an inline placeholder/diagnostic. It never retries.
func (a *Advisor) Ask(ctx context.Context, prompt string) string {
	if !a.Configured() {
		return NotConfiguredMessage
	}

	payload, err := json.Marshal(chatRequest{
		Model: a.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: a.config.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: *a.config.Temperature,
	})
	if err != nil {
		return ErrorPrefix + err.Error()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return ErrorPrefix + err.Error()
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("copilot request failed", "model", a.config.Model, "error", err)
		return ErrorPrefix + err.Error()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrorPrefix + err.Error()
	}

	if resp.StatusCode != http.StatusOK {
		a.log.Warn("copilot non-200 response", "status", resp.StatusCode, "model", a.config.Model)
		return ErrorPrefix + string(body)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return ErrorPrefix + string(body)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return ErrorPrefix + string(body)
	}

	a.log.Info("copilot response",
		"model", a.config.Model,
		"prompt_chars", len(prompt),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return *out.Choices[0].Message.Content
}
