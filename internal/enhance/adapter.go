package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/nao1215/labelscan/internal/analyzer"
	"github.com/nao1215/labelscan/internal/model"
)

// Defaults for Config fields left at their zero value.
const (
	DefaultEndpoint   = "https://api.openai.com/v1/chat/completions"
	DefaultModel      = "gpt-4o-mini"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryBase  = 500 * time.Millisecond
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// systemInstruction restricts the reply to the AnalysisResult object.
const systemInstruction = "You are a concise food-safety analyst. Return only valid JSON matching the schema described."

// userPromptFormat embeds the comma-joined token list.
const userPromptFormat = `Analyze the following ingredient list. Return JSON with keys: "health_score" (0-100), ` +
	`"summary", "breakdown" (array of {ingredient, classification [Healthy | Moderately Harmful | Harmful], ` +
	`severity [0-5], reason}), and "flags" (array). Ingredients: "%s"`

// Config holds the settings of an Adapter.
type Config struct {
	// Endpoint is the full chat-completions URL.
	Endpoint string

	// Model is the model name sent with every request.
	Model string

	// Timeout bounds one Enhance call, retries included.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt for
	// transport errors, 429 and 5xx responses.
	MaxRetries uint64

	// RetryBase is the first backoff delay; later delays double.
	RetryBase time.Duration

	// ProxyAddress routes requests through a SOCKS5 proxy (host:port).
	ProxyAddress string
}

// withDefaults fills zero fields with package defaults.
func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryBase <= 0 {
		c.RetryBase = DefaultRetryBase
	}
	return c
}

// Adapter implements analyzer.Enhancer over an OpenAI-compatible API.
type Adapter struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

var _ analyzer.Enhancer = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient replaces the HTTP client built from Config.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// NewAdapter creates an Adapter. It validates the endpoint and proxy but
// does not contact the service.
func NewAdapter(cfg Config, opts ...Option) (*Adapter, error) {
	cfg = cfg.withDefaults()

	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, cfg.Endpoint)
	}

	a := &Adapter{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.httpClient == nil {
		client, err := newHTTPClient(cfg.ProxyAddress, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		a.httpClient = client
	}

	return a, nil
}

// chatRequest is the chat-completions request body.
// Temperature has no omitempty so that zero is sent explicitly.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the subset of the chat-completions response we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Enhance asks the service to analyze tokens. It never returns an error
// value; failures are reported through the returned Enhancement.
func (a *Adapter) Enhance(ctx context.Context, tokens []string, credential string) analyzer.Enhancement {
	if len(tokens) == 0 {
		return analyzer.Failed(ErrNoTokens)
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return analyzer.Failed(ErrNoCredential)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	backoff := retry.WithMaxRetries(a.cfg.MaxRetries, retry.NewExponential(a.cfg.RetryBase))

	var content string
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		c, err := a.complete(ctx, tokens, credential)
		if err != nil {
			a.logger.Debug("completion attempt failed", "attempt", attempt, "error", err)
			return err
		}
		content = c
		return nil
	})
	if err != nil {
		return analyzer.Failed(err)
	}

	result, err := decodeAnalysis(content)
	if err != nil {
		return analyzer.Failed(err)
	}

	a.logger.Debug("completion accepted", "attempts", attempt, "items", len(result.Breakdown))
	return analyzer.Enhanced(analyzer.Finalize(result))
}

// complete performs one request and returns the message content.
// Transient failures are wrapped with retry.RetryableError.
func (a *Adapter) complete(ctx context.Context, tokens []string, credential string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: fmt.Sprintf(userPromptFormat, strings.Join(tokens, ", "))},
		},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("completion request aborted: %w", ctx.Err())
		}
		return "", retry.RetryableError(fmt.Errorf("completion request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", retry.RetryableError(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", retry.RetryableError(statusErr)
		}
		return "", statusErr
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: response envelope: %w", ErrMalformedJSON, err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	return parsed.Choices[0].Message.Content, nil
}

// decodeAnalysis validates and decodes completion content.
func decodeAnalysis(content string) (model.AnalysisResult, error) {
	raw := []byte(stripCodeFence(content))

	if err := validateContent(raw); err != nil {
		return model.AnalysisResult{}, err
	}

	var result model.AnalysisResult
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&result); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}

	for _, item := range result.Breakdown {
		healthy := item.Classification == model.ClassificationHealthy
		if healthy != (item.Severity == model.SeverityNone) {
			return model.AnalysisResult{}, fmt.Errorf("%w: %q is %s with severity %d",
				ErrInconsistentItem, item.Ingredient, item.Classification, item.Severity)
		}
	}

	return result, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence, which some
// models add even when asked for a bare JSON object.
func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
