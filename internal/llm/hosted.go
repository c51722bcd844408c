package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/regextract/internal/config"
)

// HostedProvider talks to an OpenAI-style chat completions endpoint over
// plain HTTP (the MAIA gateway). Timeouts come from the caller's context.
type HostedProvider struct {
	url         string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
	logger      *slog.Logger
}

// Compile-time check that HostedProvider implements Provider.
var _ Provider = (*HostedProvider)(nil)

// NewHostedProvider creates a client for the alternate hosted endpoint.
func NewHostedProvider(url, apiKey, model string, temperature float64, logger *slog.Logger) (*HostedProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required for alternate hosted provider")
	}
	if url == "" {
		url = config.DefaultMaiaURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HostedProvider{
		url:         url,
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		client:      &http.Client{},
		logger:      logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage,omitempty"`
}

// Complete posts one chat request and returns the first choice's content.
func (p *HostedProvider) Complete(ctx context.Context, system, user string) (Completion, error) {
	reqID := uuid.New().String()
	start := time.Now()

	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: p.temperature,
	})
	if err != nil {
		return Completion{}, providerError(p.Name(), 0, "", fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return Completion{}, providerError(p.Name(), 0, "", fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("X-Request-ID", reqID)

	p.logger.Debug("llm.http.request", "req_id", reqID, "url", p.url, "content_length", len(body))

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("llm.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Completion{}, providerError(p.Name(), 0, "", fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, providerError(p.Name(), resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	p.logger.Debug("llm.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		return Completion{}, providerError(p.Name(), resp.StatusCode, string(raw), errors.New("unexpected status"))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Completion{}, providerError(p.Name(), resp.StatusCode, string(raw), fmt.Errorf("non-JSON response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return Completion{}, providerError(p.Name(), resp.StatusCode, string(raw), errors.New("no response choices"))
	}

	out := Completion{Text: parsed.Choices[0].Message.Content}
	if parsed.Usage != nil {
		out.InputTokens = parsed.Usage.PromptTokens
		out.OutputTokens = parsed.Usage.CompletionTokens
	}
	return out, nil
}

// Name returns the provider variant.
func (p *HostedProvider) Name() string {
	return string(config.ProviderAlternateHosted)
}

// Model returns the configured model name.
func (p *HostedProvider) Model() string {
	return p.model
}
