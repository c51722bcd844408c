package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/regextract/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// anthropicMaxTokens bounds Anthropic replies, which require an explicit limit.
const anthropicMaxTokens = 4096

// Model wraps a langchaingo LLM. It serves the local-http, hosted-chat-api
// and anthropic variants.
type Model struct {
	llm         llms.Model
	provider    string
	modelName   string
	temperature float64
	maxTokens   int

	// foldSystem sends the system message as part of the user turn.
	foldSystem bool
}

// Compile-time check that Model implements Provider.
var _ Provider = (*Model)(nil)

// NewModel creates an LLM model based on configuration.
func NewModel(cfg config.Config) (*Model, error) {
	kind, err := cfg.ProviderKind()
	if err != nil {
		return nil, err
	}

	m := &Model{
		provider:    string(kind),
		temperature: cfg.Temperature,
	}

	switch kind {
	case config.ProviderLocalHTTP:
		m.modelName = cfg.OllamaModel
		m.llm, err = ollama.New(
			ollama.WithModel(cfg.OllamaModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderHostedChat:
		baseURL, apiKey, model := cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.OpenRouterModel
		if strings.EqualFold(cfg.Provider, "groq") {
			baseURL, apiKey, model = cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel
		}
		if apiKey == "" {
			return nil, fmt.Errorf("API key required for %s", cfg.Provider)
		}
		m.modelName = model
		m.foldSystem = rejectsSystemRole(model)
		m.llm, err = openai.New(
			openai.WithToken(apiKey),
			openai.WithModel(model),
			openai.WithBaseURL(baseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("create hosted chat model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		m.modelName = cfg.AnthropicModel
		m.maxTokens = anthropicMaxTokens
		m.llm, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.AnthropicModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("provider %s is not served by langchaingo", kind)
	}

	return m, nil
}

// rejectsSystemRole reports models that refuse a system message on
// OpenAI-compatible gateways.
func rejectsSystemRole(model string) bool {
	m := strings.ToLower(model)
	return strings.Contains(m, "gemma") || strings.Contains(m, "gemini")
}

// Complete sends the system and user message and returns the reply text.
func (m *Model) Complete(ctx context.Context, system, user string) (Completion, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
	if m.foldSystem {
		messages = []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, system+"\n\n"+user),
		}
	}

	opts := []llms.CallOption{llms.WithTemperature(m.temperature)}
	if m.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(m.maxTokens))
	}

	response, err := m.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return Completion{}, providerError(m.provider, 0, "", fmt.Errorf("generate: %w", err))
	}
	if len(response.Choices) == 0 {
		return Completion{}, providerError(m.provider, 0, "", errors.New("no response choices"))
	}

	choice := response.Choices[0]
	return Completion{
		Text:         choice.Content,
		InputTokens:  tokenCount(choice.GenerationInfo, "PromptTokens", "InputTokens"),
		OutputTokens: tokenCount(choice.GenerationInfo, "CompletionTokens", "OutputTokens"),
	}, nil
}

// Name returns the provider variant.
func (m *Model) Name() string {
	return m.provider
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

// tokenCount reads the first present usage key from langchaingo generation info.
func tokenCount(info map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return int64(v)
		case int32:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}
