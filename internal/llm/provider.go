// Package llm provides the LLM backends used to extract register records.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/regextract/internal/config"
)

// Provider issues one completion request. Implementations never retry.
type Provider interface {
	Complete(ctx context.Context, system, user string) (Completion, error)
	// Name is the provider variant, e.g. "local-http".
	Name() string
	Model() string
}

// Completion is the literal model output plus token usage when reported.
type Completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// NewProvider builds the provider variant selected by cfg.
func NewProvider(ctx context.Context, cfg config.Config, logger *slog.Logger) (Provider, error) {
	kind, err := cfg.ProviderKind()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var p Provider
	switch kind {
	case config.ProviderLocalHTTP, config.ProviderHostedChat, config.ProviderAnthropic:
		p, err = NewModel(cfg)
	case config.ProviderVendorSDK:
		p, err = NewBedrockProvider(ctx, cfg.BedrockRegion, cfg.BedrockModel, cfg.Temperature)
	case config.ProviderAlternateHosted:
		p, err = NewHostedProvider(cfg.MaiaURL, cfg.MaiaAPIKey, cfg.MaiaModel, cfg.Temperature, logger)
	case config.ProviderVertex:
		p, err = NewVertexProvider(ctx, cfg.VertexProject, cfg.VertexRegion, cfg.VertexModel, cfg.VertexCredentials, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("provider ready", "provider", p.Name(), "model", p.Model())
	return p, nil
}
