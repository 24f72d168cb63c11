// internal/llm/router.go
package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
)

// Router implements schemas.LLMClient and dispatches each request to the
// client configured for its capability tier.
type Router struct {
	logger  *zap.Logger
	clients map[schemas.ModelTier]schemas.LLMClient
}

var _ schemas.LLMClient = (*Router)(nil)

// NewRouter creates a router with the specified clients for each tier.
func NewRouter(logger *zap.Logger, fastClient, powerfulClient schemas.LLMClient) (*Router, error) {
	if fastClient == nil {
		return nil, fmt.Errorf("fast tier client cannot be nil")
	}
	if powerfulClient == nil {
		return nil, fmt.Errorf("powerful tier client cannot be nil")
	}

	return &Router{
		logger: logger.Named("llm_router"),
		clients: map[schemas.ModelTier]schemas.LLMClient{
			schemas.TierFast:     fastClient,
			schemas.TierPowerful: powerfulClient,
		},
	}, nil
}

// Generate selects the client for the request's tier and forwards the request.
func (r *Router) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	// Default to the powerful tier if the tier is not specified.
	tier := req.Tier
	if tier == "" {
		tier = schemas.TierPowerful
	}

	client, ok := r.clients[tier]
	if !ok {
		return "", fmt.Errorf("no LLM client configured for tier: %s", tier)
	}

	r.logger.Debug("Routing LLM request", zap.String("tier", string(tier)))
	return client.Generate(ctx, req)
}

// Close closes every distinct underlying client.
func (r *Router) Close() error {
	closed := map[schemas.LLMClient]bool{}
	var firstErr error
	for _, client := range r.clients {
		if closed[client] {
			continue
		}
		closed[client] = true
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewClient builds the tiered router from the agent configuration,
// instantiating one Gemini client per configured model.
func NewClient(ctx context.Context, cfg config.AgentConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	routerCfg := cfg.LLM
	if len(routerCfg.Models) == 0 {
		return nil, fmt.Errorf("no LLM models configured under agent.llm.models")
	}

	instantiated := make(map[string]schemas.LLMClient)
	for name, modelCfg := range routerCfg.Models {
		var client schemas.LLMClient
		var err error
		switch modelCfg.Provider {
		case config.ProviderGemini:
			client, err = NewGeminiClient(ctx, modelCfg, logger)
		default:
			return nil, fmt.Errorf("unknown LLM provider '%s' for model '%s'", modelCfg.Provider, name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client for model '%s': %w", name, err)
		}
		instantiated[name] = client
		logger.Info("Instantiated LLM client",
			zap.String("name", name),
			zap.String("provider", string(modelCfg.Provider)),
			zap.String("model", modelCfg.Model))
	}

	fastClient, ok := instantiated[routerCfg.DefaultFastModel]
	if !ok {
		return nil, fmt.Errorf("default fast model '%s' not found in defined models", routerCfg.DefaultFastModel)
	}
	powerfulClient, ok := instantiated[routerCfg.DefaultPowerfulModel]
	if !ok {
		return nil, fmt.Errorf("default powerful model '%s' not found in defined models", routerCfg.DefaultPowerfulModel)
	}

	return NewRouter(logger, fastClient, powerfulClient)
}
