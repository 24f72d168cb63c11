// internal/llm/gemini.go
package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
)

// GeminiClient implements schemas.LLMClient on top of the Google GenAI SDK.
// A per-client rate limiter keeps request bursts under the model's RPM quota.
type GeminiClient struct {
	client  *genai.Client
	model   string
	temp    float32
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ schemas.LLMClient = (*GeminiClient)(nil)

// NewGeminiClient connects to the Gemini API using the model's configuration.
func NewGeminiClient(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model name is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &GeminiClient{
		client:  client,
		model:   cfg.Model,
		temp:    cfg.Temperature,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		logger:  logger.Named("gemini").With(zap.String("model", cfg.Model)),
	}, nil
}

// Generate sends one prompt and returns the model's text reply.
func (c *GeminiClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter interrupted: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temp),
	}
	if req.Options.Temperature != 0 {
		genCfg.Temperature = genai.Ptr(float32(req.Options.Temperature))
	}
	if req.Options.ForceJSONFormat {
		genCfg.ResponseMIMEType = "application/json"
	}
	if req.SystemPrompt != "" {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.UserPrompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}

	c.logger.Debug("LLM generation complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_chars", len(text)),
	)
	return text, nil
}

// Close releases client resources. The underlying HTTP client holds no
// persistent connections that require teardown.
func (c *GeminiClient) Close() error {
	return nil
}
