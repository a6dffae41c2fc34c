package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	KindGemini = "gemini"
	KindOpenAI = "openai"
)

// ModelCfg is the provider-relevant slice of the model config section.
type ModelCfg struct {
	Provider string
	APIURL   string
	APIKey   string
	Timeout  time.Duration
	Headers  map[string]string
}

// BuildFromConfig constructs the configured backend.
func BuildFromConfig(ctx context.Context, m ModelCfg) (ModelProvider, error) {
	switch strings.ToLower(strings.TrimSpace(m.Provider)) {
	case "", KindGemini:
		return NewGeminiProvider(ctx, GeminiConfig{
			ID:      KindGemini,
			APIKey:  m.APIKey,
			BaseURL: m.APIURL,
			Timeout: m.Timeout,
			Headers: m.Headers,
		})
	case KindOpenAI:
		return NewOpenAIChatClient(OpenAIConfig{
			ID:      KindOpenAI,
			BaseURL: m.APIURL,
			APIKey:  m.APIKey,
			Timeout: m.Timeout,
			Headers: m.Headers,
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", m.Provider)
	}
}
