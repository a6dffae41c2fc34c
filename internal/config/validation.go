package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if strings.TrimSpace(c.App.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr is required")
	}
	if err := c.Model.validate(); err != nil {
		return err
	}
	if c.Journal.MaxEntries < 0 {
		return fmt.Errorf("journal.max_entries must be >= 0")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}
	return nil
}

func (m *ModelConfig) validate() error {
	switch m.ProviderKind() {
	case "gemini":
		if strings.TrimSpace(m.APIKey) == "" {
			return fmt.Errorf("model.api_key is required for gemini (or set %s)", strings.Join(credentialEnv, " / "))
		}
	case "openai":
		if strings.TrimSpace(m.APIURL) == "" {
			return fmt.Errorf("model.api_url is required for openai-compatible providers")
		}
	default:
		return fmt.Errorf("model.provider must be gemini or openai, got %q", m.Provider)
	}
	if m.TimeoutSeconds <= 0 {
		return fmt.Errorf("model.timeout_seconds must be > 0")
	}
	for name, model := range map[string]string{
		"text_model":   m.TextModel,
		"vision_model": m.VisionModel,
		"maps_model":   m.MapsModel,
	} {
		if strings.TrimSpace(model) == "" {
			return fmt.Errorf("model.%s is required", name)
		}
	}
	return nil
}
