package config

import (
	"os"
	"strings"
)

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":8080"
	defaultShutdownSeconds = 10
	defaultModelProvider   = "gemini"
	defaultModelTimeout    = 30
	defaultTextModel       = "gemini-3-flash-preview"
	defaultVisionModel     = "gemini-2.5-flash-image"
	defaultMapsModel       = "gemini-2.5-flash"
	defaultJournalMax      = 500
	defaultJournalOutput   = 4000
	defaultShotTimeout     = 20
	defaultViewportWidth   = 1366
	defaultViewportHeight  = 900
	defaultMetricsNS       = "apilab"
	defaultMetricsPath     = "/metrics"
)

// credentialEnv is consulted in order when model.api_key is empty.
var credentialEnv = []string{"GEMINI_API_KEY", "API_KEY"}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Model.applyDefaults(keys)
	c.Journal.applyDefaults(keys)
	c.Audit.applyDefaults(keys)
	c.Metrics.applyDefaults(keys)
	c.Catalog.Path = strings.TrimSpace(c.Catalog.Path)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		intFieldDefault(&a.ShutdownTimeoutSeconds, defaultShutdownSeconds),
	)
}

func (m *ModelConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("model.provider", &m.Provider, defaultModelProvider),
		intFieldDefault(&m.TimeoutSeconds, defaultModelTimeout),
		stringFieldDefault("model.text_model", &m.TextModel, defaultTextModel),
		stringFieldDefault("model.vision_model", &m.VisionModel, defaultVisionModel),
		stringFieldDefault("model.maps_model", &m.MapsModel, defaultMapsModel),
	)
	// An explicitly empty key in the file still falls back to the
	// environment.
	if strings.TrimSpace(m.APIKey) == "" {
		for _, name := range credentialEnv {
			if v := strings.TrimSpace(os.Getenv(name)); v != "" {
				m.APIKey = v
				break
			}
		}
	}
}

func (j *JournalConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault(&j.MaxEntries, defaultJournalMax),
		intFieldDefault(&j.OutputLimit, defaultJournalOutput),
	)
}

func (a *AuditConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault(&a.ScreenshotTimeoutSeconds, defaultShotTimeout),
		intFieldDefault(&a.ViewportWidth, defaultViewportWidth),
		intFieldDefault(&a.ViewportHeight, defaultViewportHeight),
	)
}

func (m *MetricsConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		boolFieldDefault("metrics.enabled", &m.Enabled, true),
		stringFieldDefault("metrics.namespace", &m.Namespace, defaultMetricsNS),
		stringFieldDefault("metrics.path", &m.Path, defaultMetricsPath),
	)
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return strings.TrimSpace(*target) == "" },
		apply: func() { *target = def },
	}
}

// intFieldDefault fills non-positive values whether or not the file set
// them.
func intFieldDefault(target *int, def int) fieldDefault {
	return fieldDefault{
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}

// boolFieldDefault only applies when the key is absent, since false is a
// meaningful explicit value.
func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:   key,
		apply: func() { *target = def },
	}
}
