package config

import (
	"strings"
	"time"
)

// Config is the root of configs/config.yaml.
type Config struct {
	App     AppConfig     `toml:"app"`
	Model   ModelConfig   `toml:"model"`
	Catalog CatalogConfig `toml:"catalog"`
	Journal JournalConfig `toml:"journal"`
	Audit   AuditConfig   `toml:"audit"`
	Metrics MetricsConfig `toml:"metrics"`
}

type AppConfig struct {
	Env                    string `toml:"env"`
	LogLevel               string `toml:"log_level"`
	HTTPAddr               string `toml:"http_addr"`
	LogPath                string `toml:"log_path"`
	LLMLog                 string `toml:"llm_log_path"`
	LLMDump                bool   `toml:"llm_dump_payload"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

func (a AppConfig) ShutdownTimeout() time.Duration {
	return time.Duration(a.ShutdownTimeoutSeconds) * time.Second
}

// ModelConfig selects the model backend. APIKey falls back to GEMINI_API_KEY
// and then API_KEY when the file leaves it empty.
type ModelConfig struct {
	Provider       string            `toml:"provider"`
	APIURL         string            `toml:"api_url"`
	APIKey         string            `toml:"api_key"`
	Headers        map[string]string `toml:"headers"`
	TimeoutSeconds int               `toml:"timeout_seconds"`
	TextModel      string            `toml:"text_model"`
	VisionModel    string            `toml:"vision_model"`
	MapsModel      string            `toml:"maps_model"`
}

func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

func (m ModelConfig) ProviderKind() string {
	return strings.ToLower(strings.TrimSpace(m.Provider))
}

// CatalogConfig points at an optional card override file. Empty means the
// built-in cards only.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// JournalConfig controls run history. An empty Path keeps it in memory.
type JournalConfig struct {
	Path        string `toml:"path"`
	MaxEntries  int    `toml:"max_entries"`
	OutputLimit int    `toml:"output_limit"`
}

type AuditConfig struct {
	Screenshot               bool `toml:"screenshot"`
	ScreenshotTimeoutSeconds int  `toml:"screenshot_timeout_seconds"`
	ViewportWidth            int  `toml:"viewport_width"`
	ViewportHeight           int  `toml:"viewport_height"`
}

func (a AuditConfig) ScreenshotTimeout() time.Duration {
	return time.Duration(a.ScreenshotTimeoutSeconds) * time.Second
}

type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Namespace string `toml:"namespace"`
	Path      string `toml:"path"`
}

// keySet tracks which dotted keys the config files set explicitly.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}
