package app

import (
	"fmt"
	"strings"

	"apilab/internal/catalog"
	"apilab/internal/config"
	"apilab/internal/logger"
)

type StartupSummary struct {
	Addr        string
	Provider    string
	Models      ModelSummary
	Catalog     CatalogSummary
	Journal     string
	Metrics     string
	Screenshots bool
}

type ModelSummary struct {
	Text   string
	Vision string
	Maps   string
}

type CatalogSummary struct {
	Source  string
	Version int64
	Lab     []string
	Tools   []string
}

func newStartupSummary(cfg *config.Config, providerID string, snap catalog.Snapshot, screenshots bool) *StartupSummary {
	s := &StartupSummary{
		Addr:     cfg.App.HTTPAddr,
		Provider: providerID,
		Models: ModelSummary{
			Text:   cfg.Model.TextModel,
			Vision: cfg.Model.VisionModel,
			Maps:   cfg.Model.MapsModel,
		},
		Catalog: CatalogSummary{
			Source:  "built-in",
			Version: snap.Version,
		},
		Journal:     "in-memory",
		Metrics:     "disabled",
		Screenshots: screenshots,
	}
	if p := strings.TrimSpace(cfg.Catalog.Path); p != "" {
		s.Catalog.Source = "built-in + " + p
	}
	if p := strings.TrimSpace(cfg.Journal.Path); p != "" {
		s.Journal = p
	}
	if cfg.Metrics.Enabled {
		s.Metrics = cfg.Metrics.Path
	}
	for _, c := range snap.Cards {
		if c.Group == catalog.GroupTools {
			s.Catalog.Tools = append(s.Catalog.Tools, c.ID)
		} else {
			s.Catalog.Lab = append(s.Catalog.Lab, c.ID)
		}
	}
	return s
}

// Print writes the summary to the process log.
func (s *StartupSummary) Print() {
	logger.InfoBlock(s.String())
}

func (s *StartupSummary) String() string {
	var b strings.Builder
	line := strings.Repeat("=", 80)
	title := "STARTUP SUMMARY"
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "%*s\n", 40+len(title)/2, title)
	fmt.Fprintln(&b, line)

	fmt.Fprintln(&b, "[MODEL]")
	fmt.Fprintf(&b, "  provider: %s\n", s.Provider)
	fmt.Fprintf(&b, "  text:     %s\n", s.Models.Text)
	fmt.Fprintf(&b, "  vision:   %s\n", s.Models.Vision)
	fmt.Fprintf(&b, "  maps:     %s\n", s.Models.Maps)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "[CARDS]")
	fmt.Fprintf(&b, "  source:  %s (v%d)\n", s.Catalog.Source, s.Catalog.Version)
	fmt.Fprintf(&b, "  lab:     %s\n", formatList(s.Catalog.Lab))
	fmt.Fprintf(&b, "  tools:   %s\n", formatList(s.Catalog.Tools))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "[RUNTIME]")
	fmt.Fprintf(&b, "  http:        %s\n", s.Addr)
	fmt.Fprintf(&b, "  journal:     %s\n", s.Journal)
	fmt.Fprintf(&b, "  metrics:     %s\n", s.Metrics)
	fmt.Fprintf(&b, "  screenshots: %t\n", s.Screenshots)
	fmt.Fprintln(&b, line)
	return b.String()
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
