// Package adapter turns each simulated API into one model call: it builds the
// prompt and schema, calls the injected client and shapes the answer.
package adapter

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"apilab/internal/apperr"
	"apilab/internal/gateway/provider"
	"apilab/internal/logger"
	"apilab/internal/report"
)

// Models names the model used for each call family.
type Models struct {
	Text   string
	Vision string
	Maps   string
}

func DefaultModels() Models {
	return Models{
		Text:   "gemini-3-flash-preview",
		Vision: "gemini-2.5-flash-image",
		Maps:   "gemini-2.5-flash",
	}
}

// Snapshotter renders a page so the clinical audit can look at it.
type Snapshotter interface {
	Capture(ctx context.Context, url string) (provider.InlineData, error)
}

type Option func(*Adapters)

func WithSnapshotter(s Snapshotter) Option {
	return func(a *Adapters) { a.snap = s }
}

// Adapters holds no state beyond its dependencies; every method is one
// request/response round trip.
type Adapters struct {
	client provider.ModelProvider
	models Models
	snap   Snapshotter
}

func New(client provider.ModelProvider, models Models, opts ...Option) *Adapters {
	def := DefaultModels()
	if models.Text == "" {
		models.Text = def.Text
	}
	if models.Vision == "" {
		models.Vision = def.Vision
	}
	if models.Maps == "" {
		models.Maps = def.Maps
	}
	a := &Adapters{client: client, models: models}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TextTask selects the preamble for ProcessText.
type TextTask string

const (
	TaskTranslate TextTask = "TRANSLATE"
	TaskSentiment TextTask = "SENTIMENT"
	TaskQA        TextTask = "QA"
)

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func orDefault(s, def string) string {
	if blank(s) {
		return def
	}
	return s
}

// AnalyzeImage describes an uploaded image given as a data URI or raw base64.
func (a *Adapters) AnalyzeImage(ctx context.Context, dataURI, prompt string) (string, error) {
	img, err := ParseDataURI(dataURI)
	if err != nil {
		return "", err
	}
	resp, err := a.client.Call(ctx, provider.Request{
		Purpose: "vision",
		Model:   a.models.Vision,
		Text:    orDefault(prompt, defaultVisionPrompt),
		Images:  []provider.InlineData{img},
	})
	if err != nil {
		return "", fmt.Errorf("analyze image: %w", err)
	}
	return orDefault(resp.Text, emptyVision), nil
}

func (a *Adapters) ProcessText(ctx context.Context, text string, task TextTask, targetLang string) (string, error) {
	op := strings.ToLower(string(task))
	if blank(text) {
		return "", apperr.EmptyInput(op)
	}
	tpl, ok := textTaskPrompts[task]
	if !ok {
		return "", fmt.Errorf("unknown text task %q", task)
	}
	resp, err := a.client.Call(ctx, provider.Request{
		Purpose: op,
		Model:   a.models.Text,
		System:  tpl.system,
		Text:    tpl.user(text, orDefault(targetLang, "English")),
	})
	if err != nil {
		return "", fmt.Errorf("process text: %w", err)
	}
	return orDefault(resp.Text, emptyText), nil
}

func (a *Adapters) GenerateMarketData(ctx context.Context, query string) (report.MarketData, error) {
	if blank(query) {
		return report.MarketData{}, apperr.EmptyInput("market")
	}
	resp, err := a.client.Call(ctx, provider.Request{
		Purpose: "market",
		Model:   a.models.Text,
		Text:    fmt.Sprintf(marketPrompt, query),
		Schema:  report.MarketDataSchema,
	})
	if err != nil {
		return report.MarketData{}, fmt.Errorf("market data: %w", err)
	}
	var out report.MarketData
	if err := provider.DecodeStructured(resp.Text, report.MarketDataSchema, &out); err != nil {
		return report.MarketData{}, fmt.Errorf("market data: %w", err)
	}
	return out, nil
}

// SimulateAPI asks the model to answer as if it were the named API.
func (a *Adapters) SimulateAPI(ctx context.Context, apiName, input string) (string, error) {
	if blank(input) {
		return "", apperr.EmptyInput("simulate")
	}
	resp, err := a.client.Call(ctx, provider.Request{
		Purpose: "simulate",
		Model:   a.models.Text,
		Text:    fmt.Sprintf(simulatePrompt, apiName, input),
	})
	if err != nil {
		return "", fmt.Errorf("simulate %s: %w", apiName, err)
	}
	return orDefault(resp.Text, emptySim), nil
}

func (a *Adapters) LiveSearch(ctx context.Context, query string) (string, error) {
	if blank(query) {
		return "", apperr.EmptyInput("search")
	}
	resp, err := a.client.Call(ctx, provider.Request{
		Purpose: "search",
		Model:   a.models.Text,
		Text:    fmt.Sprintf(searchPrompt, query),
		Tools:   []provider.Tool{provider.ToolSearch},
	})
	if err != nil {
		return "", fmt.Errorf("live search: %w", err)
	}
	return resp.Text + FormatSources(resp.Citations), nil
}

func (a *Adapters) MapsQuery(ctx context.Context, query string) (string, error) {
	if blank(query) {
		return "", apperr.EmptyInput("maps")
	}
	resp, err := a.client.Call(ctx, provider.Request{
		Purpose: "maps",
		Model:   a.models.Maps,
		Text:    fmt.Sprintf(mapsPrompt, query),
		Tools:   []provider.Tool{provider.ToolMaps},
	})
	if err != nil {
		return "", fmt.Errorf("maps query: %w", err)
	}
	if blank(resp.Text) {
		return emptyMaps, nil
	}
	return resp.Text + FormatSources(resp.Citations), nil
}

// SiteAudit produces the generic twelve-resource report.
func (a *Adapters) SiteAudit(ctx context.Context, url string) (report.SiteReport, error) {
	if blank(url) {
		return report.SiteReport{}, apperr.EmptyInput("site_audit")
	}
	resp, err := a.client.Call(ctx, provider.Request{
		Purpose: "site_audit",
		Model:   a.models.Text,
		System:  siteAuditSystem,
		Text:    fmt.Sprintf(siteAuditPrompt, strings.TrimSpace(url)),
		Schema:  report.SiteReportSchema,
	})
	if err != nil {
		return report.SiteReport{}, fmt.Errorf("site audit: %w", err)
	}
	var out report.SiteReport
	if err := provider.DecodeStructured(resp.Text, report.SiteReportSchema, &out); err != nil {
		return report.SiteReport{}, fmt.Errorf("site audit: %w", err)
	}
	return out, nil
}

// ClinicalAudit produces the medical-metaphor report, grounded with search.
// A page screenshot is attached when a Snapshotter is configured; capture
// failures only cost the attachment.
func (a *Adapters) ClinicalAudit(ctx context.Context, url string) (report.ClinicalReport, error) {
	if blank(url) {
		return report.ClinicalReport{}, apperr.EmptyInput("clinical_audit")
	}
	url = strings.TrimSpace(url)
	prompt := fmt.Sprintf(clinicalAuditPrompt, url)
	var images []provider.InlineData
	if a.snap != nil {
		shot, err := a.snap.Capture(ctx, url)
		if err != nil {
			logger.Warnf("[audit] screenshot %s skipped: %v", url, err)
		} else {
			images = append(images, shot)
			prompt += clinicalScreenshotNote
		}
	}
	resp, err := a.client.Call(ctx, provider.Request{
		Purpose: "clinical_audit",
		Model:   a.models.Text,
		System:  clinicalAuditSystem,
		Text:    prompt,
		Images:  images,
		Schema:  report.ClinicalReportSchema,
		Tools:   []provider.Tool{provider.ToolSearch},
	})
	if err != nil {
		return report.ClinicalReport{}, fmt.Errorf("clinical audit: %w", err)
	}
	var out report.ClinicalReport
	if err := provider.DecodeStructured(resp.Text, report.ClinicalReportSchema, &out); err != nil {
		return report.ClinicalReport{}, fmt.Errorf("clinical audit: %w", err)
	}
	return out, nil
}

// FormatSources renders titled citations as a markdown list; untitled ones
// are skipped.
func FormatSources(cites []provider.Citation) string {
	var lines []string
	for _, c := range cites {
		if strings.TrimSpace(c.Title) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- [%s](%s)", c.Title, c.URI))
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n\n**Sources:**\n" + strings.Join(lines, "\n")
}

var dataURIMime = regexp.MustCompile(`:(.*?);`)

// ParseDataURI splits data:<mime>;base64,<payload>. Input without the data:
// prefix is taken as raw base64 JPEG. Nothing decodable counts as no input.
func ParseDataURI(s string) (provider.InlineData, error) {
	const op = "vision"
	s = strings.TrimSpace(s)
	if s == "" {
		return provider.InlineData{}, apperr.EmptyInput(op)
	}
	mime := "image/jpeg"
	payload := s
	if strings.HasPrefix(s, "data:") {
		header, rest, _ := strings.Cut(s, ",")
		if m := dataURIMime.FindStringSubmatch(header); m != nil && m[1] != "" {
			mime = m[1]
		}
		payload = rest
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return provider.InlineData{}, apperr.New(apperr.KindEmptyInput, op, fmt.Errorf("image payload is not base64: %w", err))
	}
	if len(data) == 0 {
		return provider.InlineData{}, apperr.EmptyInput(op)
	}
	return provider.InlineData{MIMEType: mime, Data: data}, nil
}
