package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"apilab/internal/apperr"
	"apilab/internal/logger"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini API backend.
type GeminiConfig struct {
	ID      string
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

// GeminiProvider calls generateContent through the genai SDK.
type GeminiProvider struct {
	id      string
	client  *genai.Client
	timeout time.Duration
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini provider requires an api key")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions.BaseURL = base
	}
	for k, v := range cfg.Headers {
		if cc.HTTPOptions.Headers == nil {
			cc.HTTPOptions.Headers = make(map[string][]string)
		}
		cc.HTTPOptions.Headers.Set(k, v)
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	id := strings.TrimSpace(cfg.ID)
	if id == "" {
		id = "gemini"
	}
	return &GeminiProvider{id: id, client: client, timeout: cfg.Timeout}, nil
}

func (p *GeminiProvider) ID() string { return p.id }

func (p *GeminiProvider) Call(ctx context.Context, req Request) (Response, error) {
	op := p.id + "/" + req.Purpose
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	parts := make([]*genai.Part, 0, len(req.Images)+1)
	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
		images = append(images, fmt.Sprintf("%s (%d bytes)", img.MIMEType, len(img.Data)))
	}
	parts = append(parts, genai.NewPartFromText(req.Text))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := buildGenerateConfig(req)
	logger.LogLLMRequest(logger.LLMRequest{
		Provider: p.id,
		Purpose:  req.Purpose,
		Model:    req.Model,
		System:   req.System,
		User:     req.Text,
		Images:   images,
		Tools:    toolNames(req.Tools),
	})

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		logger.Warnf("[model] %s model=%s failed after %s: %v", op, req.Model, time.Since(start).Round(time.Millisecond), err)
		return Response{}, apperr.RequestFailed(op, err)
	}
	out := Response{Text: resp.Text(), Citations: groundingCitations(resp)}
	logger.LogLLMResponse(p.id, req.Purpose, out.Text, len(out.Citations))
	logger.Debugf("[model] %s model=%s done in %s len=%d citations=%d", op, req.Model,
		time.Since(start).Round(time.Millisecond), len(out.Text), len(out.Citations))
	return out, nil
}

func buildGenerateConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if sys := strings.TrimSpace(req.System); sys != "" {
		cfg.SystemInstruction = genai.NewContentFromText(sys, genai.RoleUser)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toGenAISchema(req.Schema)
	}
	for _, t := range req.Tools {
		switch t {
		case ToolSearch:
			cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
		case ToolMaps:
			cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleMaps: &genai.GoogleMaps{}})
		}
	}
	return cfg
}

func toGenAISchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:             genaiType(s.Type),
		Description:      s.Description,
		Enum:             s.Enum,
		Required:         s.Required,
		PropertyOrdering: s.Order,
		Items:            toGenAISchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, child := range s.Properties {
			out.Properties[name] = toGenAISchema(child)
		}
	}
	return out
}

func genaiType(t SchemaType) genai.Type {
	switch t {
	case TypeObject:
		return genai.TypeObject
	case TypeArray:
		return genai.TypeArray
	case TypeNumber:
		return genai.TypeNumber
	case TypeInteger:
		return genai.TypeInteger
	case TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// groundingCitations collects titled web and maps sources from the first
// candidate.
func groundingCitations(resp *genai.GenerateContentResponse) []Citation {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return nil
	}
	var out []Citation
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil {
			continue
		}
		switch {
		case chunk.Web != nil:
			out = append(out, Citation{Title: chunk.Web.Title, URI: chunk.Web.URI})
		case chunk.Maps != nil:
			out = append(out, Citation{Title: chunk.Maps.Title, URI: chunk.Maps.URI})
		}
	}
	return out
}
