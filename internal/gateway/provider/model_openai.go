package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"apilab/internal/apperr"
	"apilab/internal/logger"
	"apilab/internal/pkg/jsonutil"
)

// OpenAIChatClient talks to any OpenAI-compatible /chat/completions endpoint
// (OpenAI, DeepSeek, Qwen, local gateways). Built-in search and maps tools
// have no equivalent there and are dropped.
type OpenAIChatClient struct {
	id           string
	baseURL      string
	apiKey       string
	timeout      time.Duration
	extraHeaders map[string]string
	httpc        *http.Client
}

type OpenAIConfig struct {
	ID      string
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Headers map[string]string
}

func NewOpenAIChatClient(cfg OpenAIConfig) *OpenAIChatClient {
	id := strings.TrimSpace(cfg.ID)
	if id == "" {
		id = "openai"
	}
	return &OpenAIChatClient{
		id:           id,
		baseURL:      completionsURL(cfg.BaseURL),
		apiKey:       cfg.APIKey,
		timeout:      cfg.Timeout,
		extraHeaders: cfg.Headers,
		httpc:        &http.Client{},
	}
}

// completionsURL tolerates base URLs that already end in /chat/completions.
func completionsURL(base string) string {
	url := strings.TrimRight(strings.TrimSpace(base), "/")
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func (c *OpenAIChatClient) ID() string { return c.id }

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

func (c *OpenAIChatClient) Call(ctx context.Context, req Request) (Response, error) {
	op := c.id + "/" + req.Purpose
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	if len(req.Tools) > 0 {
		logger.Debugf("[model] %s ignoring unsupported tools %v", op, toolNames(req.Tools))
	}
	body := c.buildBody(req)
	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, apperr.RequestFailed(op, err)
	}
	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, fmt.Sprintf("%s (%d bytes)", img.MIMEType, len(img.Data)))
	}
	logger.LogLLMRequest(logger.LLMRequest{
		Provider: c.id,
		Purpose:  req.Purpose,
		Model:    req.Model,
		System:   req.System,
		User:     req.Text,
		Images:   images,
		Tools:    toolNames(req.Tools),
		Payload:  jsonutil.Pretty(string(payload)),
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return Response{}, apperr.RequestFailed(op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.extraHeaders {
		httpReq.Header.Set(k, v)
	}
	logger.Debugf("[model] POST %s model=%s headers=%v", c.baseURL, req.Model, maskHeaders(c.apiKey, c.extraHeaders))

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return Response{}, apperr.RequestFailed(op, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, apperr.RequestFailed(op, err)
	}
	if resp.StatusCode/100 != 2 {
		return Response{}, apperr.RequestFailed(op, fmt.Errorf("status=%d: %s", resp.StatusCode, errorMessage(raw, resp.Status)))
	}
	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Response{}, apperr.RequestFailed(op, fmt.Errorf("decode completion: %w", err))
	}
	if len(decoded.Choices) == 0 {
		return Response{}, apperr.RequestFailed(op, fmt.Errorf("empty choices"))
	}
	out := Response{Text: decoded.Choices[0].Message.Content}
	logger.LogLLMResponse(c.id, req.Purpose, out.Text, 0)
	return out, nil
}

func (c *OpenAIChatClient) buildBody(req Request) map[string]any {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	if len(req.Images) == 0 {
		messages = append(messages, chatMessage{Role: "user", Content: req.Text})
	} else {
		parts := make([]chatPart, 0, len(req.Images)+1)
		for _, img := range req.Images {
			parts = append(parts, chatPart{Type: "image_url", ImageURL: &chatImageURL{URL: img.DataURI()}})
		}
		parts = append(parts, chatPart{Type: "text", Text: req.Text})
		messages = append(messages, chatMessage{Role: "user", Content: parts})
	}
	body := map[string]any{"model": req.Model, "messages": messages}
	if req.Schema != nil {
		name := strings.NewReplacer("/", "_", " ", "_").Replace(req.Purpose)
		if name == "" {
			name = "response"
		}
		body["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   name,
				"schema": req.Schema.JSONSchema(),
			},
		}
	}
	return body
}

func errorMessage(raw []byte, status string) string {
	var eresp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(raw, &eresp)
	if msg := strings.TrimSpace(eresp.Error.Message); msg != "" {
		return msg
	}
	return status
}

// maskHeaders keeps only the last four characters of anything secret-looking.
func maskHeaders(apiKey string, extra map[string]string) map[string]string {
	mask := func(v string) string {
		if len(v) > 4 {
			return "****" + v[len(v)-4:]
		}
		return "****"
	}
	out := map[string]string{"Content-Type": "application/json"}
	if apiKey != "" {
		out["Authorization"] = "Bearer " + mask(apiKey)
	}
	for k, v := range extra {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "key") || strings.Contains(lk, "token") || strings.Contains(lk, "auth") {
			v = mask(v)
		}
		out[k] = v
	}
	return out
}
