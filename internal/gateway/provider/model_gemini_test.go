package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const groundedReply = `{
  "candidates": [{
    "content": {"role": "model", "parts": [{"text": "Three cafes nearby."}]},
    "groundingMetadata": {
      "groundingChunks": [
        {"web": {"uri": "https://a.example", "title": "Cafe A"}},
        {"maps": {"uri": "https://maps.example/b", "title": "Cafe B"}},
        {}
      ]
    }
  }]
}`

func TestGeminiProviderCall(t *testing.T) {
	var path string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(groundedReply))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.ID())

	resp, err := p.Call(context.Background(), Request{
		Purpose: "search",
		Model:   "gemini-3-flash-preview",
		System:  "cite sources",
		Text:    "coffee in Seattle",
		Tools:   []Tool{ToolSearch},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "models/gemini-3-flash-preview:generateContent"), path)
	assert.Equal(t, "Three cafes nearby.", resp.Text)
	assert.Equal(t, []Citation{
		{Title: "Cafe A", URI: "https://a.example"},
		{Title: "Cafe B", URI: "https://maps.example/b"},
	}, resp.Citations)

	parsed := gjson.ParseBytes(body)
	assert.Equal(t, "coffee in Seattle", parsed.Get("contents.0.parts.0.text").String())
	assert.Equal(t, "cite sources", parsed.Get("systemInstruction.parts.0.text").String())
}

func TestGeminiProviderRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}

func TestBuildGenerateConfig(t *testing.T) {
	cfg := buildGenerateConfig(Request{
		System: "sys",
		Schema: Object(Prop("summary", String(""))),
		Tools:  []Tool{ToolSearch, ToolMaps},
	})
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.ResponseSchema)
	require.Len(t, cfg.Tools, 2)
	assert.NotNil(t, cfg.Tools[0].GoogleSearch)
	assert.NotNil(t, cfg.Tools[1].GoogleMaps)
	require.NotNil(t, cfg.SystemInstruction)

	plain := buildGenerateConfig(Request{Text: "x"})
	assert.Empty(t, plain.ResponseMIMEType)
	assert.Nil(t, plain.SystemInstruction)
	assert.Empty(t, plain.Tools)
}

func TestBuildFromConfig(t *testing.T) {
	p, err := BuildFromConfig(context.Background(), ModelCfg{Provider: "openai", APIURL: "http://x"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.ID())

	_, err = BuildFromConfig(context.Background(), ModelCfg{Provider: "bard"})
	assert.Error(t, err)
}
