package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"apilab/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestCompletionsURL(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", completionsURL(""))
	assert.Equal(t, "http://local/v1/chat/completions", completionsURL("http://local/v1/"))
	assert.Equal(t, "http://local/v1/chat/completions", completionsURL("http://local/v1/chat/completions"))
}

func TestOpenAIChatClientCall(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "lab", r.Header.Get("X-Client"))
		body, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": "hola"}}},
		})
	}))
	defer srv.Close()

	c := NewOpenAIChatClient(OpenAIConfig{BaseURL: srv.URL + "/v1", APIKey: "sk-test", Headers: map[string]string{"X-Client": "lab"}})
	resp, err := c.Call(context.Background(), Request{
		Purpose: "vision",
		Model:   "gpt-4o-mini",
		System:  "be brief",
		Text:    "describe",
		Images:  []InlineData{{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
		Schema:  Object(Prop("summary", String(""))),
		Tools:   []Tool{ToolSearch},
	})
	require.NoError(t, err)
	assert.Equal(t, "hola", resp.Text)
	assert.Empty(t, resp.Citations)

	parsed := gjson.ParseBytes(body)
	assert.Equal(t, "gpt-4o-mini", parsed.Get("model").String())
	assert.Equal(t, "system", parsed.Get("messages.0.role").String())
	assert.Equal(t, "data:image/png;base64,AQID", parsed.Get("messages.1.content.0.image_url.url").String())
	assert.Equal(t, "describe", parsed.Get("messages.1.content.1.text").String())
	assert.Equal(t, "json_schema", parsed.Get("response_format.type").String())
	assert.Equal(t, "summary", parsed.Get("response_format.json_schema.schema.required.0").String())
	assert.False(t, parsed.Get("tools").Exists())
}

func TestOpenAIChatClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIChatClient(OpenAIConfig{BaseURL: srv.URL})
	_, err := c.Call(context.Background(), Request{Purpose: "qa", Model: "m", Text: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrRequestFailed)
	assert.Contains(t, err.Error(), "overloaded")
	assert.Equal(t, 1, calls, "no retries")
}

func TestOpenAIChatClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewOpenAIChatClient(OpenAIConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := c.Call(context.Background(), Request{Purpose: "qa", Model: "m", Text: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrRequestFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestMaskHeaders(t *testing.T) {
	got := maskHeaders("sk-123456", map[string]string{"X-Api-Key": "abcdefgh", "X-Trace": "t1"})
	assert.Equal(t, "Bearer ****3456", got["Authorization"])
	assert.Equal(t, "****efgh", got["X-Api-Key"])
	assert.Equal(t, "t1", got["X-Trace"])
}
