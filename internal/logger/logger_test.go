package logger

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLLMLogSections(t *testing.T) {
	var buf bytes.Buffer
	SetLLMWriter(&buf)
	t.Cleanup(func() {
		SetLLMWriter(nil)
		EnableLLMPayloadDump(false)
	})

	EnableLLMPayloadDump(false)
	LogLLMRequest(LLMRequest{
		Provider: "gemini",
		Purpose:  "translate",
		Model:    "gemini-3-flash-preview",
		System:   "You are a translator.",
		User:     "Hello",
		Tools:    []string{"search"},
		Payload:  `{"secret":true}`,
	})
	out := buf.String()
	assert.Contains(t, out, "[LLM][request][gemini][translate]")
	assert.Contains(t, out, "--- SYSTEM ---\nYou are a translator.")
	assert.Contains(t, out, "--- TOOLS ---\nsearch")
	assert.NotContains(t, out, "PAYLOAD")

	buf.Reset()
	LogLLMResponse("gemini", "translate", "Hola", 2)
	assert.Contains(t, buf.String(), "--- RAW ---\nHola")
	assert.Contains(t, buf.String(), "--- CITATIONS ---\n2")
}

func TestLLMLogDisabled(t *testing.T) {
	SetLLMWriter(nil)
	LogLLMResponse("gemini", "qa", "ignored", 0)
}

func TestInfoBlockLogsEachLine(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("info")
	t.Cleanup(func() { SetOutput(os.Stdout) })

	InfoBlock("\n[MODEL]\n  provider: gemini\n")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[MODEL]")
	assert.Contains(t, lines[1], "provider: gemini")

	buf.Reset()
	InfoBlock("   ")
	assert.Empty(t, buf.String())
}
