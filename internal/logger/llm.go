package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// The LLM log is a separate sink for full prompts and raw model output, so the
// main log stays readable.
var (
	llmMu   sync.Mutex
	llmLog  *log.Logger
	llmDump bool
)

func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

// EnableLLMPayloadDump controls whether the serialized request body is written
// next to the prompts.
func EnableLLMPayloadDump(enabled bool) {
	llmMu.Lock()
	llmDump = enabled
	llmMu.Unlock()
}

// LLMRequest is what gets written for an outgoing model call.
type LLMRequest struct {
	Provider string
	Purpose  string
	Model    string
	System   string
	User     string
	Images   []string
	Tools    []string
	Payload  string
}

type llmSection struct {
	title string
	body  string
}

func LogLLMRequest(req LLMRequest) {
	sections := []llmSection{
		{title: "MODEL", body: req.Model},
		{title: "SYSTEM", body: req.System},
		{title: "USER", body: req.User},
	}
	if len(req.Tools) > 0 {
		sections = append(sections, llmSection{title: "TOOLS", body: strings.Join(req.Tools, ",")})
	}
	for i, img := range req.Images {
		sections = append(sections, llmSection{title: fmt.Sprintf("IMAGE#%d", i+1), body: img})
	}
	llmMu.Lock()
	dump := llmDump
	llmMu.Unlock()
	if dump && strings.TrimSpace(req.Payload) != "" {
		sections = append(sections, llmSection{title: "PAYLOAD", body: req.Payload})
	}
	writeLLM("request", req.Provider, req.Purpose, sections)
}

func LogLLMResponse(provider, purpose, raw string, citations int) {
	sections := []llmSection{{title: "RAW", body: raw}}
	if citations > 0 {
		sections = append(sections, llmSection{title: "CITATIONS", body: fmt.Sprintf("%d", citations)})
	}
	writeLLM("response", provider, purpose, sections)
}

func writeLLM(kind, provider, purpose string, sections []llmSection) {
	llmMu.Lock()
	out := llmLog
	llmMu.Unlock()
	if out == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[LLM]")
	for _, tag := range []string{kind, provider, purpose} {
		if tag == "" {
			continue
		}
		b.WriteString("[" + tag + "]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		if strings.TrimSpace(sec.body) == "" {
			continue
		}
		b.WriteString("--- " + sec.title + " ---\n")
		b.WriteString(sec.body)
		if !strings.HasSuffix(sec.body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	out.Print(b.String())
}
