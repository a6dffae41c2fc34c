package provider

import (
	"context"
	"encoding/base64"
	"time"
)

// DefaultTimeout bounds a single model call when the config does not set one.
const DefaultTimeout = 30 * time.Second

// Tool names a built-in capability the model may use while answering.
type Tool string

const (
	ToolSearch Tool = "search"
	ToolMaps   Tool = "maps"
)

// InlineData is binary content sent with the prompt, e.g. an uploaded image.
type InlineData struct {
	MIMEType string
	Data     []byte
}

// DataURI renders the payload as data:<mime>;base64,<payload>.
func (d InlineData) DataURI() string {
	return "data:" + d.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
}

// Request is one model call. Purpose only labels logs and metrics.
type Request struct {
	Purpose string
	Model   string
	System  string
	Text    string
	Images  []InlineData
	Schema  *Schema
	Tools   []Tool
}

// Citation is a grounding source returned alongside search or maps answers.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type Response struct {
	Text      string
	Citations []Citation
}

// ModelProvider sends a single request and returns the generated text. It
// never retries or caches; transport and provider failures surface as
// apperr.KindRequestFailed.
type ModelProvider interface {
	ID() string
	Call(ctx context.Context, req Request) (Response, error)
}

func toolNames(tools []Tool) []string {
	out := make([]string, 0, len(tools))
	for _, t := range tools {
		out = append(out, string(t))
	}
	return out
}

// withTimeout applies the client bound unless the caller already set a
// tighter deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
