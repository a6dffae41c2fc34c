package provider

import (
	"encoding/json"
	"strings"

	"apilab/internal/apperr"
	"apilab/internal/pkg/jsonutil"

	"github.com/tidwall/gjson"
)

// DecodeStructured parses a schema-constrained response body into out. An
// empty body, text that is not JSON, or a document that violates the schema
// yields apperr.KindMalformedResponse; no lower-level parse error escapes.
func DecodeStructured(text string, schema *Schema, out any) error {
	const op = "decode"
	raw := strings.TrimSpace(text)
	if raw == "" {
		return apperr.Malformed(op, "empty response body")
	}
	if !gjson.Valid(raw) {
		extracted, ok := jsonutil.ExtractJSON(raw)
		if !ok || !gjson.Valid(extracted) {
			return apperr.Malformed(op, "response is not valid JSON")
		}
		raw = extracted
	}
	if schema != nil {
		if want := schema.Type; want == TypeObject && !gjson.Parse(raw).IsObject() {
			return apperr.Malformed(op, "expected a JSON object")
		}
		var doc any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return apperr.Malformed(op, "%v", err)
		}
		if err := schema.Validate(doc); err != nil {
			return apperr.Malformed(op, "schema violation: %v", err)
		}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return apperr.Malformed(op, "%v", err)
	}
	return nil
}
