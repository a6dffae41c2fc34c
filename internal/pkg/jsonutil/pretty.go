package jsonutil

import (
	"encoding/json"
	"strings"
)

// Pretty re-indents raw JSON; anything that does not parse is returned as is.
func Pretty(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return PrettyValue(v, raw)
}

// PrettyValue indents an already decoded value, falling back when it cannot
// be marshalled.
func PrettyValue(v any, fallback string) string {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fallback
	}
	return string(buf)
}
