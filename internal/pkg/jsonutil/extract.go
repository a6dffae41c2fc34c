package jsonutil

import (
	"strings"

	"github.com/tidwall/gjson"
)

const codeFence = "```"

// ExtractJSON pulls the first JSON object or array out of model text, looking
// inside a fenced block first. The first span that parses wins.
func ExtractJSON(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if block, ok := fencedBlock(raw); ok {
		if out, ok := balanced(block); ok {
			return out, true
		}
		return block, true
	}
	return balanced(raw)
}

func fencedBlock(raw string) (string, bool) {
	start := strings.Index(raw, codeFence)
	if start == -1 {
		return "", false
	}
	rest := raw[start+len(codeFence):]
	end := strings.Index(rest, codeFence)
	if end == -1 {
		return "", false
	}
	block := strings.TrimLeft(rest[:end], "\r\n")
	// drop a language tag such as ```json
	if idx := strings.Index(block, "\n"); idx != -1 {
		if first := strings.TrimSpace(block[:idx]); first != "" && !strings.ContainsAny(first, "[{") {
			block = block[idx+1:]
		}
	}
	block = strings.TrimSpace(block)
	return block, block != ""
}

// balanced returns the first bracketed span that is valid JSON. Brackets in
// surrounding prose, such as "[v1]", are skipped.
func balanced(raw string) (string, bool) {
	for offset := 0; offset < len(raw); {
		rel := strings.IndexAny(raw[offset:], "[{")
		if rel == -1 {
			return "", false
		}
		start := offset + rel
		if end, ok := spanEnd(raw, start); ok && gjson.Valid(raw[start:end]) {
			return raw[start:end], true
		}
		offset = start + 1
	}
	return "", false
}

// spanEnd finds the index just past the bracket closing raw[start].
func spanEnd(raw string, start int) (int, bool) {
	open := raw[start]
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}
	depth := 0
	inString, escape := false, false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
