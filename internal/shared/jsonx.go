package shared

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes markdown code-fence markers around a model
// response, e.g. ```json ... ``` wrappers.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag on the opening fence
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}[]") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractJSON returns the first balanced JSON object or array substring.
// Used as a best-effort recovery when a provider wraps JSON in prose.
func ExtractJSON(s string) (string, bool) {
	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			open = s[i]
			close = '}'
			if open == '[' {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// DecodeModelJSON decodes a model response into v, defensively: code fences
// are stripped first, and if the cleaned text still fails to parse, the
// first balanced JSON substring is tried before giving up.
func DecodeModelJSON(s string, v interface{}) error {
	cleaned := StripCodeFences(s)
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	candidate, ok := ExtractJSON(cleaned)
	if !ok {
		return fmt.Errorf("no JSON found in model response")
	}
	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("failed to parse model response: %w", err)
	}
	return nil
}
