// Package llmtext decodes model output defensively. Oracle responses are
// untrusted free text: they may be wrapped in code fences, prefixed with
// prose, or not be JSON at all. Every decode is a fallible step and callers
// must keep a fallback branch.
package llmtext

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrMalformed reports that no well-formed JSON value could be located in
// the model output.
var ErrMalformed = errors.New("malformed model output")

// StripFences removes a leading ```json / ``` fence pair when present.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	} else {
		return s
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

// DecodeObject strips fences, locates the first balanced JSON object or
// array in raw, and unmarshals it into out. Returns ErrMalformed (wrapped)
// when nothing decodable is found.
func DecodeObject(raw string, out any) error {
	s := StripFences(raw)
	if s == "" {
		return ErrMalformed
	}
	candidate := firstJSONValue(s)
	if candidate == "" {
		return ErrMalformed
	}
	if err := json.Unmarshal([]byte(candidate), out); err != nil {
		return errors.Join(ErrMalformed, err)
	}
	return nil
}

// firstJSONValue scans for the first '{' or '[' and returns the substring
// up to its balanced closer, skipping brackets inside string literals.
func firstJSONValue(s string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' {
			start, open, close = i, '{', '}'
			break
		}
		if s[i] == '[' {
			start, open, close = i, '[', ']'
			break
		}
	}
	if start < 0 {
		return ""
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
				return s[start : i+1]
			}
		}
	}
	return ""
}
