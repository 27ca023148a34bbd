package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON decodes the first JSON object found in raw model output into T.
// Markdown fences and surrounding prose are ignored. When check is non-nil it
// runs on the decoded value and its error is reported as ErrInvalidOutput.
func ExtractJSON[T any](raw string, check func(T) error) (T, error) {
	var out T

	block := firstObject(unfence(raw))
	if block == "" {
		return out, fmt.Errorf("%w: no JSON object in reply", ErrInvalidOutput)
	}
	if err := json.Unmarshal([]byte(block), &out); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if check != nil {
		if err := check(out); err != nil {
			var zero T
			return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
	}
	return out, nil
}

// unfence drops markdown fence lines and keeps everything else.
func unfence(s string) string {
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// firstObject returns the first balanced {...} span, respecting strings.
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth, inStr, esc := 0, false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case esc:
			esc = false
		case inStr && c == '\\':
			esc = true
		case c == '"':
			inStr = !inStr
		case inStr:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
