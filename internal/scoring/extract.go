package scoring

import "strings"

// extractJSON returns the first JSON object in a model reply, looking inside a ```json
// fence, then any fence, then matching braces in the raw text. It returns "" when there
// is no complete object.
func extractJSON(reply string) string {
	reply = strings.TrimSpace(reply)

	if start := strings.Index(reply, "```json"); start != -1 {
		body := reply[start+len("```json"):]
		if end := strings.Index(body, "```"); end != -1 {
			if candidate := strings.TrimSpace(body[:end]); strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	if start := strings.Index(reply, "```"); start != -1 {
		body := reply[start+3:]
		// skip the language tag
		if nl := strings.Index(body, "\n"); nl != -1 {
			body = body[nl+1:]
		}
		if end := strings.Index(body, "```"); end != -1 {
			if candidate := strings.TrimSpace(body[:end]); strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	return matchBraces(reply)
}

func matchBraces(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}
