package service

// Log redaction for interaction bags. Honeypot payloads carry attacker
// credentials and tokens that must not land in plain text logs.

const (
	maxLogFieldLen  = 256
	maxLogListItems = 10
	maxRedactDepth  = 5
	redactedMark    = "***redacted***"
	truncatedMark   = "***truncated***"
)

var sensitiveKeys = map[string]bool{
	"password":      true,
	"pass":          true,
	"pwd":           true,
	"secret":        true,
	"token":         true,
	"authorization": true,
	"api_key":       true,
}

// Redact returns a copy of payload safe for logging: sensitive keys are
// masked, long strings and lists truncated, nesting capped.
func Redact(payload any) any {
	return redact(payload, 0)
}

func redact(payload any, depth int) any {
	if depth > maxRedactDepth {
		return truncatedMark
	}

	switch v := payload.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			if sensitiveKeys[lowerASCII(key)] {
				out[key] = redactedMark
			} else {
				out[key] = redact(val, depth+1)
			}
		}
		return out

	case []any:
		n := len(v)
		if n > maxLogListItems {
			n = maxLogListItems
		}
		out := make([]any, 0, n+1)
		for _, item := range v[:n] {
			out = append(out, redact(item, depth+1))
		}
		if len(v) > maxLogListItems {
			out = append(out, truncatedMark)
		}
		return out

	case string:
		if len(v) > maxLogFieldLen {
			return v[:maxLogFieldLen] + "…"
		}
		return v
	}

	return payload
}

func lowerASCII(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}
