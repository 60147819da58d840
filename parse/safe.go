package parse

import (
	"encoding/json"
	"strings"
)

// TryParseStrict unmarshals text into T with no recovery at all. Any
// structural or type mismatch reports ok=false; nothing is raised to the
// caller.
func TryParseStrict[T any](text string) (value T, ok bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return value, false
	}
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		var zero T
		return zero, false
	}
	return value, true
}

// SafeParse is the repair-then-retry path: a strict parse first, then one
// Repair attempt, then the caller-supplied fallback. It never fails for any
// input, including empty or whitespace-only strings. Diagnostics are emitted
// to log and never influence the outcome.
func SafeParse[T any](log Logger, text string, fallback T) T {
	if strings.TrimSpace(text) == "" {
		return fallback
	}
	if v, ok := TryParseStrict[T](text); ok {
		return v
	}
	if log == nil {
		log = NopLogger()
	}
	repaired, ok := Repair(text)
	if !ok {
		log.Debugf("json repair failed for %d byte payload", len(text))
		return fallback
	}
	log.Debugf("json payload repaired, retrying parse")
	if v, ok := TryParseStrict[T](repaired); ok {
		return v
	}
	log.Warnf("repaired payload does not match target shape")
	return fallback
}
