package parse

import (
	"encoding/json"
	"strings"
)

// Repair attempts to turn almost-valid JSON emitted by a language model into
// syntactically valid JSON. It strips invisible characters and comments,
// normalizes single quotes and bare keys, removes trailing commas, and
// closes unterminated strings, objects, and arrays. When the result still
// fails validation the original text is returned unchanged with ok=false.
// Purely syntactic: no tool semantics are checked here.
func Repair(text string) (repaired string, ok bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text, false
	}
	if json.Valid([]byte(trimmed)) {
		return trimmed, true
	}
	out := stripInvisible(trimmed)
	out = stripComments(out)
	out = convertSingleQuotes(out)
	out = quoteBareKeys(out)
	out = removeTrailingCommas(out)
	out = closeOpenStructures(out)
	out = strings.TrimSpace(out)
	if json.Valid([]byte(out)) {
		return out, true
	}
	// Prose-wrapped payloads: retry on the first object boundary alone.
	if inner, found := ExtractFirstJSONObject(out); found {
		inner = closeOpenStructures(removeTrailingCommas(inner))
		if json.Valid([]byte(inner)) {
			return inner, true
		}
	}
	return text, false
}

// stripInvisible drops zero-width and BOM runes that corrupt otherwise valid
// tokens.
func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
			return -1
		}
		return r
	}, s)
}

// stripComments removes // and /* */ comments outside string literals.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			b.WriteByte(ch)
			continue
		}
		if ch == '/' && i+1 < len(s) {
			if s[i+1] == '/' {
				for i < len(s) && s[i] != '\n' {
					i++
				}
				if i < len(s) {
					b.WriteByte('\n')
				}
				continue
			}
			if s[i+1] == '*' {
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					i = len(s)
					continue
				}
				i += 2 + end + 1
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// convertSingleQuotes rewrites single-quoted strings as double-quoted ones,
// escaping any embedded double quotes.
func convertSingleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble := false
	inSingle := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if escaped {
			if inSingle && ch == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte('\\')
				b.WriteByte(ch)
			}
			escaped = false
			continue
		}
		if ch == '\\' && (inDouble || inSingle) {
			escaped = true
			continue
		}
		switch {
		case ch == '"' && inSingle:
			b.WriteString(`\"`)
		case ch == '"':
			inDouble = !inDouble
			b.WriteByte(ch)
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
			b.WriteByte('"')
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// quoteBareKeys wraps unquoted object keys in double quotes. It also fixes
// keys missing only their opening quote, a malformation some models produce
// mid-object.
func quoteBareKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	inString := false
	escaped := false
	expectKey := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch {
		case ch == '"':
			inString = true
			expectKey = false
			b.WriteByte(ch)
		case ch == '{' || ch == ',':
			expectKey = true
			b.WriteByte(ch)
		case isSpaceByte(ch):
			b.WriteByte(ch)
		case expectKey && isIdentStart(ch):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			k := j
			for k < len(s) && isSpaceByte(s[k]) {
				k++
			}
			switch {
			case k < len(s) && s[k] == ':':
				b.WriteByte('"')
				b.WriteString(s[i:j])
				b.WriteByte('"')
				i = j - 1
			case k < len(s) && s[k] == '"':
				// Missing opening quote: consume through the stray close.
				b.WriteByte('"')
				b.WriteString(s[i : k+1])
				i = k
			default:
				b.WriteString(s[i:j])
				i = j - 1
			}
			expectKey = false
		default:
			expectKey = false
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// removeTrailingCommas drops commas directly before a closing brace or
// bracket.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			b.WriteByte(ch)
			continue
		}
		if ch == ',' {
			j := i + 1
			for j < len(s) && isSpaceByte(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// closeOpenStructures appends the closers a truncated payload is missing: an
// unterminated string gets its quote, a dangling key gets a null value, and
// open objects/arrays are closed innermost-first.
func closeOpenStructures(s string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, ch)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if !inString && len(stack) == 0 {
		return s
	}
	out := s
	if inString {
		out += `"`
	}
	out = strings.TrimRight(out, " \t\r\n")
	out = strings.TrimSuffix(out, ",")
	if strings.HasSuffix(out, ":") {
		out += "null"
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			out += "}"
		} else {
			out += "]"
		}
	}
	return out
}

func isSpaceByte(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentByte(ch byte) bool {
	return isIdentStart(ch) || ch == '-' || (ch >= '0' && ch <= '9')
}
