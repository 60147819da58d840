package parse

import (
	"regexp"
	"strings"
)

var (
	// strayBraceLine matches a line holding nothing but one brace, the
	// fencing some models leave behind around directives.
	strayBraceLine = regexp.MustCompile(`(?m)^[ \t]*[{}][ \t]*$`)

	// leakedKVFragment matches a generic "key": value JSON fragment with a
	// flat value. Only applied once a telltale tool-result field name is
	// spotted, so ordinary prose containing colons is left alone.
	leakedKVFragment = regexp.MustCompile(`"[A-Za-z_][A-Za-z0-9_]*"\s*:\s*(?:"(?:[^"\\]|\\.)*"|\[[^\]\n]*\]|\{[^}\n]*\}|[A-Za-z0-9_.+-]+)\s*,?`)

	// fillerLeadIn matches throat-clearing phrases opening a line, up to the
	// first sentence-terminal punctuation. The word boundary keeps longer
	// words sharing a phrase prefix ("I'llustrate") intact.
	fillerLeadIn = regexp.MustCompile(`(?m)^[ \t]*(?:Try this:|(?:Now I'll|Let me|I need to|I'll)\b[^.!?\n]*[.!?]?)[ \t]*`)

	horizontalRuns = regexp.MustCompile(`[ \t]{2,}`)
	newlineRuns    = regexp.MustCompile(`\n{3,}`)
)

// garbageTokens are known invisible-character corruptions emitted verbatim
// by some models. The zero-width interleaved "You" shows up often enough to
// warrant its own entry.
var garbageTokens = []string{
	"Y\u200bo\u200bu",
	"Y\u200co\u200cu",
}

// leakedFieldNames trigger raw tool-output stripping: when any of these
// appear quoted in the directive-free text, the model has echoed a tool
// result back instead of prose.
var leakedFieldNames = []string{"contents", "recursive", "include_hidden", "sort_by"}

// Cleaner strips directive syntax and known noise from model responses,
// leaving presentable prose. Cleaning is a pure, idempotent text transform.
type Cleaner struct {
	log Logger
}

// NewCleaner builds a cleaner reporting diagnostics to log. A nil log
// disables diagnostics.
func NewCleaner(log Logger) *Cleaner {
	if log == nil {
		log = NopLogger()
	}
	return &Cleaner{log: log}
}

// Clean applies the removal steps in order; each step sees the previous
// step's output. The leak check in particular must run on directive-free
// text, so the ordering is load-bearing.
func (c *Cleaner) Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	text := directivePattern.ReplaceAllString(raw, "")
	for _, token := range garbageTokens {
		text = strings.ReplaceAll(text, token, "")
	}
	text = strayBraceLine.ReplaceAllString(text, "")
	if containsLeakedFields(text) {
		c.log.Debugf("stripping leaked tool-result fragments")
		text = leakedKVFragment.ReplaceAllString(text, "")
	}
	text = stripFillerLeadIns(text)
	return normalizeWhitespace(text)
}

func containsLeakedFields(text string) bool {
	for _, name := range leakedFieldNames {
		if strings.Contains(text, `"`+name+`"`) {
			return true
		}
	}
	return false
}

// stripFillerLeadIns removes lead-in phrases until none remain, so a filler
// sentence exposed by a previous removal is caught in the same pass.
func stripFillerLeadIns(text string) string {
	for {
		next := fillerLeadIn.ReplaceAllString(text, "")
		if next == text {
			return text
		}
		text = next
	}
}

func normalizeWhitespace(text string) string {
	text = horizontalRuns.ReplaceAllString(text, " ")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
