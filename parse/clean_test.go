package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanRemovesDirectives(t *testing.T) {
	c := NewCleaner(nil)
	raw := "Checking the tree.\n{\"tool_call\":{\"name\":\"list_files\",\"arguments\":{\"path\":\".\"}}}\nDone."
	assert.Equal(t, "Checking the tree.\n\nDone.", c.Clean(raw))
}

func TestCleanStripsFillerLeadIns(t *testing.T) {
	c := NewCleaner(nil)
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"let me", "Let me check that.\nDone.", "Done."},
		{"ill", "I'll run the search now.\nFound two matches.", "Found two matches."},
		{"i need to", "I need to look first. The file is empty.", "The file is empty."},
		{"now ill", "Now I'll summarize.\nAll good.", "All good."},
		{"try this", "Try this: run make test", "run make test"},
		{"stacked fillers", "Let me see. I'll check the config. It is set.", "It is set."},
		{"mid line untouched", "The plan: I'll describe it below.", "The plan: I'll describe it below."},
		{"prefix word untouched", "I'llustrate the point with a tree.", "I'llustrate the point with a tree."},
		{"partial phrase untouched", "Let men vote.", "Let men vote."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Clean(tc.in))
		})
	}
}

func TestCleanRemovesCorruptedYou(t *testing.T) {
	c := NewCleaner(nil)
	got := c.Clean("Y\u200bo\u200bu should check the output.")
	assert.Equal(t, "should check the output.", got)

	got = c.Clean("Y\u200co\u200cu can stop here.")
	assert.Equal(t, "can stop here.", got)
}

func TestCleanRemovesStrayBraceLines(t *testing.T) {
	c := NewCleaner(nil)
	got := c.Clean("first\n{\nsecond\n}\nthird")
	assert.Equal(t, "first\n\nsecond\n\nthird", got)
}

func TestCleanStripsLeakedToolOutput(t *testing.T) {
	c := NewCleaner(nil)

	raw := `Here are the files "contents": ["a.txt","b.txt"], "recursive": false done.`
	assert.Equal(t, "Here are the files done.", c.Clean(raw))

	// Without a telltale field name, key-colon shapes in prose survive.
	prose := `The ratio "a": 1 stays put.`
	assert.Equal(t, prose, c.Clean(prose))
}

func TestCleanWhitespaceNormalization(t *testing.T) {
	c := NewCleaner(nil)
	got := c.Clean("a    b\tc\n\n\n\n\nd")
	assert.Equal(t, "a b c\n\nd", got)
}

func TestCleanBlankInput(t *testing.T) {
	c := NewCleaner(nil)
	assert.Equal(t, "", c.Clean(""))
	assert.Equal(t, "", c.Clean("  \n\t  "))
}

// Cleaning twice must equal cleaning once for any input.
func TestCleanIsIdempotent(t *testing.T) {
	c := NewCleaner(nil)
	inputs := []string{
		"Let me check that.\n{\"tool_call\":{\"name\":\"list_files\",\"arguments\":{\"path\":\".\"}}}\nDone.",
		"Y\u200bo\u200bu should try again.",
		`Leaked "recursive": true, "sort_by": "name" here.`,
		"plain prose, nothing to do",
		"first\n{\n}\nlast",
		"I'll start. Let me finish. Over.",
	}
	for _, in := range inputs {
		once := c.Clean(in)
		assert.Equal(t, once, c.Clean(once), "input %q", in)
	}
}
