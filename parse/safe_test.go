package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decision struct {
	Tool     string                 `json:"tool"`
	Args     map[string]interface{} `json:"args"`
	Complete bool                   `json:"complete"`
}

func TestTryParseStrict(t *testing.T) {
	v, ok := TryParseStrict[decision](`{"tool":"ls","complete":true}`)
	require.True(t, ok)
	assert.Equal(t, "ls", v.Tool)
	assert.True(t, v.Complete)

	_, ok = TryParseStrict[decision](`{"tool":42}`)
	assert.False(t, ok, "type mismatch must fail, not panic")

	_, ok = TryParseStrict[decision]("")
	assert.False(t, ok)
}

func TestSafeParseFallbacks(t *testing.T) {
	fallback := decision{Tool: "fallback"}

	got := SafeParse(nil, "", fallback)
	assert.Equal(t, fallback, got, "empty input returns fallback immediately")

	got = SafeParse(nil, "   \n\t ", fallback)
	assert.Equal(t, fallback, got)

	got = SafeParse(nil, "utter garbage", fallback)
	assert.Equal(t, fallback, got)
}

func TestSafeParseRepairsThenParses(t *testing.T) {
	got := SafeParse(NopLogger(), `{"tool":"ls","args":{"a":1,},}`, decision{})
	assert.Equal(t, "ls", got.Tool)
	assert.Equal(t, map[string]interface{}{"a": 1.0}, got.Args)
}

func TestSafeParseNilMapFallback(t *testing.T) {
	got := SafeParse[map[string]interface{}](nil, `{"a":`, nil)
	assert.Equal(t, map[string]interface{}{"a": nil}, got, "dangling key repairs to null")

	got = SafeParse[map[string]interface{}](nil, `]][[`, nil)
	assert.Nil(t, got)
}
