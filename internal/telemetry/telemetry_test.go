package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize_NotJSONFallsBack(t *testing.T) {
	r := Canonicalize("not json")
	assert.Equal(t, EmptyObject, r.JSON)
	assert.True(t, r.IsFallback())
	assert.Error(t, r.Err)
}

func TestCanonicalize_Map(t *testing.T) {
	r := Canonicalize(map[string]any{"clicks": 5})
	assert.Equal(t, `{"clicks":5}`, r.JSON)
	assert.Equal(t, Parsed, r.Kind)
	assert.NoError(t, r.Err)
}

func TestCanonicalize_StringIsReserialized(t *testing.T) {
	r := Canonicalize(`  { "clicks" : 42 }  `)
	assert.Equal(t, `{"clicks":42}`, r.JSON)
	assert.False(t, r.IsFallback())
}

func TestCanonicalize_KeysAreSorted(t *testing.T) {
	r := Canonicalize(`{"b":1,"a":{"d":2,"c":3}}`)
	assert.Equal(t, `{"a":{"c":3,"d":2},"b":1}`, r.JSON)
}

func TestCanonicalize_LargeIntegersKeepPrecision(t *testing.T) {
	r := Canonicalize(`{"clicks":9007199254740993}`)
	assert.Equal(t, `{"clicks":9007199254740993}`, r.JSON)
}

func TestCanonicalize_RawBytes(t *testing.T) {
	r := Canonicalize([]byte(`[1,2,3]`))
	assert.Equal(t, `[1,2,3]`, r.JSON)
}

func TestCanonicalize_FallbackCases(t *testing.T) {
	cases := map[string]any{
		"nil":            nil,
		"empty string":   "",
		"blank string":   "   ",
		"null literal":   "null",
		"trailing data":  `{"a":1} extra`,
		"truncated":      `{"a":`,
		"nil map":        map[string]any(nil),
		"unsupported":    make(chan int),
		"empty raw":      []byte{},
		"invalid quotes": `{'a':1}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			r := Canonicalize(in)
			assert.Equal(t, EmptyObject, r.JSON)
			assert.Equal(t, Fallback, r.Kind)
		})
	}
}

func TestCanonicalize_Struct(t *testing.T) {
	in := struct {
		Clicks int      `json:"clicks"`
		Apps   []string `json:"apps"`
	}{Clicks: 3, Apps: []string{"editor"}}
	assert.Equal(t, `{"clicks":3,"apps":["editor"]}`, Canonicalize(in).JSON)
}

func TestObject_Fallbacks(t *testing.T) {
	def := `{"clicks":0}`
	assert.JSONEq(t, def, string(Object("", def)))
	assert.JSONEq(t, def, string(Object("garbage", def)))
	assert.JSONEq(t, def, string(Object("[1,2]", def)))
	assert.JSONEq(t, `{"clicks":7}`, string(Object(`{"clicks":7}`, def)))
}

func TestClicks(t *testing.T) {
	assert.Equal(t, int64(42), Clicks(`{"clicks":42}`))
	assert.Equal(t, int64(12), Clicks(`{"clicks":"12"}`))
	assert.Equal(t, int64(3), Clicks(`{"clicks":3.9}`))
	assert.Equal(t, int64(0), Clicks(`{"keypresses":42}`))
	assert.Equal(t, int64(0), Clicks(`not json`))
	assert.Equal(t, int64(0), Clicks(""))
}

func TestClicksJSON(t *testing.T) {
	assert.Equal(t, `{"clicks":600}`, ClicksJSON(600))
	assert.Equal(t, int64(600), Clicks(ClicksJSON(600)))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "parsed", Parsed.String())
	assert.Equal(t, "fallback", Fallback.String())
}
