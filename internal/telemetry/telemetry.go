// Package telemetry canonicalizes the free-form counter blobs agents submit.
package telemetry

import (
	"bytes"
	"errors"
	"strconv"

	json "github.com/goccy/go-json"
)

// EmptyObject is the canonical fallback for unusable telemetry.
const EmptyObject = "{}"

// ClicksKey is the counter key used for both mouse and keyboard blobs.
const ClicksKey = "clicks"

type Kind uint8

const (
	Parsed Kind = iota
	Fallback
)

func (k Kind) String() string {
	if k == Fallback {
		return "fallback"
	}
	return "parsed"
}

var (
	errEmpty   = errors.New("empty value")
	errNull    = errors.New("null value")
	errInvalid = errors.New("invalid JSON text")
)

// Result is the outcome of Canonicalize. JSON is always valid JSON text;
// Err explains a Fallback.
type Result struct {
	Kind Kind
	JSON string
	Err  error
}

func (r Result) IsFallback() bool {
	return r.Kind == Fallback
}

func fallback(err error) Result {
	return Result{Kind: Fallback, JSON: EmptyObject, Err: err}
}

// Canonicalize re-serializes v as JSON text. Strings and raw bytes are
// parsed first. It never fails: anything unusable yields EmptyObject.
func Canonicalize(v any) Result {
	switch val := v.(type) {
	case nil:
		return fallback(errEmpty)
	case string:
		return fromText([]byte(val))
	case []byte:
		return fromText(val)
	case json.RawMessage:
		return fromText(val)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fallback(err)
	}
	if string(data) == "null" {
		return fallback(errNull)
	}
	return Result{Kind: Parsed, JSON: string(data)}
}

func fromText(text []byte) Result {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 {
		return fallback(errEmpty)
	}
	if !json.Valid(trimmed) {
		return fallback(errInvalid)
	}

	decoded, err := decode(trimmed)
	if err != nil {
		return fallback(err)
	}
	if decoded == nil {
		return fallback(errNull)
	}

	data, err := json.Marshal(decoded)
	if err != nil {
		return fallback(err)
	}
	return Result{Kind: Parsed, JSON: string(data)}
}

func decode(text []byte) (any, error) {
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// Object parses stored telemetry text for display. When the text is absent,
// unparsable or not a JSON object, def is returned instead.
func Object(text string, def string) json.RawMessage {
	obj, ok := asObject(text)
	if !ok {
		return json.RawMessage(def)
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return json.RawMessage(def)
	}
	return data
}

// Clicks extracts the clicks counter from stored telemetry text, 0 when absent.
func Clicks(text string) int64 {
	obj, ok := asObject(text)
	if !ok {
		return 0
	}
	switch v := obj[ClicksKey].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// ClicksJSON builds the canonical counter blob for a bare click count.
func ClicksJSON(n int64) string {
	return `{"` + ClicksKey + `":` + strconv.FormatInt(n, 10) + `}`
}

func asObject(text string) (map[string]any, bool) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, false
	}
	decoded, err := decode(trimmed)
	if err != nil {
		return nil, false
	}
	obj, ok := decoded.(map[string]any)
	return obj, ok
}
