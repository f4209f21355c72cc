// Package jsonutil holds the JSON helpers shared by prompt building, reply
// decoding and stored reports.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Marshal encodes v without escaping <, > and & in strings.
func Marshal(v any) ([]byte, error) {
	return encode(v, "")
}

// MarshalIndent is Marshal with two-space indentation.
func MarshalIndent(v any) ([]byte, error) {
	return encode(v, "  ")
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

var escapedHTML = regexp.MustCompile(`\\u00(3[cCeE]|26)`)

// UnescapeHTML turns literal \u003c, \u003e and \u0026 sequences, left by a
// reply that was escaped twice, back into characters.
func UnescapeHTML(s string) string {
	if !strings.Contains(s, `\u00`) {
		return s
	}
	return escapedHTML.ReplaceAllStringFunc(s, func(m string) string {
		switch strings.ToLower(m[4:]) {
		case "3c":
			return "<"
		case "3e":
			return ">"
		default:
			return "&"
		}
	})
}

// Normalize re-encodes raw with UnescapeHTML applied to every string value.
// A payload that is itself a JSON string holding JSON is unwrapped once.
func Normalize(raw []byte) ([]byte, error) {
	var val any
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, err
	}
	if s, ok := val.(string); ok {
		if err := json.Unmarshal([]byte(s), &val); err != nil {
			return nil, errors.New("jsonutil: string payload does not hold JSON")
		}
	}
	return Marshal(deepUnescape(val))
}

// UnmarshalFlex decodes raw into v directly and, when that fails, from its
// normalized form.
func UnmarshalFlex(raw []byte, v any) error {
	err := json.Unmarshal(raw, v)
	if err == nil {
		return nil
	}
	norm, nerr := Normalize(raw)
	if nerr != nil {
		return err
	}
	return json.Unmarshal(norm, v)
}

func deepUnescape(v any) any {
	switch x := v.(type) {
	case string:
		return UnescapeHTML(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = deepUnescape(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = deepUnescape(vv)
		}
		return out
	default:
		return v
	}
}
