package llm

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		"plain":   `{"a":1}`,
		"fenced":  "```json\n{\"a\":1}\n```",
		"prose":   "Sure! Here it is: {\"a\":1} hope that helps",
		"braces":  `{"a":"}{"}`,
		"escaped": `{"a":"\"}"}`,
	}
	want := map[string]string{
		"plain":   `{"a":1}`,
		"fenced":  `{"a":1}`,
		"prose":   `{"a":1}`,
		"braces":  `{"a":"}{"}`,
		"escaped": `{"a":"\"}"}`,
	}
	for name, in := range cases {
		got, err := ExtractJSON(in)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if string(got) != want[name] {
			t.Fatalf("%s: got %s want %s", name, got, want[name])
		}
	}
}

func TestExtractJSONInvalid(t *testing.T) {
	for _, in := range []string{"", "no json", `{"a":`, `{"a" 1}`} {
		if _, err := ExtractJSON(in); !errors.Is(err, ErrInvalidJSON) {
			t.Fatalf("%q: err = %v", in, err)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Action string `json:"action"`
	}
	if err := DecodeJSON("```\n{\"action\":\"tool\"}\n```", &v); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if v.Action != "tool" {
		t.Fatalf("action = %q", v.Action)
	}
}
