package llmtool

import (
	"errors"
	"testing"
)

func TestParseAction(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		action string
		tool   string
		params string
	}{
		{"tool", `{"action":"tool","tool":"web_search","params":{"query":"q"},"reasoning":"r"}`, ActionTool, "web_search", `{"query":"q"}`},
		{"proceed", `{"action":"proceed"}`, ActionProceed, "", ""},
		{"fenced", "Sure:\n```json\n{\"action\":\"proceed\"}\n```", ActionProceed, "", ""},
		{"aliases", `{"tool_name":"api_probe","tool_input":{"url":"https://x.org/api"}}`, ActionTool, "api_probe", `{"url":"https://x.org/api"}`},
		{"final", `{"action":"final"}`, ActionProceed, "", ""},
		{"null params", `{"action":"tool","tool":"catalog_sampler","params":null}`, ActionTool, "catalog_sampler", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAction(tc.in)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got.Action != tc.action || got.Tool != tc.tool || string(got.Params) != tc.params {
				t.Fatalf("got %+v (params %s)", got, got.Params)
			}
		})
	}
}

func TestParseAction_Malformed(t *testing.T) {
	for _, in := range []string{
		"no json here",
		`{"action":"tool"}`,
		`{"action":"dance"}`,
		`{"action":"tool","tool":"x","params":[1]}`,
		`{}`,
	} {
		if _, err := ParseAction(in); !errors.Is(err, ErrMalformedAction) {
			t.Fatalf("%q: expected ErrMalformedAction, got %v", in, err)
		}
	}
}
