package llmtool

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/batpad/ll-html/internal/llm"
)

// Reasoning actions.
const (
	ActionTool    = "tool"
	ActionProceed = "proceed"
)

// ErrMalformedAction is returned when a reasoning reply is not a usable action.
var ErrMalformedAction = errors.New("llmtool: malformed action")

// ActionEnvelope is the reasoning reply: either a tool call or "proceed".
type ActionEnvelope struct {
	Action    string          `json:"action"`
	Tool      string          `json:"tool,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Reasoning string          `json:"reasoning,omitempty"`
}

type rawEnvelope struct {
	ActionEnvelope
	ToolName  string          `json:"tool_name,omitempty"`
	ToolInput json.RawMessage `json:"tool_input,omitempty"`
}

// ParseAction extracts the action object from a model reply. Replies may wrap
// the JSON in prose or code fences; tool_name/tool_input are accepted as
// aliases and "final"/"done" mean proceed.
func ParseAction(text string) (ActionEnvelope, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return ActionEnvelope{}, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ActionEnvelope{}, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	out := env.ActionEnvelope
	if out.Tool == "" {
		out.Tool = env.ToolName
	}
	if len(out.Params) == 0 {
		out.Params = env.ToolInput
	}
	out.Action = strings.ToLower(strings.TrimSpace(out.Action))
	out.Tool = strings.TrimSpace(out.Tool)

	switch out.Action {
	case "final", "done", "finish":
		out.Action = ActionProceed
	case "":
		if out.Tool != "" {
			out.Action = ActionTool
		}
	}
	switch out.Action {
	case ActionProceed:
		out.Tool, out.Params = "", nil
		return out, nil
	case ActionTool:
		if out.Tool == "" {
			return ActionEnvelope{}, fmt.Errorf("%w: tool action without tool name", ErrMalformedAction)
		}
		p := bytes.TrimSpace(out.Params)
		if len(p) == 0 || bytes.Equal(p, []byte("null")) {
			p = []byte("{}")
		}
		if p[0] != '{' {
			return ActionEnvelope{}, fmt.Errorf("%w: params must be an object", ErrMalformedAction)
		}
		out.Params = json.RawMessage(p)
		return out, nil
	default:
		return ActionEnvelope{}, fmt.Errorf("%w: unknown action %q", ErrMalformedAction, out.Action)
	}
}
