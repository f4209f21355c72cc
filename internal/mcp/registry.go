package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kaptinlin/jsonschema"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/batpad/ll-html/internal/telemetry"
)

// ToolSpec documents a tool's contract (name + parameter schema).
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// Tool is an in-process research tool. Call returns an observation, or an
// error. A tool may return both to keep a partial observation on failure.
type Tool interface {
	Spec() ToolSpec
	Call(ctx context.Context, params json.RawMessage) (json.RawMessage, error)
}

// Outcome of an Invocation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
)

// Invocation is one call into the registry. It is never mutated after Invoke returns.
type Invocation struct {
	Tool        string          `json:"tool"`
	Params      json.RawMessage `json:"params"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     time.Time       `json:"ended_at"`
	Outcome     Outcome         `json:"outcome"`
	Observation json.RawMessage `json:"observation,omitempty"`
	Error       string          `json:"error,omitempty"`
	Cached      bool            `json:"cached,omitempty"`
}

func (i Invocation) Succeeded() bool         { return i.Outcome == OutcomeSuccess }
func (i Invocation) Duration() time.Duration { return i.EndedAt.Sub(i.StartedAt) }

// FromCache returns a copy of i marked as answered from the session cache.
func (i Invocation) FromCache(now time.Time) Invocation {
	i.Cached = true
	i.StartedAt = now
	i.EndedAt = now
	return i
}

type entry struct {
	tool   Tool
	schema *jsonschema.Schema
}

// Registry holds tool registrations and dispatches calls by stable name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
	log   zerolog.Logger
	now   func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

func WithLogger(l zerolog.Logger) Option { return func(r *Registry) { r.log = l } }
func WithClock(now func() time.Time) Option { return func(r *Registry) { r.now = now } }

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{tools: map[string]entry{}, log: zerolog.Nop(), now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register adds a tool. The parameter schema is compiled once here.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("mcp: nil tool")
	}
	spec := t.Spec()
	if spec.Name == "" {
		return errors.New("mcp: tool has no name")
	}
	e := entry{tool: t}
	if len(spec.InputSchema) > 0 {
		s, err := jsonschema.NewCompiler().Compile(spec.InputSchema)
		if err != nil {
			return fmt.Errorf("mcp: compile %s schema: %w", spec.Name, err)
		}
		e.schema = s
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.tools[spec.Name]; dup {
		return fmt.Errorf("mcp: tool %q already registered", spec.Name)
	}
	r.tools[spec.Name] = e
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Specs returns the registered specs sorted by name.
func (r *Registry) Specs() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolSpec, 0, len(r.tools))
	for _, e := range r.tools {
		out = append(out, e.tool.Spec())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type callResult struct {
	obs json.RawMessage
	err error
}

// Invoke runs one tool with a hard timeout. It never returns an error:
// unknown tools, invalid parameters, tool errors, malformed observations and
// timeouts all become a failed Invocation.
func (r *Registry) Invoke(ctx context.Context, name string, params json.RawMessage, timeout time.Duration) Invocation {
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}
	inv := Invocation{Tool: name, Params: params, StartedAt: r.now()}

	ctx, span := telemetry.Tracer("mcp").Start(ctx, "tool."+name)
	defer span.End()
	done := func(outcome Outcome, obs json.RawMessage, err error) Invocation {
		inv.EndedAt = r.now()
		inv.Outcome = outcome
		if len(obs) > 0 && json.Valid(obs) {
			inv.Observation = obs
		}
		if err != nil {
			inv.Error = err.Error()
			span.SetStatus(codes.Error, inv.Error)
			r.log.Warn().Str("tool", name).Str("outcome", string(outcome)).Err(err).Msg("tool invocation failed")
		}
		span.SetAttributes(attribute.String("tool.outcome", string(outcome)))
		return inv
	}

	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return done(OutcomeFailure, nil, fmt.Errorf("unknown tool %q", name))
	}
	if e.schema != nil {
		if res := e.schema.ValidateJSON(params); !res.IsValid() {
			return done(OutcomeFailure, nil, fmt.Errorf("invalid params: %v", res.Errors))
		}
	}

	callCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	ch := make(chan callResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- callResult{err: fmt.Errorf("tool panicked: %v", p)}
			}
		}()
		obs, err := e.tool.Call(callCtx, params)
		ch <- callResult{obs: obs, err: err}
	}()

	select {
	case res := <-ch:
		switch {
		case res.err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			return done(OutcomeTimeout, res.obs, fmt.Errorf("timed out after %s: %w", timeout, res.err))
		case res.err != nil:
			return done(OutcomeFailure, res.obs, res.err)
		case len(res.obs) == 0 || !json.Valid(res.obs):
			return done(OutcomeFailure, nil, errors.New("malformed observation"))
		}
		r.log.Debug().Str("tool", name).Dur("elapsed", r.now().Sub(inv.StartedAt)).Msg("tool invocation succeeded")
		return done(OutcomeSuccess, res.obs, nil)
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return done(OutcomeFailure, nil, ctx.Err())
		}
		return done(OutcomeTimeout, nil, fmt.Errorf("timed out after %s", timeout))
	}
}
