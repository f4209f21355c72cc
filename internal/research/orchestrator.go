package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/batpad/ll-html/internal/budget"
	"github.com/batpad/ll-html/internal/cache/toolcache"
	"github.com/batpad/ll-html/internal/catalog"
	"github.com/batpad/ll-html/internal/errs"
	"github.com/batpad/ll-html/internal/llm"
	"github.com/batpad/ll-html/internal/llmtool"
	"github.com/batpad/ll-html/internal/mcp"
	"github.com/batpad/ll-html/internal/metrics"
	"github.com/batpad/ll-html/internal/search"
	"github.com/batpad/ll-html/internal/telemetry"
)

const (
	DefaultMinSuccessful = 2
	DefaultToolTimeout   = 10 * time.Second
	defaultMaxExternal   = 10
)

// Tools is the registry surface the orchestrator needs.
type Tools interface {
	Specs() []mcp.ToolSpec
	Has(name string) bool
	Invoke(ctx context.Context, name string, params json.RawMessage, timeout time.Duration) mcp.Invocation
}

// Options configure an Orchestrator.
type Options struct {
	MinSuccessful int
	ToolTimeout   time.Duration
	// Cache is the Session's tool cache; a fresh one is made when nil.
	Cache       *toolcache.Cache[mcp.Invocation]
	MaxExternal int
	Logger      zerolog.Logger
	Metrics     *metrics.Recorder
	Now         func() time.Time
}

// Orchestrator runs one research loop per call to Run. It is bound to a
// single Session's tracker and cache.
type Orchestrator struct {
	model   llm.Client
	tools   Tools
	lookup  catalog.Lookup
	tracker *budget.Tracker
	cache   *toolcache.Cache[mcp.Invocation]
	opts    Options
	log     zerolog.Logger
}

func New(model llm.Client, tools Tools, lookup catalog.Lookup, tracker *budget.Tracker, opts Options) *Orchestrator {
	if opts.MinSuccessful <= 0 {
		opts.MinSuccessful = DefaultMinSuccessful
	}
	if opts.ToolTimeout <= 0 {
		opts.ToolTimeout = DefaultToolTimeout
	}
	if opts.MaxExternal <= 0 {
		opts.MaxExternal = defaultMaxExternal
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cache := opts.Cache
	if cache == nil {
		cache = toolcache.New[mcp.Invocation](0)
	}
	return &Orchestrator{
		model:   model,
		tools:   tools,
		lookup:  lookup,
		tracker: tracker,
		cache:   cache,
		opts:    opts,
		log:     opts.Logger.With().Str("component", "research").Logger(),
	}
}

// run is the mutable state of one loop.
type run struct {
	rc         *Context
	configured map[string]catalog.DataSource
	attempted  map[string]bool
	discovered int
}

// Run drives REASON, ACT and OBSERVE until DONE, BLOCKED or cancellation.
func (o *Orchestrator) Run(ctx context.Context, request string, plan *Plan) Outcome {
	ctx, span := telemetry.Tracer("research").Start(ctx, "research")
	defer span.End()

	r := &run{
		rc:         &Context{Request: request, Plan: plan},
		configured: map[string]catalog.DataSource{},
		attempted:  map[string]bool{},
	}
	if o.lookup != nil {
		sources, err := o.lookup.Sources(ctx)
		if err != nil {
			o.log.Warn().Err(err).Msg("catalog sources unavailable")
		}
		for _, s := range sources {
			r.configured[s.ID] = s
		}
		r.rc.Sources = Configured(sources)
	}

	out := o.loop(ctx, r)
	span.SetAttributes(
		attribute.String("research.state", string(out.State)),
		attribute.Int("research.iterations", r.rc.Iterations),
		attribute.Int("research.successful", r.rc.Successful),
	)
	o.log.Info().
		Str("state", string(out.State)).
		Int("iterations", r.rc.Iterations).
		Int("successful", r.rc.Successful).
		Bool("forced", r.rc.Forced).
		Str("reason", out.Reason).
		Msg("research finished")
	return out
}

func (o *Orchestrator) loop(ctx context.Context, r *run) Outcome {
	for {
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}
		if o.tracker.Remaining(budget.Iteration) <= 0 {
			return o.finish(r, budget.Iteration)
		}
		if o.tracker.Consume(budget.Iteration, 1) == budget.Exceeded {
			return o.finish(r, o.tracker.ResearchExhaustedBy())
		}
		r.rc.Iterations++
		r.rc.Sources = Prioritize(r.rc.Sources, r.rc.Request)

		act, out := o.reason(ctx, r)
		if out != nil {
			return *out
		}
		if act.Action == llmtool.ActionProceed {
			r.rc.Sufficient = true
			return Outcome{State: StateDone, Context: r.rc, Reason: "evidence sufficient"}
		}

		inv := o.act(ctx, act)
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}
		o.observe(r, inv)
	}
}

// finish is the exit taken once a research ceiling is reached or any budget
// is exhausted.
func (o *Orchestrator) finish(r *run, by budget.Kind) Outcome {
	reason := fmt.Sprintf("budget exhausted (%s)", by)
	if by == budget.Iteration {
		reason = "iteration ceiling reached"
	}
	switch {
	case r.rc.Successful >= o.opts.MinSuccessful:
		r.rc.Sufficient = true
		return Outcome{State: StateDone, Context: r.rc, Reason: reason}
	case by == budget.Iteration && r.rc.Successful > 0:
		r.rc.Sufficient = true
		r.rc.Forced = true
		return Outcome{State: StateDone, Context: r.rc, Reason: reason + ", sufficiency forced"}
	default:
		return Outcome{
			State:   StateBlocked,
			Context: r.rc,
			Reason:  fmt.Sprintf("%s with %d of %d successful tool calls", reason, r.rc.Successful, o.opts.MinSuccessful),
			Err:     errs.E(errs.BudgetExhausted, "research", nil),
		}
	}
}

func cancelled(err error) Outcome {
	return Outcome{State: StateCancelled, Reason: "cancelled", Err: errs.E(errs.Cancelled, "research", err)}
}

// reason asks the model for the next step. A proceed reply is returned only
// when the evidence minimum is met; otherwise a forced tool action replaces it.
func (o *Orchestrator) reason(ctx context.Context, r *run) (llmtool.ActionEnvelope, *Outcome) {
	prompt, err := o.prompt(r)
	if err != nil {
		return o.forced(r, err.Error()), nil
	}
	c, err := o.model.Complete(ctx, llm.Request{Purpose: llm.PurposeReasoning, System: systemPrompt, Prompt: prompt})
	switch {
	case ctx.Err() != nil || errs.Is(err, errs.Cancelled):
		out := cancelled(ctx.Err())
		return llmtool.ActionEnvelope{}, &out
	case errs.Is(err, errs.BudgetExhausted):
		out := o.finish(r, o.tracker.ResearchExhaustedBy())
		return llmtool.ActionEnvelope{}, &out
	case err != nil:
		o.log.Warn().Err(err).Int("iteration", r.rc.Iterations).Msg("reasoning call failed")
		return o.forced(r, "model unavailable"), nil
	}

	act, err := llmtool.ParseAction(c.Text)
	if err != nil {
		o.log.Warn().Err(err).Int("iteration", r.rc.Iterations).Msg("malformed reasoning reply")
		return o.forced(r, "malformed reply"), nil
	}
	if act.Action == llmtool.ActionProceed {
		if r.rc.Successful < o.opts.MinSuccessful {
			o.log.Info().Int("successful", r.rc.Successful).Int("min", o.opts.MinSuccessful).Msg("proceed refused, evidence below minimum")
			return o.forced(r, "evidence below minimum"), nil
		}
		if o.needsSample(r) {
			o.log.Info().Int("configured", len(r.configured)).Msg("proceed refused, no configured source sampled")
			return o.forced(r, "no configured source sampled"), nil
		}
		return act, nil
	}
	if !o.tools.Has(act.Tool) {
		return o.forced(r, fmt.Sprintf("tool %q unavailable", act.Tool)), nil
	}
	return act, nil
}

func (o *Orchestrator) act(ctx context.Context, act llmtool.ActionEnvelope) mcp.Invocation {
	if cached, ok := o.cache.Get(act.Tool, act.Params); ok {
		o.opts.Metrics.CacheHit()
		o.log.Debug().Str("tool", act.Tool).Msg("tool cache hit")
		return cached.FromCache(o.opts.Now())
	}
	timeout := o.opts.ToolTimeout
	if left := o.tracker.RemainingToolTime(); left < timeout {
		timeout = left
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	o.log.Debug().Str("tool", act.Tool).RawJSON("params", act.Params).Str("reasoning", act.Reasoning).Msg("invoking tool")
	return o.tools.Invoke(ctx, act.Tool, act.Params, timeout)
}

func (o *Orchestrator) observe(r *run, inv mcp.Invocation) {
	r.rc.Attempts = append(r.rc.Attempts, inv)
	r.markAttempted(inv)
	outcome := string(inv.Outcome)
	if inv.Cached {
		outcome = "cached"
	} else {
		o.tracker.ConsumeDuration(inv.Duration())
	}
	o.opts.Metrics.ToolInvocation(inv.Tool, outcome)
	if !inv.Succeeded() || inv.Cached {
		return
	}
	r.rc.Observations = append(r.rc.Observations, inv)
	r.rc.Successful++
	o.cache.Put(inv.Tool, inv.Params, inv)
	r.rc.addProbed(mcp.ProbedURLs(inv)...)
	if inv.Tool == mcp.ToolWebSearch {
		o.discover(r, inv)
	}
}

// discover adds web search hits as external candidate sources.
func (o *Orchestrator) discover(r *run, inv mcp.Invocation) {
	var obs mcp.WebSearchObservation
	if err := json.Unmarshal(inv.Observation, &obs); err != nil {
		return
	}
	for _, res := range obs.Results {
		if r.discovered >= o.opts.MaxExternal || !o.isNewExternal(r, res) {
			continue
		}
		r.rc.Sources = append(r.rc.Sources, External(res, r.discovered))
		r.discovered++
	}
}

func (o *Orchestrator) isNewExternal(r *run, res search.Result) bool {
	if res.URL == "" {
		return false
	}
	for _, s := range r.rc.Sources {
		if s.URL == res.URL {
			return false
		}
	}
	for _, s := range r.configured {
		if strings.HasPrefix(res.URL, strings.TrimRight(s.BaseURL, "/")) {
			return false
		}
	}
	return true
}

// needsSample reports whether configured sources exist that the sampler could
// read but no sample has succeeded yet.
func (o *Orchestrator) needsSample(r *run) bool {
	if len(r.configured) == 0 || !o.tools.Has(mcp.ToolCatalogSampler) {
		return false
	}
	for _, inv := range r.rc.Observations {
		if inv.Tool == mcp.ToolCatalogSampler {
			return false
		}
	}
	return true
}

func (r *run) markAttempted(inv mcp.Invocation) {
	var p struct {
		Source     string `json:"source"`
		Collection string `json:"collection"`
		URL        string `json:"url"`
		Query      string `json:"query"`
	}
	if json.Unmarshal(inv.Params, &p) != nil {
		return
	}
	switch inv.Tool {
	case mcp.ToolCatalogSampler:
		r.attempted["sample:"+p.Collection] = true
		r.attempted["sample-source:"+p.Source] = true
	case mcp.ToolAPIProbe:
		r.attempted["probe:"+p.URL] = true
	case mcp.ToolWebSearch:
		r.attempted["search:"+p.Query] = true
	}
}
