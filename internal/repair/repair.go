// Package repair runs the validate-and-repair loop over artifact versions.
package repair

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/batpad/ll-html/internal/artifact"
	"github.com/batpad/ll-html/internal/budget"
	"github.com/batpad/ll-html/internal/errs"
	"github.com/batpad/ll-html/internal/generation"
	"github.com/batpad/ll-html/internal/llm"
	"github.com/batpad/ll-html/internal/metrics"
	"github.com/batpad/ll-html/internal/telemetry"
	"github.com/batpad/ll-html/internal/templates"
	"github.com/batpad/ll-html/internal/validation"
)

// State of the loop.
type State string

const (
	StateCheck     State = "CHECK"
	StateConverged State = "CONVERGED"
	StateRepair    State = "REPAIR"
	StateResidual  State = "RESIDUAL"
	StateCancelled State = "CANCELLED"
)

const (
	DefaultMaxRounds = 3
	DefaultTolerance = 2
	maxRegressions   = 2
)

// Options configure an Orchestrator. MaxRounds bounds repair calls and is
// separate from the research iteration ceiling.
type Options struct {
	MaxRounds int
	Tolerance int
	Engine    *validation.Engine
	Logger    zerolog.Logger
	Metrics   *metrics.Recorder
	Now       func() time.Time
}

// Version is one artifact and the report it received.
type Version struct {
	Artifact artifact.Artifact `json:"artifact"`
	Report   validation.Report `json:"report"`
}

// Result is the loop's exit. Best is the lowest-scoring version, the
// earliest on ties. Err is set for RESIDUAL and CANCELLED.
type Result struct {
	State    State     `json:"state"`
	Best     Version   `json:"best"`
	Versions []Version `json:"versions"`
	Rounds   int       `json:"rounds"`
	Reason   string    `json:"reason"`
	Err      error     `json:"-"`
}

// Orchestrator is bound to one Session's model client and tracker.
type Orchestrator struct {
	model   llm.Client
	tracker *budget.Tracker
	catalog *templates.Catalog
	opts    Options
	log     zerolog.Logger
}

func New(model llm.Client, tracker *budget.Tracker, cat *templates.Catalog, opts Options) *Orchestrator {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	if opts.Tolerance < 0 {
		opts.Tolerance = 0
	}
	if opts.Engine == nil {
		opts.Engine = validation.NewEngine()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if cat == nil {
		cat = templates.Default()
	}
	return &Orchestrator{model: model, tracker: tracker, catalog: cat, opts: opts, log: opts.Logger}
}

// Converged reports whether r needs no further repair.
func (o *Orchestrator) Converged(r validation.Report) bool {
	return r.Score == 0 || (r.OnlyMinor() && r.Score <= o.opts.Tolerance)
}

// Run checks a and repairs it until it converges, the round ceiling is hit,
// the session budget runs out or two rounds in a row make it worse.
func (o *Orchestrator) Run(ctx context.Context, a artifact.Artifact, probed []string) Result {
	ctx, span := telemetry.Tracer("repair").Start(ctx, "repair")
	defer span.End()

	tpl, _ := o.catalog.Get(a.Template)
	check := func(v artifact.Artifact) validation.Report {
		vc := validation.Context{Template: &tpl, ProbedEndpoints: probed}
		if v.Origin == artifact.OriginImport {
			// imported text was not rendered from the template
			vc.Template = nil
		}
		return o.opts.Engine.Validate(ctx, v.Text, vc)
	}

	chain := artifact.NewChain(a)
	res := Result{Versions: []Version{{Artifact: a, Report: check(a)}}}
	current := res.Versions[0]
	regressions := 0

	finish := func(state State, reason string, cause error) Result {
		res.State, res.Reason = state, reason
		scores := make([]int, len(res.Versions))
		for i, v := range res.Versions {
			scores[i] = v.Report.Score
		}
		res.Best = res.Versions[artifact.Best(scores)]
		switch state {
		case StateResidual:
			if cause == nil {
				cause = errors.New(reason)
			}
			res.Err = errs.E(errs.ValidationNonConvergence, "repair.run", cause)
		case StateCancelled:
			res.Err = errs.E(errs.Cancelled, "repair.run", cause)
		}
		o.opts.Metrics.RepairRounds(res.Rounds)
		span.SetAttributes(
			attribute.String("repair.state", string(state)),
			attribute.Int("repair.rounds", res.Rounds),
			attribute.Int("repair.best_score", res.Best.Report.Score),
		)
		o.log.Info().Str("state", string(state)).Str("reason", reason).Int("rounds", res.Rounds).
			Int("best_score", res.Best.Report.Score).Int("best_version", res.Best.Artifact.Version).Msg("repair finished")
		return res
	}

	for {
		// CHECK
		if err := ctx.Err(); err != nil {
			return finish(StateCancelled, "cancelled", err)
		}
		if o.Converged(current.Report) {
			return finish(StateConverged, "converged", nil)
		}
		if res.Rounds >= o.opts.MaxRounds {
			return finish(StateResidual, "repair round ceiling reached", nil)
		}
		if o.tracker != nil && (o.tracker.Exhausted() || o.tracker.Remaining(budget.ModelCall) <= 0) {
			return finish(StateResidual, "session budget exhausted", errs.E(errs.BudgetExhausted, "repair.run", nil))
		}

		// REPAIR
		res.Rounds++
		next, err := o.repair(ctx, tpl, current, probed)
		if err != nil {
			switch {
			case errs.Is(err, errs.Cancelled) || ctx.Err() != nil:
				return finish(StateCancelled, "cancelled", err)
			case errors.Is(err, errMalformed):
				o.log.Warn().Err(err).Int("round", res.Rounds).Msg("repair reply unusable")
				continue
			default:
				return finish(StateResidual, "repair model call failed", err)
			}
		}
		if err := chain.Append(next); err != nil {
			return finish(StateResidual, "repair produced an unchained version", err)
		}
		v := Version{Artifact: next, Report: check(next)}
		if v.Report.Score > current.Report.Score {
			regressions++
		} else {
			regressions = 0
		}
		o.log.Info().Int("round", res.Rounds).Int("version", next.Version).Int("score", v.Report.Score).
			Int("previous_score", current.Report.Score).Msg("repair round")
		res.Versions = append(res.Versions, v)
		current = v
		if regressions >= maxRegressions {
			return finish(StateResidual, "two consecutive regressions", nil)
		}
	}
}

var errMalformed = errors.New("repair: malformed reply")

func (o *Orchestrator) repair(ctx context.Context, tpl templates.Template, current Version, probed []string) (artifact.Artifact, error) {
	prompt, err := repairPrompt(tpl, current, probed)
	if err != nil {
		return artifact.Artifact{}, err
	}
	c, err := o.model.Complete(ctx, llm.Request{Purpose: llm.PurposeRepair, System: systemPrompt, Prompt: prompt})
	if err != nil {
		return artifact.Artifact{}, err
	}
	parts, err := generation.ParsePartsOver(c.Text, current.Artifact.Parts)
	if err != nil {
		return artifact.Artifact{}, errors.Join(errMalformed, err)
	}
	next, err := current.Artifact.Revise(tpl, parts, artifact.Usage{InputTokens: c.InputTokens, OutputTokens: c.OutputTokens}, o.opts.Now())
	if err != nil {
		return artifact.Artifact{}, errors.Join(errMalformed, err)
	}
	return next, nil
}
