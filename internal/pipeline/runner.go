// Package pipeline runs a Session through planning, research, generation
// and repair, strictly in that order, and reports a status plus payload.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/batpad/ll-html/internal/artifact"
	"github.com/batpad/ll-html/internal/budget"
	"github.com/batpad/ll-html/internal/catalog"
	"github.com/batpad/ll-html/internal/errs"
	"github.com/batpad/ll-html/internal/generation"
	"github.com/batpad/ll-html/internal/llm"
	"github.com/batpad/ll-html/internal/metrics"
	"github.com/batpad/ll-html/internal/repair"
	"github.com/batpad/ll-html/internal/research"
	"github.com/batpad/ll-html/internal/session"
	"github.com/batpad/ll-html/internal/store"
	"github.com/batpad/ll-html/internal/telemetry"
	"github.com/batpad/ll-html/internal/templates"
	"github.com/batpad/ll-html/internal/validation"
)

// Status is the caller-visible end state of a Session.
type Status string

const (
	StatusCompleted           Status = "completed"
	StatusCompletedWithIssues Status = "completed_with_issues"
	StatusBlocked             Status = "blocked"
	StatusGenerationFailed    Status = "generation_failed"
	StatusCancelled           Status = "cancelled"
)

// Deps are the shared, stateless services a Runner hands to each Session.
// Model is the unmetered provider client; Store may be nil.
type Deps struct {
	Model     llm.Client
	Tools     research.Tools
	Lookup    catalog.Lookup
	Templates *templates.Catalog
	Store     store.Store
	Logger    zerolog.Logger
	Metrics   *metrics.Recorder
	Sleep     llm.SleepFunc
	Now       func() time.Time
}

// Outcome is what a Session produced. Artifact and Report are the best
// version when generation ran.
type Outcome struct {
	SessionID string             `json:"session_id"`
	Status    Status             `json:"status"`
	Reason    string             `json:"reason,omitempty"`
	Research  *research.Context  `json:"research,omitempty"`
	Artifact  *artifact.Artifact `json:"artifact,omitempty"`
	Report    *validation.Report `json:"report,omitempty"`
	Repair    *repair.Result     `json:"repair,omitempty"`
	Budget    budget.Snapshot    `json:"budget"`
	Err       error              `json:"-"`
}

// Runner is safe for concurrent use; Sessions share nothing mutable.
type Runner struct {
	deps Deps
}

func NewRunner(deps Deps) *Runner {
	if deps.Templates == nil {
		deps.Templates = templates.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Runner{deps: deps}
}

// Run executes sess. It never panics across phases and always returns a status.
func (r *Runner) Run(ctx context.Context, sess *session.Session) Outcome {
	ctx, span := telemetry.Tracer("pipeline").Start(ctx, "session")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sess.ID))

	cfg := sess.Config
	log := r.deps.Logger.With().Str("session", sess.ID).Logger()
	log.Info().Str("request", sess.Request).Msg("session started")

	model := llm.Metered(r.deps.Model, sess.Tracker, llm.MeterOptions{
		Policy: llm.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			Multiplier:  cfg.Retry.Multiplier,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
		Budgets: llm.Budgets{
			Reasoning:  cfg.Limits.MaxOutputTokensReasoning,
			Generation: cfg.Limits.MaxOutputTokensGeneration,
			Repair:     cfg.Limits.MaxOutputTokensRepair,
		},
		Sleep:   r.deps.Sleep,
		Logger:  log,
		Metrics: r.deps.Metrics,
	})

	out := Outcome{SessionID: sess.ID}
	finish := func(status Status, reason string, err error) Outcome {
		out.Status, out.Reason, out.Err = status, reason, err
		out.Budget = sess.Tracker.Snapshot()
		r.deps.Metrics.Session(string(status))
		span.SetAttributes(attribute.String("session.status", string(status)))
		ev := log.Info()
		if err != nil {
			ev = log.Warn().Err(err)
		}
		ev.Str("status", string(status)).Str("reason", reason).Int("model_calls", out.Budget.ModelCalls).
			Int("iterations", out.Budget.Iterations).Msg("session finished")
		if status != StatusCancelled {
			r.save(ctx, sess, out, log)
		}
		return out
	}

	var plan *research.Plan
	if cfg.Features.Planning {
		p, err := generation.NewPlanner(model, log).Plan(ctx, sess.Request)
		switch {
		case errs.Is(err, errs.Cancelled) || ctx.Err() != nil:
			return finish(StatusCancelled, "cancelled during planning", errs.E(errs.Cancelled, "pipeline.run", ctx.Err()))
		case err != nil:
			log.Warn().Err(err).Msg("planning failed, researching without a plan")
		default:
			plan = p
		}
	}

	ro := research.New(model, r.deps.Tools, r.deps.Lookup, sess.Tracker, research.Options{
		MinSuccessful: cfg.Limits.MinSuccessfulToolCalls,
		ToolTimeout:   cfg.Limits.ToolTimeout,
		Cache:         sess.Cache,
		Logger:        log,
		Metrics:       r.deps.Metrics,
		Now:           r.deps.Now,
	})
	res := ro.Run(ctx, sess.Request, plan)
	out.Research = res.Context
	switch res.State {
	case research.StateCancelled:
		out.Research = nil
		return finish(StatusCancelled, res.Reason, res.Err)
	case research.StateBlocked:
		return finish(StatusBlocked, res.Reason, res.Err)
	}

	stage := generation.NewStage(model, generation.Options{Logger: log, Now: r.deps.Now})
	first, err := stage.Generate(ctx, res.Context, r.deps.Templates)
	if err != nil {
		if errs.Is(err, errs.Cancelled) || ctx.Err() != nil {
			out.Research = nil
			return finish(StatusCancelled, "cancelled during generation", err)
		}
		return finish(StatusGenerationFailed, "generation failed", err)
	}

	rep := repair.New(model, sess.Tracker, r.deps.Templates, repair.Options{
		MaxRounds: cfg.Limits.MaxRepairRounds,
		Tolerance: cfg.Limits.RepairTolerance,
		Logger:    log,
		Metrics:   r.deps.Metrics,
		Now:       r.deps.Now,
	})
	rr := rep.Run(ctx, first, res.Context.ProbedEndpoints)
	if rr.State == repair.StateCancelled {
		out.Research = nil
		return finish(StatusCancelled, rr.Reason, rr.Err)
	}
	out.Repair = &rr
	best := rr.Best
	out.Artifact = &best.Artifact
	out.Report = &best.Report
	if rr.State == repair.StateConverged {
		return finish(StatusCompleted, rr.Reason, nil)
	}
	return finish(StatusCompletedWithIssues, rr.Reason, rr.Err)
}

func (r *Runner) save(ctx context.Context, sess *session.Session, out Outcome, log zerolog.Logger) {
	if r.deps.Store == nil {
		return
	}
	rec := store.Record{
		SessionID: sess.ID,
		Request:   sess.Request,
		Status:    string(out.Status),
		Reason:    out.Reason,
		Research:  out.Research,
		Budget:    out.Budget,
	}
	if out.Repair != nil {
		best := out.Repair.Best
		rec.Final = &best
		rec.Versions = out.Repair.Versions
	}
	if err := store.SaveOutcome(ctx, r.deps.Store, rec); err != nil {
		log.Warn().Err(err).Msg("saving session output failed")
	}
}
