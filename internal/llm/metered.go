package llm

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/batpad/ll-html/internal/budget"
	"github.com/batpad/ll-html/internal/errs"
	"github.com/batpad/ll-html/internal/metrics"
)

// Budgets maps a Purpose to its per-call output-token limit.
type Budgets struct {
	Reasoning  int
	Generation int
	Repair     int
	Planning   int
}

// For returns the limit for p. Planning falls back to Reasoning and Repair
// to Generation when unset.
func (b Budgets) For(p Purpose) int {
	switch p {
	case PurposeReasoning:
		return b.Reasoning
	case PurposeGeneration:
		return b.Generation
	case PurposeRepair:
		if b.Repair > 0 {
			return b.Repair
		}
		return b.Generation
	case PurposePlanning:
		if b.Planning > 0 {
			return b.Planning
		}
		return b.Reasoning
	default:
		return 0
	}
}

// MeterOptions configure a MeteredClient.
type MeterOptions struct {
	Policy  RetryPolicy
	Budgets Budgets
	Sleep   SleepFunc
	Logger  zerolog.Logger
	Metrics *metrics.Recorder
}

// MeteredClient binds a shared Client to one Session's budget. Every attempt,
// retries included, consumes one model call before it is made.
type MeteredClient struct {
	next    Client
	tracker *budget.Tracker
	policy  RetryPolicy
	budgets Budgets
	sleep   SleepFunc
	log     zerolog.Logger
	metrics *metrics.Recorder
}

// Metered wraps next for the session owning tracker.
func Metered(next Client, tracker *budget.Tracker, opts MeterOptions) *MeteredClient {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	return &MeteredClient{
		next:    next,
		tracker: tracker,
		policy:  opts.Policy,
		budgets: opts.Budgets,
		sleep:   sleep,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
}

func (m *MeteredClient) Name() string { return m.next.Name() }
func (m *MeteredClient) Close() error { return nil }

// Complete returns the first successful completion. Failures are classified:
// errs.BudgetExhausted when no model-call permit is left, errs.Cancelled when
// ctx ends, errs.ModelUnavailable otherwise.
func (m *MeteredClient) Complete(ctx context.Context, req Request) (Completion, error) {
	const op = "llm.complete"
	if req.MaxOutputTokens <= 0 {
		req.MaxOutputTokens = m.budgets.For(req.Purpose)
	}
	purpose := string(req.Purpose)
	attempts := m.policy.attempts()

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Completion{}, errs.E(errs.Cancelled, op, err)
		}
		if m.tracker.Consume(budget.ModelCall, 1) == budget.Exceeded {
			m.metrics.ModelCall(purpose, "budget_exhausted")
			return Completion{}, errs.E(errs.BudgetExhausted, op, last)
		}
		c, err := m.next.Complete(ctx, req)
		if err == nil {
			m.metrics.ModelCall(purpose, "ok")
			tokens := c.OutputTokens
			if tokens <= 0 {
				tokens = EstimateTokens(c.Text)
			}
			if m.tracker.Consume(budget.OutputTokens, int64(tokens)) == budget.Exceeded {
				m.log.Warn().Str("purpose", purpose).Int("output_tokens", tokens).Msg("session output token ceiling reached")
			}
			return c, nil
		}
		last = err
		if ctx.Err() != nil {
			return Completion{}, errs.E(errs.Cancelled, op, err)
		}
		var perm *PermanentError
		if errors.As(err, &perm) {
			m.metrics.ModelCall(purpose, "permanent")
			return Completion{}, errs.E(errs.ModelUnavailable, op, err)
		}

		delay := m.policy.Delay(attempt)
		var rl *RateLimitError
		if errors.As(err, &rl) {
			m.metrics.ModelCall(purpose, "rate_limited")
			if rl.RetryAfter > delay {
				delay = rl.RetryAfter
			}
		} else {
			m.metrics.ModelCall(purpose, "error")
		}
		if attempt == attempts {
			break
		}
		m.log.Warn().Err(err).
			Str("purpose", purpose).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("model call failed, backing off")
		if err := m.sleep(ctx, delay); err != nil {
			return Completion{}, errs.E(errs.Cancelled, op, err)
		}
	}
	return Completion{}, errs.E(errs.ModelUnavailable, op, last)
}
