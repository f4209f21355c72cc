// Package budget tracks a Session's consumption against its ceilings.
//
// A Tracker is pure state. It performs no I/O and never blocks; callers
// check the Result of every Consume and branch on Exceeded.
package budget

import (
	"fmt"
	"sync"
	"time"
)

// Kind is a consumable resource.
type Kind string

const (
	Iteration    Kind = "iteration"
	ModelCall    Kind = "model_call"
	ToolSeconds  Kind = "tool_seconds"
	OutputTokens Kind = "output_tokens"
)

// Result of a Consume call.
type Result int

const (
	OK Result = iota
	Exceeded
)

func (r Result) String() string {
	if r == Exceeded {
		return "exceeded"
	}
	return "ok"
}

// Ceilings bound one Session. MaxOutputTokens of zero disables the
// session-wide token ceiling; per-call output limits still apply upstream.
type Ceilings struct {
	MaxIterations   int
	MaxModelCalls   int
	MaxToolTime     time.Duration
	MaxOutputTokens int
}

// Validate rejects ceilings that would make every session fail immediately.
func (c Ceilings) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("budget: max iterations must be positive, got %d", c.MaxIterations)
	}
	if c.MaxModelCalls <= 0 {
		return fmt.Errorf("budget: max model calls must be positive, got %d", c.MaxModelCalls)
	}
	if c.MaxToolTime <= 0 {
		return fmt.Errorf("budget: max tool time must be positive, got %s", c.MaxToolTime)
	}
	if c.MaxOutputTokens < 0 {
		return fmt.Errorf("budget: max output tokens must not be negative, got %d", c.MaxOutputTokens)
	}
	return nil
}

// Snapshot is a point-in-time copy of a Tracker.
type Snapshot struct {
	Ceilings            Ceilings      `json:"ceilings"`
	Iterations          int           `json:"iterations"`
	ModelCalls          int           `json:"model_calls"`
	ToolTime            time.Duration `json:"tool_time"`
	OutputTokens        int           `json:"output_tokens"`
	Exhausted           bool          `json:"exhausted"`
	ExhaustedBy         Kind          `json:"exhausted_by,omitempty"`
	ResearchExhaustedBy Kind          `json:"research_exhausted_by,omitempty"`
}

// Tracker holds monotonic counters for one Session.
//
// Iteration and ToolSeconds only bound the research phase: exceeding them
// closes research but leaves ModelCall and OutputTokens available to the
// stages that follow. Exceeding ModelCall or OutputTokens closes everything.
type Tracker struct {
	mu          sync.Mutex
	ceil        Ceilings
	iterations  int
	modelCalls  int
	toolTime    time.Duration
	tokens      int
	exhaustedBy Kind
	researchBy  Kind
}

// New returns a tracker bound to c.
func New(c Ceilings) *Tracker {
	return &Tracker{ceil: c}
}

// Consume records amount of kind.
//
// Iteration and ModelCall are permits: they are requested before the work
// and the counter does not advance when the request would pass the ceiling.
// ToolSeconds (amount in nanoseconds, see ConsumeDuration) and OutputTokens
// are measurements of work already done: they are always recorded and report
// Exceeded once the total passes the ceiling. Exhaustion is sticky within
// its scope: a research ceiling refuses later research work, a session
// ceiling refuses everything.
func (t *Tracker) Consume(kind Kind, amount int64) Result {
	if amount < 0 {
		return Exceeded
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.exhaustedBy != "" {
		return Exceeded
	}
	switch kind {
	case Iteration:
		if t.researchBy != "" {
			return Exceeded
		}
		if int64(t.iterations)+amount > int64(t.ceil.MaxIterations) {
			t.researchBy = kind
			return Exceeded
		}
		t.iterations += int(amount)
	case ModelCall:
		if int64(t.modelCalls)+amount > int64(t.ceil.MaxModelCalls) {
			t.exhaustedBy = kind
			return Exceeded
		}
		t.modelCalls += int(amount)
	case ToolSeconds:
		if t.researchBy != "" {
			return Exceeded
		}
		t.toolTime += time.Duration(amount)
		if t.toolTime > t.ceil.MaxToolTime {
			t.researchBy = kind
			return Exceeded
		}
	case OutputTokens:
		t.tokens += int(amount)
		if t.ceil.MaxOutputTokens > 0 && t.tokens > t.ceil.MaxOutputTokens {
			t.exhaustedBy = kind
			return Exceeded
		}
	default:
		return Exceeded
	}
	return OK
}

// ConsumeDuration records elapsed tool time.
func (t *Tracker) ConsumeDuration(d time.Duration) Result {
	return t.Consume(ToolSeconds, int64(d))
}

// Exhausted reports whether a session-wide ceiling has been exceeded.
func (t *Tracker) Exhausted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exhaustedBy != ""
}

// ExhaustedBy names the session-wide kind that exhausted the budget, or "".
func (t *Tracker) ExhaustedBy() Kind {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exhaustedBy
}

// ResearchExhaustedBy names the kind that closed the research phase, or "".
// A session-wide exhaustion closes research too and takes precedence.
func (t *Tracker) ResearchExhaustedBy() Kind {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.exhaustedBy != "" {
		return t.exhaustedBy
	}
	return t.researchBy
}

// RemainingToolTime is the tool time left before the ceiling.
func (t *Tracker) RemainingToolTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if left := t.ceil.MaxToolTime - t.toolTime; left > 0 {
		return left
	}
	return 0
}

// Remaining returns the permits left for Iteration or ModelCall, and -1 for
// measurement kinds.
func (t *Tracker) Remaining(kind Kind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch kind {
	case Iteration:
		return t.ceil.MaxIterations - t.iterations
	case ModelCall:
		return t.ceil.MaxModelCalls - t.modelCalls
	default:
		return -1
	}
}

// Snapshot copies the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Ceilings:            t.ceil,
		Iterations:          t.iterations,
		ModelCalls:          t.modelCalls,
		ToolTime:            t.toolTime,
		OutputTokens:        t.tokens,
		Exhausted:           t.exhaustedBy != "",
		ExhaustedBy:         t.exhaustedBy,
		ResearchExhaustedBy: t.researchBy,
	}
}
