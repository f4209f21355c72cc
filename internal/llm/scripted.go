package llm

import (
	"context"
	"fmt"
	"sync"
)

// Reply is one scripted answer.
type Reply struct {
	Text         string
	Err          error
	OutputTokens int
}

// Scripted is a deterministic Client for tests. Replies are queued per
// Purpose; when a queue is empty the purpose's responder (if any) answers.
type Scripted struct {
	mu         sync.Mutex
	queues     map[Purpose][]Reply
	responders map[Purpose]func(Request) Reply
	requests   []Request
}

func NewScripted() *Scripted {
	return &Scripted{
		queues:     map[Purpose][]Reply{},
		responders: map[Purpose]func(Request) Reply{},
	}
}

// On queues replies for p.
func (s *Scripted) On(p Purpose, replies ...Reply) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[p] = append(s.queues[p], replies...)
	return s
}

// OnFunc answers p with fn once its queue is drained.
func (s *Scripted) OnFunc(p Purpose, fn func(Request) Reply) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responders[p] = fn
	return s
}

func (s *Scripted) Name() string { return "scripted" }
func (s *Scripted) Close() error { return nil }

func (s *Scripted) Complete(ctx context.Context, req Request) (Completion, error) {
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	var (
		r  Reply
		ok bool
	)
	if q := s.queues[req.Purpose]; len(q) > 0 {
		r, s.queues[req.Purpose], ok = q[0], q[1:], true
	}
	fn := s.responders[req.Purpose]
	s.mu.Unlock()

	if !ok {
		if fn == nil {
			return Completion{}, fmt.Errorf("scripted: no reply for purpose %q", req.Purpose)
		}
		r = fn(req)
	}
	if r.Err != nil {
		return Completion{}, r.Err
	}
	return Completion{Text: r.Text, Model: "scripted", OutputTokens: r.OutputTokens}, nil
}

// Requests returns every request received, in order.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls counts requests for p.
func (s *Scripted) Calls(p Purpose) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Purpose == p {
			n++
		}
	}
	return n
}
