package llm

import (
	"context"
	"strings"
	"testing"
	"time"
)

type tagging struct {
	next Client
	tag  string
	seen *[]string
}

func (t *tagging) Name() string { return t.next.Name() }
func (t *tagging) Close() error { return t.next.Close() }
func (t *tagging) Complete(ctx context.Context, req Request) (Completion, error) {
	*t.seen = append(*t.seen, t.tag)
	return t.next.Complete(ctx, req)
}

func TestWrapOrder(t *testing.T) {
	var seen []string
	mw := func(tag string) Middleware {
		return func(next Client) Client { return &tagging{next: next, tag: tag, seen: &seen} }
	}
	s := NewScripted().On(PurposeReasoning, Reply{Text: "{}"})
	c := Wrap(s, mw("A"), mw("B"))
	if _, err := c.Complete(context.Background(), Request{Purpose: PurposeReasoning}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if strings.Join(seen, "") != "AB" {
		t.Fatalf("order = %v, want A then B", seen)
	}
}

func TestRateLimitDisabledIsPassthrough(t *testing.T) {
	s := NewScripted()
	if got := RateLimit(0, 1)(s); got != Client(s) {
		t.Fatalf("rps=0 should return the inner client")
	}
}

func TestRateLimitSpacing(t *testing.T) {
	s := NewScripted().OnFunc(PurposeReasoning, func(Request) Reply { return Reply{Text: "{}"} })
	c := Wrap(s, RateLimit(20, 1))
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.Complete(ctx, Request{Purpose: PurposeReasoning}); err != nil {
			t.Fatalf("Complete: %v", err)
		}
	}
	// First call passes on the burst token, the next two wait ~50ms each.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("elapsed %s, limiter did not space calls", elapsed)
	}
}

func TestFakeClientRequiredIDs(t *testing.T) {
	f := NewFakeClient()
	out, err := f.Complete(context.Background(), Request{
		Purpose: PurposeGeneration,
		Prompt:  "x\n[REQUIRED_IDS]\n- map\n- loading\n\n[OTHER]\n",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(out.Text, `id=\"map\"`) || !strings.Contains(out.Text, `id=\"loading\"`) {
		t.Fatalf("missing ids in %s", out.Text)
	}
}
