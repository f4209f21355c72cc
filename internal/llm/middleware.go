package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Middleware decorates a Client.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// RateLimit spaces requests with a token bucket. rps <= 0 disables it.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		return &rateLimited{next: next, lim: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next Client
	lim  *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) Complete(ctx context.Context, req Request) (Completion, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return Completion{}, err
	}
	return c.next.Complete(ctx, req)
}

// WithLogging logs request size, latency and errors.
func WithLogging(logger zerolog.Logger) Middleware {
	return func(next Client) Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Client
	log  zerolog.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Complete(ctx context.Context, req Request) (Completion, error) {
	start := time.Now()
	l.log.Debug().
		Str("client", l.next.Name()).
		Str("purpose", string(req.Purpose)).
		Int("prompt_bytes", len(req.System)+len(req.Prompt)).
		Int("max_output_tokens", req.MaxOutputTokens).
		Msg("llm request")
	c, err := l.next.Complete(ctx, req)
	if err != nil {
		l.log.Warn().Err(err).Str("purpose", string(req.Purpose)).Dur("latency", time.Since(start)).Msg("llm error")
		return c, err
	}
	l.log.Debug().
		Str("purpose", string(req.Purpose)).
		Int("output_tokens", c.OutputTokens).
		Dur("latency", time.Since(start)).
		Msg("llm response")
	return c, nil
}
