package query

import (
	"context"
	"sync/atomic"
)

// Callbacks are the completion hooks of one Mutate call. Any may be nil.
// Exactly one of OnSuccess and OnError runs, always before OnSettled.
type Callbacks[In, Out any] struct {
	OnSuccess func(out Out, in In)
	OnError   func(err error, in In)
	OnSettled func(out Out, err error, in In)
}

// Mutation wraps a write. Calls are independent: they are neither
// deduplicated nor ordered relative to each other.
type Mutation[In, Out any] struct {
	fn      func(context.Context, In) (Out, error)
	pending atomic.Int64
}

// NewMutation creates a Mutation around fn.
func NewMutation[In, Out any](fn func(context.Context, In) (Out, error)) *Mutation[In, Out] {
	return &Mutation[In, Out]{fn: fn}
}

// Mutate runs the write once and fires cb. It returns the same outcome the
// callbacks saw.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In, cb Callbacks[In, Out]) (Out, error) {
	m.pending.Add(1)
	out, err := m.fn(ctx, in)
	m.pending.Add(-1)

	if err != nil {
		if cb.OnError != nil {
			cb.OnError(err, in)
		}
	} else if cb.OnSuccess != nil {
		cb.OnSuccess(out, in)
	}
	if cb.OnSettled != nil {
		cb.OnSettled(out, err, in)
	}
	return out, err
}

// IsPending reports whether any call is still running.
func (m *Mutation[In, Out]) IsPending() bool {
	return m.pending.Load() > 0
}
