package resolver

import (
	"context"
	"time"
)

type raceOutcome[T any] struct {
	val T
	err error
}

// raceFirst fires every candidate concurrently under a shared deadline and
// returns the first success. Losing candidates are cancelled immediately
// once a winner lands; a candidate's own failure only removes it from the
// race. Returns ok=false when every candidate fails or the deadline
// expires first.
func raceFirst[T any](ctx context.Context, deadline time.Duration, candidates []func(context.Context) (T, error)) (T, bool) {
	var zero T
	if len(candidates) == 0 {
		return zero, false
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	outcomes := make(chan raceOutcome[T], len(candidates))
	for _, candidate := range candidates {
		go func(run func(context.Context) (T, error)) {
			val, err := run(ctx)
			outcomes <- raceOutcome[T]{val: val, err: err}
		}(candidate)
	}

	for remaining := len(candidates); remaining > 0; remaining-- {
		select {
		case out := <-outcomes:
			if out.err == nil {
				return out.val, true
			}
		case <-ctx.Done():
			return zero, false
		}
	}
	return zero, false
}
