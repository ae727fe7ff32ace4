// Package async runs work on its own goroutine and hands back a channel that
// yields exactly one value within a fixed bound.
//
// Work that outlives its bound is abandoned rather than aborted: the caller
// receives the fallback value immediately and whatever the goroutine
// eventually produces is discarded.
package async

import (
	"context"
	"fmt"
	"time"

	"detector/pkg/platform/sentinel"
)

// PanicError reports a panic recovered from bounded work.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("recovered panic: %v", e.Value)
}

type outcome[T any] struct {
	value T
	err   error
}

// Bounded starts fn and returns a buffered channel that receives exactly one
// value: fn's result if it returns within timeout, otherwise fallback(err).
// err wraps sentinel.ErrTimeout on timeout, is ctx.Err() when ctx is done
// first, or is a *PanicError when fn panics. A non-positive timeout waits
// only on ctx.
func Bounded[T any](ctx context.Context, timeout time.Duration, fn func() T, fallback func(error) T) <-chan T {
	out := make(chan T, 1)
	done := make(chan outcome[T], 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: &PanicError{Value: r}}
			}
		}()
		done <- outcome[T]{value: fn()}
	}()

	go func() {
		var expired <-chan time.Time
		if timeout > 0 {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			expired = timer.C
		}

		select {
		case res := <-done:
			if res.err != nil {
				out <- fallback(res.err)
				return
			}
			out <- res.value
		case <-expired:
			out <- fallback(fmt.Errorf("%w after %s", sentinel.ErrTimeout, timeout))
		case <-ctx.Done():
			out <- fallback(ctx.Err())
		}
	}()

	return out
}

// Ready returns a channel that already holds v.
func Ready[T any](v T) <-chan T {
	out := make(chan T, 1)
	out <- v
	return out
}
