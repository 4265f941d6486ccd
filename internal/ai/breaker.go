package ai

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

func ExecuteWithBreaker[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})

	if err != nil {
		return *new(T), err
	}

	return res.(T), nil
}

// BreakerCompleter stops calling a failing provider for a cool-down period
// so the concierge falls back immediately instead of waiting on timeouts.
type BreakerCompleter struct {
	next Completer
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerCompleter(name string, next Completer) *BreakerCompleter {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &BreakerCompleter{next: next, cb: cb}
}

func (b *BreakerCompleter) Complete(ctx context.Context, messages []Message, jsonMode bool) (string, error) {
	return ExecuteWithBreaker(b.cb, func() (string, error) {
		return b.next.Complete(ctx, messages, jsonMode)
	})
}

func (b *BreakerCompleter) State() gobreaker.State {
	return b.cb.State()
}
