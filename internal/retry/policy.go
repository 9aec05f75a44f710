// Package retry wraps cenkalti/backoff with a small attempt-counting policy.
package retry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Shape selects how the wait grows between attempts.
type Shape int

const (
	// Linear waits attempt × BaseDelay.
	Linear Shape = iota
	// Exponential waits BaseDelay × 2^(attempt-1).
	Exponential
)

func (s Shape) String() string {
	switch s {
	case Exponential:
		return "exponential"
	default:
		return "linear"
	}
}

// ParseShape accepts "linear" or "exponential".
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return Linear, nil
	case "exponential":
		return Exponential, nil
	}
	return Linear, fmt.Errorf("unknown backoff shape %q", s)
}

// Policy bounds the number of attempts of an operation and the wait between them.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Shape       Shape

	// NewTimer overrides the wall-clock timer used between attempts.
	NewTimer func() backoff.Timer
}

// Once is a policy that never retries.
func Once() Policy {
	return Policy{MaxAttempts: 1}
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	switch p.Shape {
	case Exponential:
		return p.BaseDelay * time.Duration(1<<uint(attempt-1))
	default:
		return p.BaseDelay * time.Duration(attempt)
	}
}

// Operation is one attempt; attempt numbering starts at 1.
type Operation func(ctx context.Context, attempt int) error

// Notify is called after a failed attempt that will be retried.
type Notify func(attempt int, err error, wait time.Duration)

// Do runs op until it succeeds, the attempts are exhausted or ctx ends.
// It returns the number of attempts made and the final error: the last
// operation error, or ctx.Err() when the context stopped the retries.
func (p Policy) Do(ctx context.Context, op Operation, notify Notify) (int, error) {
	attempts := 0
	operation := func() error {
		attempts++
		return op(ctx, attempts)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&shapedBackOff{policy: p}, uint64(p.attempts()-1)),
		ctx,
	)

	var timer backoff.Timer
	if p.NewTimer != nil {
		timer = p.NewTimer()
	}

	err := backoff.RetryNotifyWithTimer(operation, b, func(err error, wait time.Duration) {
		if notify != nil {
			notify(attempts, err, wait)
		}
	}, timer)
	return attempts, err
}

// shapedBackOff implements backoff.BackOff for the policy's shape.
type shapedBackOff struct {
	policy Policy
	n      int
}

func (b *shapedBackOff) NextBackOff() time.Duration {
	b.n++
	return b.policy.Delay(b.n)
}

func (b *shapedBackOff) Reset() {
	b.n = 0
}

// Permanent marks err as not worth retrying; Do returns it unwrapped.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
