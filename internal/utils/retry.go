package utils

import (
	"context"
	"errors"
	"net"
	"os"
	"time"
)

// DefaultDelays are the waits between attempts used by WithRetry.
var DefaultDelays = []time.Duration{250 * time.Millisecond, 750 * time.Millisecond}

// WithRetry runs fn, retrying retriable errors after each of delays.
// It gives up early when ctx is done.
func WithRetry(ctx context.Context, delays []time.Duration, fn func() error) error {
	err := fn()
	for _, delay := range delays {
		if err == nil || !isRetriable(err) {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Join(err, ctx.Err())
		case <-t.C:
		}
		err = fn()
	}
	return err
}

func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return os.IsTimeout(err)
}
