package utils

import (
	"context"
	"time"

	"github.com/goto/salt/log"
)

// Retry calls f up to retryMax times, backing off exponentially from retryBackoffMs milliseconds.
// It stops early when ctx is done and returns the last error seen.
func Retry(ctx context.Context, l log.Logger, retryMax int, retryBackoffMs int64, f func() error) error {
	return RetryIf(ctx, l, retryMax, retryBackoffMs, func(error) bool { return true }, f)
}

// RetryIf is Retry that gives up as soon as f fails with an error retryable rejects.
func RetryIf(ctx context.Context, l log.Logger, retryMax int, retryBackoffMs int64, retryable func(error) bool, f func() error) error {
	if retryMax < 1 {
		retryMax = 1
	}

	var err error
	for i := range retryMax {
		if err = f(); err == nil {
			return nil
		}
		if i == retryMax-1 || !retryable(err) {
			break
		}

		wait := time.Duration(retryBackoffMs<<i) * time.Millisecond
		l.Warn("retrying after failure", "attempt", i+1, "wait", wait.String(), "error", err.Error())
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
	}

	return err
}
