package browser

import (
	"context"
	"fmt"
	"time"
)

var (
	pollStart = 100 * time.Millisecond
	pollMax   = time.Second
)

// SetBackoff changes the polling schedule of WaitUntil. Call it at startup,
// before any wait runs; non-positive values keep the current setting.
func SetBackoff(initial, max time.Duration) {
	if initial > 0 {
		pollStart = initial
	}
	if max > 0 {
		pollMax = max
	}
	if pollMax < pollStart {
		pollMax = pollStart
	}
}

// WaitUntil polls cond with exponential backoff until it reports true, the
// timeout passes (ErrTimeout) or ctx ends. A cond error stops the wait.
func WaitUntil(ctx context.Context, timeout time.Duration, cond func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	step := pollStart
	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Add(step).Before(deadline) {
			return ErrTimeout
		}
		t := time.NewTimer(step)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		if step *= 2; step > pollMax {
			step = pollMax
		}
	}
}

// WaitAny waits for the first of selectors to become visible, trying each in
// order with its own timeout. Returns the selector that appeared.
func WaitAny(ctx context.Context, p Page, timeout time.Duration, selectors ...string) (string, error) {
	var last error
	for _, sel := range selectors {
		if err := p.WaitVisible(ctx, sel, timeout); err == nil {
			return sel, nil
		} else {
			last = err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("none of %v appeared: %w", selectors, last)
}

// Settle waits until the page content stops changing between two polls.
// Used after clicks that update the DOM without a navigation.
func Settle(ctx context.Context, p Page, timeout time.Duration) error {
	prev := -1
	return WaitUntil(ctx, timeout, func() (bool, error) {
		html, err := p.Content()
		if err != nil {
			return false, err
		}
		n := len(html)
		stable := n == prev
		prev = n
		return stable, nil
	})
}
