package scheduler

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task now and then on every tick until ctx ends. Runs never
// overlap: a tick that lands while the previous run is still going is skipped.
// A failed run is logged and retried on the next tick.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	var running atomic.Bool
	fire := func() {
		if !running.CompareAndSwap(false, true) {
			log.Printf("[scheduler] %s still running, tick skipped", name)
			return
		}
		go func() {
			defer running.Store(false)
			if err := task(ctx); err != nil {
				log.Printf("[%s] error: %v", name, err)
			}
		}()
	}

	fire()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fire()
		}
	}
}
