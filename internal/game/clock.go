package game

import (
	"context"
	"time"
)

// startClockLocked stamps the start time and, when Tick > 0, launches the
// poller that refreshes elapsed once per tick.
func (r *Round) startClockLocked() {
	r.started = r.opts.Clock.Now()
	r.elapsed = 0
	if r.opts.Tick <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.stopTick = cancel
	go r.poll(ctx, r.opts.Tick)
}

func (r *Round) poll(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.mu.Lock()
			if ctx.Err() == nil {
				r.syncClockLocked()
			}
			r.mu.Unlock()
		}
	}
}

// syncClockLocked refreshes elapsed while the clock runs. It is a no-op
// before the first start and after the round is over.
func (r *Round) syncClockLocked() {
	if r.started.IsZero() || r.over {
		return
	}
	d := r.opts.Clock.Now().Sub(r.started)
	if d < 0 {
		d = 0
	}
	r.elapsed = int(d / time.Second)
}

// stopClockLocked takes a final reading and cancels the poller.
func (r *Round) stopClockLocked() {
	r.syncClockLocked()
	if r.stopTick != nil {
		r.stopTick()
		r.stopTick = nil
	}
}
