package controller

import (
	"context"
	"time"
)

func defaultTicker(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// startTimer acquires a new timer handle. Callers hold c.mu.
func (c *Controller) startTimer() {
	c.stopTimer()

	ctx, cancel := context.WithCancel(context.Background())
	c.timerGen++
	gen := c.timerGen
	c.timerCancel = cancel

	ticks, stop := c.newTicker(time.Second)
	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				c.tick(gen)
			}
		}
	}()
}

// stopTimer releases the current handle, if any. Callers hold c.mu.
func (c *Controller) stopTimer() {
	if c.timerCancel == nil {
		return
	}
	c.timerCancel()
	c.timerCancel = nil
}

// tick counts a second for the timer generation that produced it. Ticks from a
// released handle are dropped.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timerCancel == nil || gen != c.timerGen {
		return
	}
	if c.state == StatePlaying {
		c.elapsed++
	}
}

// TimerRunning reports whether a timer handle is held
func (c *Controller) TimerRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.timerCancel != nil
}
