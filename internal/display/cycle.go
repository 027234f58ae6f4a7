package display

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultInterval is how long a slide stays up when it has no own duration.
const DefaultInterval = 10 * time.Second

// ChangeFunc receives every slide transition of a running cycle.
type ChangeFunc func(index int, s Slide)

// Cycle sequences a fixed slide list in an endless loop. Automatic advance
// happens inside Run; Next and Prev may be called from any goroutine and
// restart the dwell timer.
type Cycle struct {
	mu       sync.Mutex
	slides   []Slide
	idx      int
	interval time.Duration
	paused   bool
	stopped  bool
	dirty    bool

	kick chan struct{}
}

func NewCycle(slides []Slide, interval time.Duration) *Cycle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Cycle{
		slides:   slices.Clone(slides),
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

func (c *Cycle) Len() int {
	return len(c.slides)
}

// Current returns the cursor and the slide under it; ok is false for an
// empty cycle.
func (c *Cycle) Current() (int, Slide, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.slides) == 0 {
		return 0, Slide{}, false
	}
	return c.idx, c.slides[c.idx], true
}

// Next moves to the following slide, wrapping to the first.
func (c *Cycle) Next() (int, Slide) { return c.move(1, true) }

// Prev moves to the preceding slide, wrapping to the last.
func (c *Cycle) Prev() (int, Slide) { return c.move(-1, true) }

// Pause suspends automatic advance until Resume. Manual moves still work.
func (c *Cycle) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
	c.signal()
}

func (c *Cycle) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
	c.signal()
}

func (c *Cycle) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Stopped reports whether Run has returned; a stopped cycle no longer moves.
func (c *Cycle) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// move returns the index and slide it landed on, read under the same lock
// that moved the cursor.
func (c *Cycle) move(step int, manual bool) (int, Slide) {
	c.mu.Lock()
	n := len(c.slides)
	if n == 0 {
		c.mu.Unlock()
		return 0, Slide{}
	}
	if !c.stopped {
		c.idx = ((c.idx+step)%n + n) % n
		if manual {
			c.dirty = true
		}
	}
	idx, s := c.idx, c.slides[c.idx]
	c.mu.Unlock()

	if manual {
		c.signal()
	}
	return idx, s
}

func (c *Cycle) signal() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

func (c *Cycle) dwell() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused || len(c.slides) < 2 {
		return 0, false
	}
	if d := c.slides[c.idx].Duration(); d > 0 {
		return d, true
	}
	return c.interval, true
}

// Run advances the cycle on its timer until ctx is done, reporting every
// transition (timed or manual) to onChange from this goroutine. Once Run
// returns the cycle is stopped for good.
func (c *Cycle) Run(ctx context.Context, onChange ChangeFunc) {
	defer func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()
	}()

	for {
		var (
			timer *time.Timer
			tick  <-chan time.Time
		)
		if d, ok := c.dwell(); ok {
			timer = time.NewTimer(d)
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case <-c.kick:
			if timer != nil {
				timer.Stop()
			}
			c.mu.Lock()
			changed := c.dirty && len(c.slides) > 0
			c.dirty = false
			var (
				idx int
				s   Slide
			)
			if changed {
				idx, s = c.idx, c.slides[c.idx]
			}
			c.mu.Unlock()
			if changed && ctx.Err() == nil && onChange != nil {
				onChange(idx, s)
			}

		case <-tick:
			idx, s := c.move(1, false)
			if ctx.Err() == nil && onChange != nil {
				onChange(idx, s)
			}
		}
	}
}
