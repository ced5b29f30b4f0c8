// Package polltest provides a manually driven clock for poll subscriptions.
package polltest

import (
	"sync"
	"time"

	"github.com/goliatone/go-docintel/components/poll"
)

// DefaultTickTimeout bounds how long Tick waits for a loop to accept a tick.
const DefaultTickTimeout = 2 * time.Second

// Clock is a poll.Clock whose tickers only fire when Tick is called.
type Clock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*Ticker
}

// NewClock returns a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward without firing tickers.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *Clock) NewTicker(d time.Duration) poll.Ticker {
	t := &Ticker{interval: d, ch: make(chan time.Time), stopped: make(chan struct{})}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	return t
}

// Tick advances the clock by each ticker's interval and delivers one tick to
// every live ticker. It reports how many tickers accepted the tick.
func (c *Clock) Tick() int {
	c.mu.Lock()
	tickers := append([]*Ticker(nil), c.tickers...)
	if len(tickers) > 0 {
		c.now = c.now.Add(tickers[0].interval)
	}
	now := c.now
	c.mu.Unlock()

	accepted := 0
	for _, t := range tickers {
		if t.fire(now, DefaultTickTimeout) {
			accepted++
		}
	}
	return accepted
}

// Tickers returns the number of tickers created so far.
func (c *Clock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// Ticker is the manual ticker handed out by Clock.
type Ticker struct {
	interval time.Duration
	ch       chan time.Time
	stopOnce sync.Once
	stopped  chan struct{}
}

func (t *Ticker) C() <-chan time.Time { return t.ch }

func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// Stopped reports whether Stop was called.
func (t *Ticker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

func (t *Ticker) fire(now time.Time, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.stopped:
		return false
	default:
	}
	select {
	case t.ch <- now:
		return true
	case <-t.stopped:
		return false
	case <-timer.C:
		return false
	}
}
