package schedule

import (
	"sync"
	"time"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// CancelFunc stops a scheduled callback. Calling it more than once is a no-op.
type CancelFunc func()

// Scheduler runs callbacks on a fixed interval until cancelled.
type Scheduler interface {
	Every(interval time.Duration, fn func()) CancelFunc
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// TickerScheduler runs each callback on its own time.Ticker goroutine.
// A slow callback causes ticks to be dropped rather than queued.
type TickerScheduler struct {
	wg sync.WaitGroup
}

// NewTickerScheduler creates a new TickerScheduler.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

func (s *TickerScheduler) Every(interval time.Duration, fn func()) CancelFunc {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Wait blocks until every cancelled callback goroutine has exited.
func (s *TickerScheduler) Wait() {
	s.wg.Wait()
}
