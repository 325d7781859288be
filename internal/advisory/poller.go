package advisory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"arbdesk/internal/model"
	"arbdesk/internal/schedule"
)

const (
	DefaultInterval = 45 * time.Second
	DefaultCooldown = 60 * time.Second
)

// Poller runs at most one advisory request at a time in the background and
// backs off after the service reports rate limiting.
type Poller struct {
	logger   *slog.Logger
	client   Client
	clock    schedule.Clock
	cooldown time.Duration
	timeout  time.Duration

	// source returns the current request and whether polling is enabled.
	source func() (Request, bool)
	apply  func(model.Analysis)

	mu            sync.Mutex
	inFlight      bool
	cooldownUntil time.Time
	wg            sync.WaitGroup
}

// NewPoller creates a new Poller.
func NewPoller(logger *slog.Logger, client Client, clock schedule.Clock, cooldown, timeout time.Duration, source func() (Request, bool), apply func(model.Analysis)) *Poller {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Poller{
		logger:   logger,
		client:   client,
		clock:    clock,
		cooldown: cooldown,
		timeout:  timeout,
		source:   source,
		apply:    apply,
	}
}

// Poll starts one analysis in the background and reports whether it did.
// It never blocks on the advisory service.
func (p *Poller) Poll() bool {
	req, enabled := p.source()
	if !enabled {
		return false
	}

	p.mu.Lock()
	if p.inFlight || p.clock.Now().Before(p.cooldownUntil) {
		p.mu.Unlock()
		return false
	}
	p.inFlight = true
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(req)
	return true
}

func (p *Poller) run(req Request) {
	defer p.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	result, err := p.client.Analyze(ctx, req)
	now := p.clock.Now()
	if err != nil {
		p.logger.Warn("Advisory unavailable, using fallback", "error", err)
		result = Fallback(now)
	}
	result.ReceivedAt = now

	p.mu.Lock()
	if errors.Is(err, ErrRateLimited) {
		p.cooldownUntil = now.Add(p.cooldown)
		p.logger.Warn("Advisory polling suspended", "until", p.cooldownUntil)
	}
	p.mu.Unlock()

	p.apply(result)

	p.mu.Lock()
	p.inFlight = false
	p.mu.Unlock()
}

// CooldownUntil returns the end of the current rate-limit cooldown, if any.
func (p *Poller) CooldownUntil() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cooldownUntil
}

// InFlight reports whether a request is running.
func (p *Poller) InFlight() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// Wait blocks until running requests have been applied.
func (p *Poller) Wait() {
	p.wg.Wait()
}
