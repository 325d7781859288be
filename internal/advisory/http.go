package advisory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"arbdesk/internal/model"

	"github.com/parnurzeal/gorequest"
	"go.uber.org/ratelimit"
)

const (
	DefaultTimeout = 15 * time.Second
	DefaultRetries = 3
	DefaultBackoff = 2 * time.Second
)

// HTTPConfig configures the HTTP advisory client.
type HTTPConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// HTTPClient posts the market context to a remote advisory endpoint.
type HTTPClient struct {
	logger  *slog.Logger
	cfg     HTTPConfig
	limiter ratelimit.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewHTTPClient creates a new HTTPClient. Outbound requests are paced by limiter.
func NewHTTPClient(logger *slog.Logger, cfg HTTPConfig, limiter ratelimit.Limiter) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if limiter == nil {
		limiter = ratelimit.NewUnlimited()
	}
	return &HTTPClient{logger: logger, cfg: cfg, limiter: limiter, sleep: sleepContext}
}

// Analyze requests an analysis, retrying rate-limited calls with exponential backoff.
func (c *HTTPClient) Analyze(ctx context.Context, req Request) (model.Analysis, error) {
	delay := c.cfg.Backoff
	for attempt := 0; ; attempt++ {
		a, err := c.do(ctx, req)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, ErrRateLimited) || attempt >= c.cfg.Retries {
			return model.Analysis{}, err
		}

		c.logger.Warn("Advisory rate limited, backing off", "attempt", attempt+1, "backoff", delay)
		if err := c.sleep(ctx, delay); err != nil {
			return model.Analysis{}, err
		}
		delay *= 2
	}
}

func (c *HTTPClient) do(ctx context.Context, req Request) (model.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return model.Analysis{}, err
	}
	c.limiter.Take()

	agent := gorequest.New().
		Post(c.cfg.URL).
		Timeout(c.cfg.Timeout).
		Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		agent = agent.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, body, errs := agent.Send(req).EndBytes()
	if len(errs) > 0 {
		return model.Analysis{}, fmt.Errorf("advisory request failed: %w", errors.Join(errs...))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return model.Analysis{}, ErrRateLimited
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		if bytes.Contains(bytes.ToLower(body), []byte("quota")) {
			return model.Analysis{}, ErrRateLimited
		}
		return model.Analysis{}, fmt.Errorf("advisory service returned status %d", resp.StatusCode)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return model.Analysis{}, fmt.Errorf("%w: empty body", ErrMalformed)
	}

	return Decode(body)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
