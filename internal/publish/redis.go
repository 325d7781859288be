// Package publish mirrors engine events into Redis for external dashboards.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"arbdesk/internal/engine"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL        = 5 * time.Second
	DefaultBuffer     = 512
	DefaultTradeLimit = 50
)

// RedisPublisher keeps the latest state under well-known keys and fans every
// event out on a pub/sub channel. It is write-only.
type RedisPublisher struct {
	logger     *slog.Logger
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	tradeLimit int64
	queue      chan engine.Event
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(logger *slog.Logger, client *redis.Client, prefix string, ttl time.Duration) *RedisPublisher {
	if prefix == "" {
		prefix = "arbdesk"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisPublisher{
		logger:     logger,
		client:     client,
		prefix:     prefix,
		ttl:        ttl,
		tradeLimit: DefaultTradeLimit,
		queue:      make(chan engine.Event, DefaultBuffer),
	}
}

// Key returns the namespaced redis key for name.
func (p *RedisPublisher) Key(name string) string {
	return fmt.Sprintf("%s:%s", p.prefix, name)
}

// Notify queues ev. When Redis falls behind, events are dropped.
func (p *RedisPublisher) Notify(ev engine.Event) {
	select {
	case p.queue <- ev:
	default:
		p.logger.Warn("Redis publisher queue full, dropping event", "type", ev.Type)
	}
}

// Run publishes queued events until ctx is done, then flushes what is left.
func (p *RedisPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.flush(context.WithoutCancel(ctx))
			return
		case ev := <-p.queue:
			p.send(ctx, ev)
		}
	}
}

func (p *RedisPublisher) flush(ctx context.Context) {
	for {
		select {
		case ev := <-p.queue:
			p.send(ctx, ev)
		default:
			return
		}
	}
}

func (p *RedisPublisher) send(ctx context.Context, ev engine.Event) {
	if err := p.publish(ctx, ev); err != nil {
		p.logger.Error("Failed to publish event", "type", ev.Type, "error", err)
	}
}

func (p *RedisPublisher) publish(ctx context.Context, ev engine.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Type, err)
	}
	envelope, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Type, err)
	}

	pipe := p.client.Pipeline()
	switch ev.Type {
	case engine.EventMarket, engine.EventOpportunities:
		pipe.Set(ctx, p.Key(string(ev.Type)), data, p.ttl)
	case engine.EventAdvisory, engine.EventSettings:
		pipe.Set(ctx, p.Key(string(ev.Type)), data, 0)
	case engine.EventTrade:
		pipe.LPush(ctx, p.Key("trades"), data)
		pipe.LTrim(ctx, p.Key("trades"), 0, p.tradeLimit-1)
	}
	pipe.Publish(ctx, p.Key("events"), envelope)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}
