package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"arbdesk/internal/engine"
	"arbdesk/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPublisher(t *testing.T) (*RedisPublisher, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedisPublisher(logger, client, "test", 5*time.Second), s, client
}

func TestRedisPublisher_Opportunities(t *testing.T) {
	p, s, _ := setupPublisher(t)
	opps := []model.ArbitrageOpportunity{{ID: "BTC-1", Coin: "BTC", EstimatedProfit: 0.079}}

	require.NoError(t, p.publish(context.Background(), engine.Event{Type: engine.EventOpportunities, Data: opps}))

	raw, err := s.Get("test:opportunities")
	require.NoError(t, err)
	var got []model.ArbitrageOpportunity
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, "BTC-1", got[0].ID)
	assert.Equal(t, 5*time.Second, s.TTL("test:opportunities"))

	s.FastForward(6 * time.Second)
	assert.False(t, s.Exists("test:opportunities"))
}

func TestRedisPublisher_SettingsHaveNoTTL(t *testing.T) {
	p, s, _ := setupPublisher(t)

	require.NoError(t, p.publish(context.Background(), engine.Event{Type: engine.EventSettings, Data: model.Settings{TradeAmount: 10}}))

	assert.True(t, s.Exists("test:settings"))
	assert.Equal(t, time.Duration(0), s.TTL("test:settings"))
}

func TestRedisPublisher_TradesAreCapped(t *testing.T) {
	p, s, _ := setupPublisher(t)
	p.tradeLimit = 3
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := model.TradeRecord{ID: fmt.Sprintf("t%d", i), Coin: "ETH", Profit: 0.1}
		require.NoError(t, p.publish(ctx, engine.Event{Type: engine.EventTrade, Data: rec}))
	}

	items, err := s.List("test:trades")
	require.NoError(t, err)
	require.Len(t, items, 3)
	var newest model.TradeRecord
	require.NoError(t, json.Unmarshal([]byte(items[0]), &newest))
	assert.Equal(t, "t4", newest.ID)
}

func TestRedisPublisher_PublishesEnvelope(t *testing.T) {
	p, _, client := setupPublisher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, "test:events")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, p.publish(ctx, engine.Event{Type: engine.EventAdvisory, Data: model.Analysis{Sentiment: model.Bullish}}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var ev struct {
		Type string         `json:"type"`
		Data model.Analysis `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
	assert.Equal(t, "advisory", ev.Type)
	assert.Equal(t, model.Bullish, ev.Data.Sentiment)
}

func TestRedisPublisher_Run(t *testing.T) {
	p, s, _ := setupPublisher(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	p.Notify(engine.Event{Type: engine.EventMarket, Data: model.MarketSnapshot{}})

	assert.Eventually(t, func() bool { return s.Exists("test:market") }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestRedisPublisher_RunFlushesOnShutdown(t *testing.T) {
	p, s, _ := setupPublisher(t)
	p.Notify(engine.Event{Type: engine.EventSettings, Data: model.Settings{TradeAmount: 7}})
	p.Notify(engine.Event{Type: engine.EventTrade, Data: model.TradeRecord{ID: "late"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)

	assert.True(t, s.Exists("test:settings"))
	trades, err := s.List("test:trades")
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestRedisPublisher_ErrorsAreReturned(t *testing.T) {
	p, s, _ := setupPublisher(t)
	s.Close()

	err := p.publish(context.Background(), engine.Event{Type: engine.EventMarket, Data: model.MarketSnapshot{}})
	assert.Error(t, err)
}
