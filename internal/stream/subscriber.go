// Package stream follows a running desk's websocket event feed.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"arbdesk/internal/engine"

	"github.com/gorilla/websocket"
)

const (
	DefaultBackoff    = time.Second
	DefaultMaxBackoff = 16 * time.Second
)

// Message is one event as received off the wire. Data is left undecoded.
type Message struct {
	Type engine.EventType `json:"type"`
	Data json.RawMessage  `json:"data"`
}

// Subscriber reads events from a websocket URL, reconnecting with
// exponential backoff whenever the connection drops.
type Subscriber struct {
	logger     *slog.Logger
	url        string
	dialer     *websocket.Dialer
	backoff    time.Duration
	maxBackoff time.Duration
}

// NewSubscriber creates a new Subscriber.
func NewSubscriber(logger *slog.Logger, url string) *Subscriber {
	return &Subscriber{
		logger:     logger,
		url:        url,
		dialer:     websocket.DefaultDialer,
		backoff:    DefaultBackoff,
		maxBackoff: DefaultMaxBackoff,
	}
}

// Stream delivers messages to out until ctx is cancelled.
func (s *Subscriber) Stream(ctx context.Context, out chan<- Message) {
	backoff := s.backoff
	for {
		if ctx.Err() != nil {
			return
		}

		s.logger.Info("Stream: connecting", "url", s.url, "backoff", backoff)
		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			s.logger.Error("Stream: connection failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
				backoff = min(backoff*2, s.maxBackoff)
			}
			continue
		}

		backoff = s.backoff
		s.logger.Info("Stream: connected")
		s.read(ctx, conn, out)
	}
}

// read pumps messages from conn until it fails or ctx is cancelled.
func (s *Subscriber) read(ctx context.Context, conn *websocket.Conn, out chan<- Message) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("Stream: read failed, reconnecting", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Warn("Stream: failed to parse message", "error", err)
			continue
		}

		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}
