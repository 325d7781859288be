package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"arbdesk/internal/engine"
	"arbdesk/internal/stream"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "websocket endpoint of a running arbdesk")
	all := flag.Bool("all", false, "also print market and opportunity updates")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messages := make(chan stream.Message, 64)
	go func() {
		stream.NewSubscriber(logger, *url).Stream(ctx, messages)
		stop()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-messages:
			if !*all && (msg.Type == engine.EventMarket || msg.Type == engine.EventOpportunities) {
				continue
			}
			logger.Info("Event", "type", msg.Type, "data", string(msg.Data))
		}
	}
}
