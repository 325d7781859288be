package database

import (
	"context"
	"log/slog"

	"arbdesk/internal/engine"
	"arbdesk/internal/model"
)

const DefaultJournalBuffer = 256

// Journal copies executed trades into a Repository off the engine's path.
// Trades that arrive while the buffer is full are dropped with a warning.
type Journal struct {
	logger *slog.Logger
	repo   Repository
	queue  chan model.TradeRecord
}

// NewJournal creates a new Journal.
func NewJournal(logger *slog.Logger, repo Repository, buffer int) *Journal {
	if buffer <= 0 {
		buffer = DefaultJournalBuffer
	}
	return &Journal{logger: logger, repo: repo, queue: make(chan model.TradeRecord, buffer)}
}

// Notify queues trade events. It never blocks.
func (j *Journal) Notify(ev engine.Event) {
	if ev.Type != engine.EventTrade {
		return
	}
	rec, ok := ev.Data.(model.TradeRecord)
	if !ok {
		return
	}
	select {
	case j.queue <- rec:
	default:
		j.logger.Warn("Trade journal full, dropping trade", "id", rec.ID)
	}
}

// Run writes queued trades until ctx is done, then flushes what is left.
// Cancel ctx only after the last trade producer has stopped.
func (j *Journal) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			j.flush(context.WithoutCancel(ctx))
			return
		case rec := <-j.queue:
			j.write(ctx, rec)
		}
	}
}

func (j *Journal) flush(ctx context.Context) {
	for {
		select {
		case rec := <-j.queue:
			j.write(ctx, rec)
		default:
			return
		}
	}
}

func (j *Journal) write(ctx context.Context, rec model.TradeRecord) {
	if err := j.repo.LogTrade(ctx, rec); err != nil {
		j.logger.Error("Failed to journal trade", "id", rec.ID, "error", err)
	}
}
