package db

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"partygames/internal/events"
)

const (
	recorderBatchSize = 50
	recorderInterval  = 500 * time.Millisecond
)

type batchWriter interface {
	BatchRecordEvents(evs []events.Event) error
}

// Record batches game lifecycle events from ch into w, flushing when a batch
// fills up or on every tick. Pending events are flushed before returning.
func Record(ctx context.Context, w batchWriter, ch <-chan events.Event) {
	record(ctx, w, ch, recorderInterval)
}

func record(ctx context.Context, w batchWriter, ch <-chan events.Event, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	batch := make([]events.Event, 0, recorderBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.BatchRecordEvents(batch); err != nil {
			log.Error().Err(err).Int("events", len(batch)).Msg("[DB] BatchRecordEvents error")
		}
		batch = batch[:0]
	}
	defer flush()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			batch = append(batch, ev)
			if len(batch) >= recorderBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
