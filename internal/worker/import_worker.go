package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/du-marcomm/scholarship-sync/internal/config"
	"github.com/du-marcomm/scholarship-sync/internal/service"
)

const ImportPollTimeout = 1 * time.Second

// ImportWorker drains the import queue, reconciling one raw scholarship
// per item. The queue is at-least-once: items that fail against the store
// are pushed back and redelivered, which the reconciler tolerates because
// replaying an unchanged item is a skip.
type ImportWorker struct {
	importService *service.ImportService
	rdb           *redis.Client
	log           zerolog.Logger
}

func NewImportWorker(importService *service.ImportService, rdb *redis.Client, log zerolog.Logger) *ImportWorker {
	return &ImportWorker{
		importService: importService,
		rdb:           rdb,
		log:           log.With().Str("component", "import_worker").Logger(),
	}
}

func (w *ImportWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ImportWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ImportWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, ImportPollTimeout, config.WorkerKey.ScholarshipImportQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			w.process(ctx, json.RawMessage(item[1]))
		}
	}
}

func (w *ImportWorker) process(ctx context.Context, raw json.RawMessage) {
	outcome, err := w.importService.ProcessItem(ctx, raw)
	if err == nil {
		w.log.Debug().Str("outcome", outcome.String()).Msg("import item processed")
		return
	}

	// Malformed or invalid items are dropped: redelivery cannot fix them.
	if errors.Is(err, service.ErrInvalidScholarship) {
		w.log.Warn().Err(err).Msg("dropping invalid import item")
		return
	}

	// Store errors are transient; requeue for redelivery.
	w.log.Error().Err(err).Msg("import item failed, requeueing")
	if err := w.rdb.RPush(ctx, config.WorkerKey.ScholarshipImportQueue, []byte(raw)).Err(); err != nil {
		w.log.Error().Err(err).Msg("requeue failed, item lost")
	}
}
