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

const ArchivePollTimeout = 1 * time.Second

// ArchiveWorker consumes one fingerprint set per import cycle and archives
// published scholarships that fell out of the feed. The queue carries the
// complete set for a cycle in a single item, so archival never runs against
// a partial batch.
type ArchiveWorker struct {
	archiveService *service.ArchiveService
	rdb            *redis.Client
	log            zerolog.Logger
}

func NewArchiveWorker(archiveService *service.ArchiveService, rdb *redis.Client, log zerolog.Logger) *ArchiveWorker {
	return &ArchiveWorker{
		archiveService: archiveService,
		rdb:            rdb,
		log:            log.With().Str("component", "archive_worker").Logger(),
	}
}

func (w *ArchiveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ArchiveWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ArchiveWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, ArchivePollTimeout, config.WorkerKey.ScholarshipArchiveQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var apiHashes []string
			if err := json.Unmarshal([]byte(item[1]), &apiHashes); err != nil {
				w.log.Error().Err(err).Msg("invalid archive set payload")
				continue
			}

			report, err := w.archiveService.Archive(ctx, apiHashes)
			if err != nil {
				w.log.Error().Err(err).Msg("archive pass failed, requeueing")
				w.rdb.RPush(ctx, config.WorkerKey.ScholarshipArchiveQueue, []byte(item[1]))
				continue
			}
			if report.Skipped {
				w.log.Info().Str("reason", report.SkipReason).Msg("archive pass skipped")
			}
		}
	}
}
