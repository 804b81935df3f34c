package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/du-marcomm/scholarship-sync/internal/lock"
	"github.com/du-marcomm/scholarship-sync/internal/repository"
)

// ArchiveReport summarizes one archive pass.
type ArchiveReport struct {
	Archived   int    `json:"archived"`
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// ArchiveService unpublishes scholarships that dropped out of the feed.
type ArchiveService struct {
	scholarships repository.ScholarshipRepository
	locks        lock.EditLock
	minBatch     int
	log          zerolog.Logger
}

func NewArchiveService(scholarships repository.ScholarshipRepository, locks lock.EditLock, minBatch int, log zerolog.Logger) *ArchiveService {
	return &ArchiveService{
		scholarships: scholarships,
		locks:        locks,
		minBatch:     minBatch,
		log:          log.With().Str("component", "archive_service").Logger(),
	}
}

// Archive deactivates every published scholarship whose fingerprint is
// absent from the cycle's imported set.
//
// A batch of minBatch items or fewer is never trusted: a degraded or
// partial fetch must not silently wipe the catalog, so the pass is skipped
// and reported, not failed.
func (s *ArchiveService) Archive(ctx context.Context, apiHashes []string) (ArchiveReport, error) {
	if len(apiHashes) <= s.minBatch {
		reason := fmt.Sprintf("only %d scholarships imported (minimum %d), batch too small to trust for archival",
			len(apiHashes), s.minBatch)
		s.log.Info().
			Int("imported", len(apiHashes)).
			Int("min_batch", s.minBatch).
			Msg("archive pass skipped: " + reason)
		return ArchiveReport{Skipped: true, SkipReason: reason}, nil
	}

	stale, err := s.scholarships.ListPublishedNotInHashes(ctx, apiHashes)
	if err != nil {
		return ArchiveReport{}, fmt.Errorf("list stale scholarships: %w", err)
	}
	if len(stale) == 0 {
		s.log.Info().Msg("archive pass found no scholarships to archive")
		return ArchiveReport{}, nil
	}

	archived := 0
	for _, node := range stale {
		if err := s.locks.Release(ctx, node.ID); err != nil {
			s.log.Warn().Err(err).Int64("id", node.ID).Msg("failed to release edit lock")
		}
		if err := s.scholarships.SetArchived(ctx, node.ID); err != nil {
			return ArchiveReport{Archived: archived}, fmt.Errorf("archive scholarship %s: %w", node.Code, err)
		}
		archived++

		s.log.Info().
			Str("code", node.Code).
			Str("title", node.Title).
			Int64("id", node.ID).
			Msg("scholarship archived")
	}

	s.log.Info().Int("archived", archived).Msg("archive pass complete")
	return ArchiveReport{Archived: archived}, nil
}
