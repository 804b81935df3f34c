package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/du-marcomm/scholarship-sync/internal/model"
	"github.com/du-marcomm/scholarship-sync/internal/repository"
)

// TermService resolves reference entities with get-or-create semantics and
// maintains the major↔school association set.
//
// Creation races between concurrent workers are settled by the store's
// natural-key unique index: a losing insert falls back to looking the term
// up again, so the same key never yields two entities.
type TermService struct {
	terms repository.TermRepository
	log   zerolog.Logger
}

func NewTermService(terms repository.TermRepository, log zerolog.Logger) *TermService {
	return &TermService{
		terms: terms,
		log:   log.With().Str("component", "term_service").Logger(),
	}
}

// ResolveLocation returns the location term for a full state name.
func (s *TermService) ResolveLocation(ctx context.Context, stateName string) (*model.Term, error) {
	return s.getOrCreate(ctx, model.Term{
		Vocabulary: model.VocabularyLocation,
		Name:       stateName,
	})
}

// ResolveSchool returns the schools term for a normalized banner code.
func (s *TermService) ResolveSchool(ctx context.Context, bannerCode string) (*model.Term, error) {
	return s.getOrCreate(ctx, model.Term{
		Vocabulary: model.VocabularySchools,
		BannerCode: bannerCode,
	})
}

// ResolveMajor returns the scholarship_major term for a (majorCode, name) pair.
func (s *TermService) ResolveMajor(ctx context.Context, majorCode, name string) (*model.Term, error) {
	return s.getOrCreate(ctx, model.Term{
		Vocabulary: model.VocabularyMajor,
		MajorCode:  majorCode,
		Name:       name,
	})
}

// AddSchoolAssociation appends any school ids not already associated with
// the major. Existing associations are never removed. No-op when every id
// is already present.
func (s *TermService) AddSchoolAssociation(ctx context.Context, majorID int64, schoolIDs []int64) error {
	existing, err := s.terms.SchoolAssociations(ctx, majorID)
	if err != nil {
		return fmt.Errorf("list school associations: %w", err)
	}

	present := make(map[int64]bool, len(existing))
	for _, id := range existing {
		present[id] = true
	}

	var missing []int64
	for _, id := range schoolIDs {
		if !present[id] {
			present[id] = true
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := s.terms.AddSchoolAssociations(ctx, majorID, missing); err != nil {
		return fmt.Errorf("add school associations: %w", err)
	}
	return nil
}

func (s *TermService) getOrCreate(ctx context.Context, t model.Term) (*model.Term, error) {
	existing, err := s.terms.Find(ctx, t.Vocabulary, t.Name, t.BannerCode, t.MajorCode)
	if err != nil {
		return nil, fmt.Errorf("find term: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	inserted, err := s.terms.Insert(ctx, &t)
	if err != nil {
		return nil, fmt.Errorf("create term: %w", err)
	}
	if inserted {
		s.log.Debug().
			Str("vocabulary", t.Vocabulary).
			Str("name", t.Name).
			Int64("id", t.ID).
			Msg("term created")
		return &t, nil
	}

	// Another worker created it between our lookup and insert.
	existing, err = s.terms.Find(ctx, t.Vocabulary, t.Name, t.BannerCode, t.MajorCode)
	if err != nil {
		return nil, fmt.Errorf("find term after conflict: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("term %s/%s vanished after insert conflict", t.Vocabulary, t.Name)
	}
	return existing, nil
}
