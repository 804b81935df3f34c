package service

import (
	"context"
	"time"

	"github.com/du-marcomm/scholarship-sync/internal/model"
)

// fakeScholarshipRepo is an in-memory ScholarshipRepository keyed by code.
type fakeScholarshipRepo struct {
	byCode map[string]*model.Scholarship
	nextID int64
}

func newFakeScholarshipRepo() *fakeScholarshipRepo {
	return &fakeScholarshipRepo{byCode: make(map[string]*model.Scholarship)}
}

func (r *fakeScholarshipRepo) FindByCodeAndHash(_ context.Context, code, apiHash string) (*model.Scholarship, error) {
	s, ok := r.byCode[code]
	if !ok || s.APIHash != apiHash {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeScholarshipRepo) Upsert(_ context.Context, s *model.Scholarship) error {
	now := time.Now()
	if existing, ok := r.byCode[s.Code]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	} else {
		r.nextID++
		s.ID = r.nextID
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	cp := *s
	r.byCode[s.Code] = &cp
	return nil
}

func (r *fakeScholarshipRepo) ListPublishedNotInHashes(_ context.Context, apiHashes []string) ([]*model.Scholarship, error) {
	known := make(map[string]bool, len(apiHashes))
	for _, h := range apiHashes {
		known[h] = true
	}
	var stale []*model.Scholarship
	for _, s := range r.byCode {
		if s.Published && !known[s.APIHash] {
			cp := *s
			stale = append(stale, &cp)
		}
	}
	return stale, nil
}

func (r *fakeScholarshipRepo) SetArchived(_ context.Context, id int64) error {
	for _, s := range r.byCode {
		if s.ID == id {
			s.Published = false
			s.ModerationState = model.ModerationArchived
		}
	}
	return nil
}

func (r *fakeScholarshipRepo) ClearImportStamps(_ context.Context) (int64, error) {
	var n int64
	for _, s := range r.byCode {
		if s.APIUpdateStamp != 0 {
			s.APIUpdateStamp = 0
			n++
		}
	}
	return n, nil
}

func (r *fakeScholarshipRepo) ClearImportStampByCode(_ context.Context, code string) (int64, error) {
	s, ok := r.byCode[code]
	if !ok || s.APIUpdateStamp == 0 {
		return 0, nil
	}
	s.APIUpdateStamp = 0
	return 1, nil
}

// fakeTermRepo is an in-memory TermRepository with natural-key uniqueness.
type fakeTermRepo struct {
	terms   []*model.Term
	assocs  map[int64][]int64
	nextID  int64
	inserts int
}

func newFakeTermRepo() *fakeTermRepo {
	return &fakeTermRepo{assocs: make(map[int64][]int64)}
}

func (r *fakeTermRepo) Find(_ context.Context, vocabulary, name, bannerCode, majorCode string) (*model.Term, error) {
	for _, t := range r.terms {
		if t.Vocabulary == vocabulary && t.Name == name && t.BannerCode == bannerCode && t.MajorCode == majorCode {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTermRepo) Insert(ctx context.Context, t *model.Term) (bool, error) {
	if existing, _ := r.Find(ctx, t.Vocabulary, t.Name, t.BannerCode, t.MajorCode); existing != nil {
		return false, nil
	}
	r.nextID++
	t.ID = r.nextID
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	r.terms = append(r.terms, &cp)
	r.inserts++
	return true, nil
}

func (r *fakeTermRepo) SchoolAssociations(_ context.Context, majorID int64) ([]int64, error) {
	return append([]int64(nil), r.assocs[majorID]...), nil
}

func (r *fakeTermRepo) AddSchoolAssociations(_ context.Context, majorID int64, schoolIDs []int64) error {
	present := make(map[int64]bool)
	for _, id := range r.assocs[majorID] {
		present[id] = true
	}
	for _, id := range schoolIDs {
		if !present[id] {
			present[id] = true
			r.assocs[majorID] = append(r.assocs[majorID], id)
		}
	}
	return nil
}

// fakeEditLock records every release.
type fakeEditLock struct {
	released []int64
}

func (l *fakeEditLock) Release(_ context.Context, id int64) error {
	l.released = append(l.released, id)
	return nil
}
