package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/du-marcomm/scholarship-sync/internal/model"
)

func TestResolveLocationIsIdempotent(t *testing.T) {
	repo := newFakeTermRepo()
	svc := NewTermService(repo, zerolog.Nop())

	first, err := svc.ResolveLocation(context.Background(), "Colorado")
	require.NoError(t, err)
	second, err := svc.ResolveLocation(context.Background(), "Colorado")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.inserts)
}

func TestResolveDistinguishesVocabularies(t *testing.T) {
	repo := newFakeTermRepo()
	svc := NewTermService(repo, zerolog.Nop())

	school, err := svc.ResolveSchool(context.Background(), "EN")
	require.NoError(t, err)
	major, err := svc.ResolveMajor(context.Background(), "CS", "Computer Science")
	require.NoError(t, err)

	assert.NotEqual(t, school.ID, major.ID)
	assert.Equal(t, model.VocabularySchools, school.Vocabulary)
	assert.Equal(t, "EN", school.BannerCode)
	assert.Equal(t, model.VocabularyMajor, major.Vocabulary)
	assert.Equal(t, "CS", major.MajorCode)
	assert.Equal(t, "Computer Science", major.Name)
}

// raceTermRepo simulates losing the insert race: the first Insert reports a
// conflict after another writer sneaks the term in.
type raceTermRepo struct {
	*fakeTermRepo
	raced bool
}

func (r *raceTermRepo) Insert(ctx context.Context, term *model.Term) (bool, error) {
	if !r.raced {
		r.raced = true
		rival := *term
		_, err := r.fakeTermRepo.Insert(ctx, &rival)
		if err != nil {
			return false, err
		}
		return false, nil
	}
	return r.fakeTermRepo.Insert(ctx, term)
}

func TestResolveFallsBackAfterInsertConflict(t *testing.T) {
	repo := &raceTermRepo{fakeTermRepo: newFakeTermRepo()}
	svc := NewTermService(repo, zerolog.Nop())

	term, err := svc.ResolveLocation(context.Background(), "Colorado")
	require.NoError(t, err)
	require.NotNil(t, term)
	assert.NotZero(t, term.ID)
	assert.Equal(t, 1, repo.inserts)
}

func TestAddSchoolAssociationIsAppendOnly(t *testing.T) {
	repo := newFakeTermRepo()
	svc := NewTermService(repo, zerolog.Nop())

	require.NoError(t, svc.AddSchoolAssociation(context.Background(), 7, []int64{1, 2}))
	require.NoError(t, svc.AddSchoolAssociation(context.Background(), 7, []int64{2, 3}))

	assocs, err := repo.SchoolAssociations(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, assocs)
}

func TestAddSchoolAssociationNoOpWhenPresent(t *testing.T) {
	repo := newFakeTermRepo()
	svc := NewTermService(repo, zerolog.Nop())

	require.NoError(t, svc.AddSchoolAssociation(context.Background(), 7, []int64{1}))
	require.NoError(t, svc.AddSchoolAssociation(context.Background(), 7, []int64{1}))

	assocs, err := repo.SchoolAssociations(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, assocs)
}
