package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/du-marcomm/scholarship-sync/internal/model"
	"github.com/du-marcomm/scholarship-sync/internal/scholarhash"
)

type importFixture struct {
	svc   *ImportService
	repo  *fakeScholarshipRepo
	terms *fakeTermRepo
	locks *fakeEditLock
}

func newImportFixture() *importFixture {
	repo := newFakeScholarshipRepo()
	terms := newFakeTermRepo()
	locks := &fakeEditLock{}

	svc := NewImportService(repo, NewTermService(terms, zerolog.Nop()), locks, nil, nil, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	return &importFixture{svc: svc, repo: repo, terms: terms, locks: locks}
}

func TestProcessItemCreatesScholarship(t *testing.T) {
	f := newImportFixture()

	raw := []byte(`{
		"code": "SCH001",
		"name": "Jones &amp; Smith Award",
		"lastUpdated": "2026-02-10T09:00:00Z",
		"description": "For first-generation students.",
		"levels": ["UG"],
		"merit": [{"meritType": "Merit", "minimumGPA": 3.5}],
		"minimumAge": 18,
		"raceCodes": [{"id": "B"}, {"id": "H"}],
		"international": true,
		"studentsOfColor": true,
		"veterans": false,
		"gender": "F",
		"states": ["co", "CO", "zz"]
	}`)

	outcome, err := f.svc.ProcessItem(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, ImportCreated, outcome)

	node := f.repo.byCode["SCH001"]
	require.NotNil(t, node)
	assert.Equal(t, "Jones & Smith Award", node.Title)
	assert.Equal(t, "For first-generation students.", node.Description)
	assert.Equal(t, []string{"first_current", "second", "third", "fourth"}, node.ClassLevels)
	assert.Equal(t, "merit", node.Kind)
	require.NotNil(t, node.MinimumGPA)
	assert.Equal(t, 3.5, *node.MinimumGPA)
	require.NotNil(t, node.MinimumAge)
	assert.Equal(t, 18, *node.MinimumAge)
	assert.Equal(t, []string{"B", "H"}, node.RaceCodes)
	assert.Equal(t, "yes", node.International)
	assert.Equal(t, []string{"students_color", "women"}, node.Population)
	assert.Len(t, node.APIHash, 64)
	assert.Equal(t, parseFeedTime("2026-02-10T09:00:00Z"), node.LastUpdate)
	assert.Equal(t, f.svc.now().Unix(), node.APIUpdateStamp)
	assert.True(t, node.Published)
	assert.Equal(t, model.ModerationPublished, node.ModerationState)

	// "co" and "CO" collapse into one location; "zz" still gets a term.
	require.Len(t, node.HomeStateIDs, 2)
	colorado, err := f.terms.Find(context.Background(), model.VocabularyLocation, "Colorado", "", "")
	require.NoError(t, err)
	require.NotNil(t, colorado)
	unknown, err := f.terms.Find(context.Background(), model.VocabularyLocation, "ZZ Unknown", "", "")
	require.NoError(t, err)
	require.NotNil(t, unknown)
	assert.Equal(t, []int64{colorado.ID, unknown.ID}, node.HomeStateIDs)
}

func TestProcessItemRedeliveryRewritesIdempotently(t *testing.T) {
	f := newImportFixture()
	raw := []byte(`{"code":"SCH002","name":"Provost Scholarship","lastUpdated":"2026-02-10T09:00:00Z"}`)

	outcome, err := f.svc.ProcessItem(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, ImportCreated, outcome)
	first := *f.repo.byCode["SCH002"]

	// An equal timestamp still counts as updated, so redelivery rewrites
	// the same row with identical content.
	outcome, err = f.svc.ProcessItem(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, ImportUpdated, outcome)

	require.Len(t, f.repo.byCode, 1)
	second := *f.repo.byCode["SCH002"]
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.APIHash, second.APIHash)
	assert.Equal(t, first.LastUpdate, second.LastUpdate)
	assert.Equal(t, []int64{first.ID}, f.locks.released)
}

func TestProcessItemSkipsWhenStoredIsNewer(t *testing.T) {
	f := newImportFixture()
	raw := []byte(`{"code":"SCH003","name":"Provost Scholarship","lastUpdated":"2026-02-10T09:00:00Z"}`)

	fingerprint, err := scholarhash.Fingerprint(raw)
	require.NoError(t, err)

	feedUpdated := parseFeedTime("2026-02-10T09:00:00Z")
	require.NoError(t, f.repo.Upsert(context.Background(), &model.Scholarship{
		Code:            "SCH003",
		Title:           "Provost Scholarship",
		APIHash:         fingerprint,
		LastUpdate:      feedUpdated + 60,
		Published:       true,
		ModerationState: model.ModerationPublished,
	}))

	outcome, err := f.svc.ProcessItem(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, ImportSkipped, outcome)

	node := f.repo.byCode["SCH003"]
	assert.Equal(t, feedUpdated+60, node.LastUpdate)
	assert.Empty(t, f.locks.released)
}

func TestProcessItemChangedContentRewritesSameRow(t *testing.T) {
	f := newImportFixture()

	_, err := f.svc.ProcessItem(context.Background(),
		[]byte(`{"code":"SCH004","name":"Old Name","lastUpdated":"2026-02-10T09:00:00Z"}`))
	require.NoError(t, err)
	originalID := f.repo.byCode["SCH004"].ID

	outcome, err := f.svc.ProcessItem(context.Background(),
		[]byte(`{"code":"SCH004","name":"New Name","lastUpdated":"2026-02-11T09:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, ImportCreated, outcome)

	require.Len(t, f.repo.byCode, 1)
	node := f.repo.byCode["SCH004"]
	assert.Equal(t, originalID, node.ID)
	assert.Equal(t, "New Name", node.Title)
}

func TestProcessItemRepublishesArchived(t *testing.T) {
	f := newImportFixture()
	raw := []byte(`{"code":"SCH005","name":"Returning Award","lastUpdated":"2026-02-10T09:00:00Z"}`)

	_, err := f.svc.ProcessItem(context.Background(), raw)
	require.NoError(t, err)

	node := f.repo.byCode["SCH005"]
	require.NoError(t, f.repo.SetArchived(context.Background(), node.ID))

	outcome, err := f.svc.ProcessItem(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, ImportUpdated, outcome)

	node = f.repo.byCode["SCH005"]
	assert.True(t, node.Published)
	assert.Equal(t, model.ModerationPublished, node.ModerationState)
}

func TestProcessItemRejectsInvalid(t *testing.T) {
	f := newImportFixture()

	_, err := f.svc.ProcessItem(context.Background(), []byte(`{"name":"No Code"}`))
	assert.ErrorIs(t, err, ErrInvalidScholarship)

	_, err = f.svc.ProcessItem(context.Background(), []byte(`{"code":"SCH006"}`))
	assert.ErrorIs(t, err, ErrInvalidScholarship)

	_, err = f.svc.ProcessItem(context.Background(), []byte(`{"code":`))
	assert.ErrorIs(t, err, ErrInvalidScholarship)

	assert.Empty(t, f.repo.byCode)
}

func TestProcessItemOptionalFieldsAbsent(t *testing.T) {
	f := newImportFixture()

	outcome, err := f.svc.ProcessItem(context.Background(),
		[]byte(`{"code":"SCH007","name":"Bare Minimum Award"}`))
	require.NoError(t, err)
	assert.Equal(t, ImportCreated, outcome)

	node := f.repo.byCode["SCH007"]
	assert.Empty(t, node.Kind)
	assert.Nil(t, node.MinimumGPA)
	assert.Nil(t, node.MinimumAge)
	assert.Empty(t, node.Population)
	assert.Empty(t, node.International)
	assert.Zero(t, node.LastUpdate)
}

func TestProcessItemSingleSchoolAssociatesAllMajors(t *testing.T) {
	f := newImportFixture()

	raw := []byte(`{
		"code": "SCH008",
		"name": "Engineering Award",
		"colleges": [{"collegeCode": "EN"}],
		"majors": [
			{"majorCode": "CS", "major": "Computer Science", "collegeCode": "EN"},
			{"majorCode": "HIST", "major": "History", "collegeCode": "AH"}
		]
	}`)

	_, err := f.svc.ProcessItem(context.Background(), raw)
	require.NoError(t, err)

	node := f.repo.byCode["SCH008"]
	require.Len(t, node.SchoolIDs, 1)
	require.Len(t, node.MajorIDs, 2)

	// With a single school every major associates to it, college code or not.
	schoolID := node.SchoolIDs[0]
	for _, majorID := range node.MajorIDs {
		assocs, err := f.terms.SchoolAssociations(context.Background(), majorID)
		require.NoError(t, err)
		assert.Equal(t, []int64{schoolID}, assocs)
	}
}

func TestProcessItemMultiSchoolMatchesCollegeCode(t *testing.T) {
	f := newImportFixture()

	// "AH" and "SS" are both legacy codes for AHSS, and "TX" for LW, so the
	// major carrying "SS" must land on the school created from "AH".
	raw := []byte(`{
		"code": "SCH009",
		"name": "Joint Award",
		"colleges": [{"collegeCode": "AH"}, {"collegeCode": "TX"}],
		"majors": [
			{"majorCode": "SOC", "major": "Sociology", "collegeCode": "SS"},
			{"majorCode": "LAW", "major": "Law", "collegeCode": "TX"},
			{"majorCode": "BIO", "major": "Biology", "collegeCode": "NS"}
		]
	}`)

	_, err := f.svc.ProcessItem(context.Background(), raw)
	require.NoError(t, err)

	node := f.repo.byCode["SCH009"]
	require.Len(t, node.SchoolIDs, 2)
	require.Len(t, node.MajorIDs, 3)

	ahss, err := f.terms.Find(context.Background(), model.VocabularySchools, "", "AHSS", "")
	require.NoError(t, err)
	require.NotNil(t, ahss)
	law, err := f.terms.Find(context.Background(), model.VocabularySchools, "", "LW", "")
	require.NoError(t, err)
	require.NotNil(t, law)

	socAssocs, err := f.terms.SchoolAssociations(context.Background(), node.MajorIDs[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{ahss.ID}, socAssocs)

	lawAssocs, err := f.terms.SchoolAssociations(context.Background(), node.MajorIDs[1])
	require.NoError(t, err)
	assert.Equal(t, []int64{law.ID}, lawAssocs)

	// No college on the record matches "NS".
	bioAssocs, err := f.terms.SchoolAssociations(context.Background(), node.MajorIDs[2])
	require.NoError(t, err)
	assert.Empty(t, bioAssocs)
}
