package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/du-marcomm/scholarship-sync/internal/model"
)

// fakeSettingRepo is an in-memory SettingRepository.
type fakeSettingRepo struct {
	values map[string]string
}

func (r *fakeSettingRepo) GetAll(_ context.Context) ([]model.AppSetting, error) {
	var settings []model.AppSetting
	for k, v := range r.values {
		settings = append(settings, model.AppSetting{Key: k, Value: v})
	}
	return settings, nil
}

func (r *fakeSettingRepo) GetByKey(_ context.Context, key string) (*model.AppSetting, error) {
	v, ok := r.values[key]
	if !ok {
		return nil, nil
	}
	return &model.AppSetting{Key: key, Value: v}, nil
}

func (r *fakeSettingRepo) Upsert(_ context.Context, key, value string) error {
	r.values[key] = value
	return nil
}

func newFeedFixture(values map[string]string) *FeedService {
	repo := &fakeSettingRepo{values: values}
	return NewFeedService(NewSettingService(repo, zerolog.Nop()), zerolog.Nop())
}

func TestGetScholarshipsFetchesArray(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"code":"SCH001","name":"A"},{"code":"SCH002","name":"B"}]`))
	}))
	defer srv.Close()

	feed := newFeedFixture(map[string]string{
		model.SettingAPIURL:       srv.URL,
		model.SettingClientID:     "id-123",
		model.SettingClientSecret: "secret-456",
	})

	items, err := feed.GetScholarships(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)

	assert.Equal(t, []string{"id-123"}, gotQuery["client_id"])
	assert.Equal(t, []string{"secret-456"}, gotQuery["client_secret"])
	assert.Equal(t, []string{"true"}, gotQuery["public"])
}

func TestGetScholarshipsOmitsPartialCredentials(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	feed := newFeedFixture(map[string]string{
		model.SettingAPIURL:   srv.URL,
		model.SettingClientID: "id-only",
	})

	_, err := feed.GetScholarships(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, gotQuery, "client_id")
	assert.NotContains(t, gotQuery, "public")
}

func TestGetScholarshipsWrapsSingleObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":"SCH001","name":"Solo Award"}`))
	}))
	defer srv.Close()

	feed := newFeedFixture(map[string]string{model.SettingAPIURL: srv.URL})

	items, err := feed.GetScholarships(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestGetScholarshipsWithoutURL(t *testing.T) {
	feed := newFeedFixture(map[string]string{})

	_, err := feed.GetScholarships(context.Background())
	assert.ErrorIs(t, err, ErrAPIURLNotConfigured)
}

func TestGetScholarshipsRetriesThenFails(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	feed := newFeedFixture(map[string]string{model.SettingAPIURL: srv.URL})

	_, err := feed.GetScholarships(context.Background())
	assert.Error(t, err)
	assert.Equal(t, feedRetryAttempts, attempts)
}

func TestGetScholarshipsRecoversMidRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"code":"SCH001","name":"A"}]`))
	}))
	defer srv.Close()

	feed := newFeedFixture(map[string]string{model.SettingAPIURL: srv.URL})

	items, err := feed.GetScholarships(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 2, attempts)
}

func TestDecodeFeedRejectsCodelessObject(t *testing.T) {
	_, err := decodeFeed([]byte(`{"name":"No Code Here"}`))
	assert.Error(t, err)
}

func TestUpdateSettingsRejectsUnknownKey(t *testing.T) {
	repo := &fakeSettingRepo{values: map[string]string{}}
	svc := NewSettingService(repo, zerolog.Nop())

	err := svc.UpdateSettings(context.Background(), map[string]string{
		model.SettingAPIURL: "https://example.edu/feed",
		"favorite_color":    "blue",
	})
	assert.ErrorIs(t, err, ErrUnknownSettingKey)
	// Nothing is written when any key is rejected.
	assert.Empty(t, repo.values)
}
