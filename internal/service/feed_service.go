package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/du-marcomm/scholarship-sync/internal/model"
)

// ErrAPIURLNotConfigured is returned when the importer runs before an
// operator has set the api_url setting.
var ErrAPIURLNotConfigured = errors.New("scholarship API URL is not configured")

const (
	feedRequestTimeout = 30 * time.Second
	feedRetryAttempts  = 3
)

// FeedService talks to the remote scholarship API.
type FeedService struct {
	settings *SettingService
	client   *http.Client
	log      zerolog.Logger
}

func NewFeedService(settings *SettingService, log zerolog.Logger) *FeedService {
	return &FeedService{
		settings: settings,
		client:   &http.Client{Timeout: feedRequestTimeout},
		log:      log.With().Str("component", "feed_service").Logger(),
	}
}

// GetScholarships fetches one batch of raw scholarship items. A transport
// failure or non-200 response after retries is logged and returned; callers
// treat it as "no scholarships available" for the cycle.
func (s *FeedService) GetScholarships(ctx context.Context) ([]json.RawMessage, error) {
	apiURL, err := s.settings.Get(ctx, model.SettingAPIURL)
	if err != nil {
		return nil, fmt.Errorf("read api_url setting: %w", err)
	}
	if apiURL == "" {
		s.log.Error().Msg("the scholarship importer was executed but lacks an API URL; set api_url via the admin settings")
		return nil, ErrAPIURLNotConfigured
	}

	clientID, err := s.settings.Get(ctx, model.SettingClientID)
	if err != nil {
		return nil, fmt.Errorf("read client_id setting: %w", err)
	}
	clientSecret, err := s.settings.Get(ctx, model.SettingClientSecret)
	if err != nil {
		return nil, fmt.Errorf("read client_secret setting: %w", err)
	}

	endpoint, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("parse api_url: %w", err)
	}
	query := endpoint.Query()
	if clientID != "" && clientSecret != "" {
		query.Set("client_id", clientID)
		query.Set("client_secret", clientSecret)
		query.Set("public", "true")
	}
	endpoint.RawQuery = query.Encode()

	var body []byte
	err = retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	},
		retry.Context(ctx),
		retry.Attempts(feedRetryAttempts),
		retry.Delay(1*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.log.Warn().Err(err).Uint("attempt", n+1).Msg("scholarship feed request failed, retrying")
		}))
	if err != nil {
		// Credentials stay out of the log line.
		s.log.Error().Err(err).Str("url", apiURL).Msg("scholarship feed request failed")
		return nil, err
	}

	items, err := decodeFeed(body)
	if err != nil {
		s.log.Error().Err(err).Str("url", apiURL).Msg("scholarship feed returned undecodable data")
		return nil, err
	}

	s.log.Info().Int("count", len(items)).Msg("scholarship feed fetched")
	return items, nil
}

// decodeFeed accepts either a JSON array of scholarships or a single
// scholarship object, recognized by a top-level code key.
func decodeFeed(body []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}

	var head struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if head.Code == "" {
		return nil, errors.New("feed object has no scholarship code")
	}
	return []json.RawMessage{json.RawMessage(body)}, nil
}
