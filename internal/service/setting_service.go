package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/du-marcomm/scholarship-sync/internal/model"
	"github.com/du-marcomm/scholarship-sync/internal/repository"
)

// ErrUnknownSettingKey is returned when an update names a key the importer
// does not recognize.
var ErrUnknownSettingKey = errors.New("unknown setting key")

// allowedSettingKeys are the only keys the admin settings form may write.
var allowedSettingKeys = map[string]bool{
	model.SettingAPIURL:       true,
	model.SettingClientID:     true,
	model.SettingClientSecret: true,
}

// SettingService manages the importer's persisted configuration.
type SettingService struct {
	settingRepo repository.SettingRepository
	log         zerolog.Logger
}

func NewSettingService(settingRepo repository.SettingRepository, log zerolog.Logger) *SettingService {
	return &SettingService{
		settingRepo: settingRepo,
		log:         log.With().Str("component", "setting_service").Logger(),
	}
}

// GetAllSettings returns every persisted setting as a key→value map.
func (s *SettingService) GetAllSettings(ctx context.Context) (map[string]string, error) {
	settingsList, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get all settings")
		return nil, err
	}

	settingsMap := make(map[string]string)
	for _, setting := range settingsList {
		settingsMap[setting.Key] = setting.Value
	}
	return settingsMap, nil
}

// UpdateSettings upserts the given settings, rejecting unknown keys before
// writing anything.
func (s *SettingService) UpdateSettings(ctx context.Context, settingsMap map[string]string) error {
	for key := range settingsMap {
		if !allowedSettingKeys[key] {
			return ErrUnknownSettingKey
		}
	}

	for key, value := range settingsMap {
		if err := s.settingRepo.Upsert(ctx, key, value); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("failed to update setting")
			return err
		}
	}
	return nil
}

// Get returns a setting's value, or the empty string when it was never set.
func (s *SettingService) Get(ctx context.Context, key string) (string, error) {
	setting, err := s.settingRepo.GetByKey(ctx, key)
	if err != nil {
		return "", err
	}
	if setting == nil {
		return "", nil
	}
	return setting.Value, nil
}
