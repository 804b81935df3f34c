package model

import "time"

// Setting keys recognized by the importer.
const (
	SettingAPIURL       = "api_url"
	SettingClientID     = "client_id"
	SettingClientSecret = "client_secret"
)

// AppSetting represents a key-value pair for importer configuration.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateSettingsRequest is the payload for bulk updating settings.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// ManualImportRequest carries operator-pasted JSON: either an array of
// scholarships or a single scholarship object.
type ManualImportRequest struct {
	JSON string `json:"json" binding:"required"`
}

// RemoveTimestampsRequest selects which scholarships lose their import stamp.
type RemoveTimestampsRequest struct {
	Scope string `json:"scope" binding:"required,oneof=all single"`
	Code  string `json:"code"`
}
