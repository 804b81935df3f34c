package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// Authentication
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// Validation
	ErrValidation ErrCode = "VALIDATION_ERROR"

	// Settings
	ErrUnknownSettingKey ErrCode = "UNKNOWN_SETTING_KEY"

	// Import
	ErrInvalidImportJSON ErrCode = "INVALID_IMPORT_JSON"
	ErrNothingQueued     ErrCode = "NOTHING_QUEUED"
	ErrAPIUnavailable    ErrCode = "API_UNAVAILABLE"
	ErrAPIURLMissing     ErrCode = "API_URL_MISSING"

	// Resources
	ErrNotFound ErrCode = "NOT_FOUND"

	// Server
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "The password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrUnknownSettingKey:
		return "One or more setting keys are not recognized."
	case ErrInvalidImportJSON:
		return "The supplied JSON could not be parsed."
	case ErrNothingQueued:
		return "No scholarships were added. Check that the JSON is valid and every item has a code and a name."
	case ErrAPIUnavailable:
		return "The scholarship API could not be reached."
	case ErrAPIURLMissing:
		return "The scholarship API URL has not been configured."
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
