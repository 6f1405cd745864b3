// Package cli implements the command-line interface.
package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Tracker errors
	ErrTrackerNotFound     = "TRACKER_NOT_FOUND"
	ErrTrackerNotSpecified = "TRACKER_NOT_SPECIFIED"
	ErrConfigInvalid       = "CONFIG_INVALID"

	// Entity errors
	ErrUserNotFound    = "USER_NOT_FOUND"
	ErrProjectNotFound = "PROJECT_NOT_FOUND"
	ErrIssueNotFound   = "ISSUE_NOT_FOUND"
	ErrSearchNotFound  = "SEARCH_NOT_FOUND"

	// Permission errors
	ErrPermissionDenied = "PERMISSION_DENIED"

	// Expression errors
	ErrQueryInvalid = "QUERY_INVALID"
	ErrOleaInvalid  = "OLEA_INVALID"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"
	ErrDuplicateName   = "DUPLICATE_NAME"

	// Import errors
	ErrImportInvalid = "IMPORT_INVALID"

	// General errors
	ErrDatabaseError = "DATABASE_ERROR"
	ErrInternal      = "INTERNAL_ERROR"
)
