package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound = "not_found"
	ErrCodeConflict = "conflict"

	// Room errors
	ErrCodeRoomCreationFailed = "room_creation_failed"
	ErrCodeRoomNotFound       = "room_not_found"
	ErrCodeRoomFull           = "room_full"
	ErrCodeJoinFailed         = "join_failed"
	ErrCodeSubmitFailed       = "submit_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
	ErrCodeUnknownWindow          = "unknown_leaderboard_window"
)
