package errors

import "strconv"

// ErrorCode is the application-level error code carried in API error responses
type ErrorCode int32

const (
	ErrorCode_UNSPECIFIED ErrorCode = 0
	ErrorCode_HTTP_OK     ErrorCode = 200

	// General
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS    ErrorCode = 1003
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED   ErrorCode = 1005
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1006

	// Authentication
	ErrorCode_AUTH_INVALID_TOKEN       ErrorCode = 2000
	ErrorCode_AUTH_TOKEN_EXPIRED       ErrorCode = 2001
	ErrorCode_AUTH_INVALID_CREDENTIALS ErrorCode = 2002
	ErrorCode_AUTH_SESSION_REVOKED     ErrorCode = 2003

	// Meetings
	ErrorCode_MEETING_NOT_FOUND     ErrorCode = 3000
	ErrorCode_MEETING_INVALID_STATE ErrorCode = 3001
	ErrorCode_TRANSCRIPT_MISSING    ErrorCode = 3002
	ErrorCode_AUDIO_INVALID         ErrorCode = 3003
	ErrorCode_AUDIO_UPLOAD_FAILED   ErrorCode = 3004
	ErrorCode_RECORD_MISSING        ErrorCode = 3005

	// AI
	ErrorCode_AI_TRANSCRIPTION_FAILED ErrorCode = 4000
	ErrorCode_AI_SUMMARY_FAILED       ErrorCode = 4001
	ErrorCode_AI_CHAT_FAILED          ErrorCode = 4002
	ErrorCode_AI_SERVICE_UNAVAILABLE  ErrorCode = 4003
	ErrorCode_AI_QUOTA_EXCEEDED       ErrorCode = 4004

	// Export
	ErrorCode_EXPORT_FAILED      ErrorCode = 5000
	ErrorCode_EXPORT_UNSUPPORTED ErrorCode = 5001

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 6000
	ErrorCode_INTEGRATION_CACHE_FAILED   ErrorCode = 6001

	// Database
	ErrorCode_DB_QUERY_FAILED ErrorCode = 7000
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNSPECIFIED:                "UNSPECIFIED",
	ErrorCode_HTTP_OK:                    "HTTP_OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:             "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:          "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:         "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:         "AUTH_TOKEN_EXPIRED",
	ErrorCode_AUTH_INVALID_CREDENTIALS:   "AUTH_INVALID_CREDENTIALS",
	ErrorCode_AUTH_SESSION_REVOKED:       "AUTH_SESSION_REVOKED",
	ErrorCode_MEETING_NOT_FOUND:          "MEETING_NOT_FOUND",
	ErrorCode_MEETING_INVALID_STATE:      "MEETING_INVALID_STATE",
	ErrorCode_TRANSCRIPT_MISSING:         "TRANSCRIPT_MISSING",
	ErrorCode_AUDIO_INVALID:              "AUDIO_INVALID",
	ErrorCode_AUDIO_UPLOAD_FAILED:        "AUDIO_UPLOAD_FAILED",
	ErrorCode_RECORD_MISSING:             "RECORD_MISSING",
	ErrorCode_AI_TRANSCRIPTION_FAILED:    "AI_TRANSCRIPTION_FAILED",
	ErrorCode_AI_SUMMARY_FAILED:          "AI_SUMMARY_FAILED",
	ErrorCode_AI_CHAT_FAILED:             "AI_CHAT_FAILED",
	ErrorCode_AI_SERVICE_UNAVAILABLE:     "AI_SERVICE_UNAVAILABLE",
	ErrorCode_AI_QUOTA_EXCEEDED:          "AI_QUOTA_EXCEEDED",
	ErrorCode_EXPORT_FAILED:              "EXPORT_FAILED",
	ErrorCode_EXPORT_UNSUPPORTED:         "EXPORT_UNSUPPORTED",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_QUERY_FAILED:            "DB_QUERY_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "ErrorCode(" + strconv.Itoa(int(c)) + ")"
}
