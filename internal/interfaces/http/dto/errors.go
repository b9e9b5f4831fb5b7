package dto

import "net/http"

// Domain error codes surfaced by the report endpoint
const (
	ErrCodeMissingParameter      = "MISSING_PARAMETER"
	ErrCodeUnsupportedReportType = "UNSUPPORTED_REPORT_TYPE"
	ErrCodeInvalidParameter      = "INVALID_PARAMETER"
	ErrCodeAggregationFailure    = "AGGREGATION_FAILURE"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Request errors -> 400 Bad Request
	ErrCodeMissingParameter:      http.StatusBadRequest,
	ErrCodeUnsupportedReportType: http.StatusBadRequest,
	ErrCodeInvalidParameter:      http.StatusBadRequest,

	// Store failures -> 500 Internal Server Error
	ErrCodeAggregationFailure: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are treated as server errors.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether the code maps to a 4xx status
func IsClientError(code string) bool {
	status := GetHTTPStatus(code)
	return status >= http.StatusBadRequest && status < http.StatusInternalServerError
}
