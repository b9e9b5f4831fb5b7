package dto

// ErrorResponse is the body of every failed request.
// Details is only set for server errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NewErrorResponse creates a client error body
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

// NewServerErrorResponse creates a server error body carrying diagnostic details
func NewServerErrorResponse(message, details string) ErrorResponse {
	return ErrorResponse{Error: message, Details: details}
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp string    `json:"timestamp"`
	Pool      *PoolInfo `json:"pool,omitempty"`
}

// PoolInfo summarizes database connection pool usage
type PoolInfo struct {
	OpenConnections int `json:"open_connections"`
	InUse           int `json:"in_use"`
	Idle            int `json:"idle"`
}
