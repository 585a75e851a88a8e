package models

// ErrorResponse is the JSON error envelope returned by the API
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Blocked    bool   `json:"blocked,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"` // seconds
}

// LoginRequest is the JSON body accepted by the login endpoint
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
