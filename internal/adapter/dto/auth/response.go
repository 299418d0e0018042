package auth

import "time"

// LoginResponse carries the issued session token
type LoginResponse struct {
	SessionID   string    `json:"session_id"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"` // "Bearer"
	ExpiresIn   int       `json:"expires_in"` // seconds
	ExpiresAt   time.Time `json:"expires_at"`
}

// SessionResponse describes the session behind the current token
type SessionResponse struct {
	SessionID string     `json:"session_id"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
