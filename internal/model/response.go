package model

import "time"

// AuthResponse is the flat envelope the dashboard client reads.
type AuthResponse struct {
	Success   bool            `json:"success"`
	User      *AccountProfile `json:"user,omitempty"`
	Token     string          `json:"token,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Status    string          `json:"status,omitempty"`
	Code      string          `json:"code,omitempty"`
	Message   string          `json:"message,omitempty"`
	Details   string          `json:"details,omitempty"`
}
