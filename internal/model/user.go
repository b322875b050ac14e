package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleFarmer     Role = "farmer"
	RoleContractor Role = "contractor"
	RoleBuyer      Role = "buyer"
)

var roles = []Role{RoleFarmer, RoleContractor, RoleBuyer}

// ParseRole trims and lowercases raw and reports whether it names a known role.
func ParseRole(raw string) (Role, bool) {
	candidate := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, role := range roles {
		if candidate == role {
			return role, true
		}
	}
	return candidate, false
}

// Account is the stored record. PasswordHash never leaves the service layer.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountProfile is what callers get back: an Account without credentials.
type AccountProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (a Account) Profile() AccountProfile {
	return AccountProfile{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

type AuthClaims struct {
	AccountID string `json:"sub"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	TokenID   string `json:"jti"`
}

type LoginResult struct {
	User      AccountProfile `json:"user"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// NormalizeEmail is the single email normalization policy: trim, then lowercase.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
