package models

import "github.com/golang-jwt/jwt/v5"

// Roles recognised by the token gate. Token issuance belongs to the central
// auth service; this API only verifies.
const (
	RoleAdmin     = "admin"
	RoleApplicant = "applicant"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims grant administrator access.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
