package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Identity is the claim set minted into every token. It is never mutated
// after issuance; a change of company or profile produces a new pair.
type Identity struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
	CompanyID    string `json:"companyId,omitempty"`
	Role         string `json:"role,omitempty"`
}

// Claims are the only supported JWT claims shape for this service.
// SessionVersion must be >= the user's stored session version for the token
// to be considered active; logout bumps the stored version.
type Claims struct {
	jwt.RegisteredClaims
	Identity

	SessionVersion int64     `json:"sv"`
	TokenType      TokenType `json:"token_type"`
}
