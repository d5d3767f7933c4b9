package auth

import "github.com/golang-jwt/jwt/v5"

// TokenKind separates short-lived access tokens from refresh tokens so one
// cannot stand in for the other.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// SessionClaims is the typed JWT handed to storefront clients. The subject
// is the storefront session id.
type SessionClaims struct {
	SessionID string    `json:"sid"`
	Kind      TokenKind `json:"kind"`
	jwt.RegisteredClaims
}
