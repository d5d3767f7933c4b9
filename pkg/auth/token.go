package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

var ErrWrongTokenKind = errors.New("unexpected token kind")

// TokenPair is what a new or refreshed session hands back to the client.
type TokenPair struct {
	SessionID        string    `json:"session_id"`
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at,omitzero"`
}

// MintSessionToken issues a signed JWT of the given kind for sessionID.
func MintSessionToken(cfg config.JWTConfig, now time.Time, sessionID string, kind TokenKind) (string, time.Time, error) {
	if cfg.Secret == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return "", time.Time{}, fmt.Errorf("session id is required")
	}

	ttl := cfg.AccessTTL
	if kind == TokenKindRefresh {
		ttl = cfg.RefreshTTL
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("%s token ttl must be positive", kind)
	}
	expiresAt := now.Add(ttl)

	claims := SessionClaims{
		SessionID: sessionID,
		Kind:      kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing jwt: %w", err)
	}
	return signed, expiresAt, nil
}

// MintTokenPair issues both tokens for a session.
func MintTokenPair(cfg config.JWTConfig, now time.Time, sessionID string) (TokenPair, error) {
	access, accessExp, err := MintSessionToken(cfg, now, sessionID, TokenKindAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := MintSessionToken(cfg, now, sessionID, TokenKindRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		SessionID:        sessionID,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ParseSessionToken validates the JWT string and checks it is of the expected kind.
func ParseSessionToken(cfg config.JWTConfig, tokenString string, kind TokenKind) (*SessionClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwtSigningMethod.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, ErrWrongTokenKind
	}
	if strings.TrimSpace(claims.SessionID) == "" {
		return nil, fmt.Errorf("token carries no session id")
	}
	return claims, nil
}
