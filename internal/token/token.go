// Package token mints and validates the signed access and refresh tokens.
// Cryptographic validity alone never authenticates a request: the caller must
// additionally resolve the embedded session id against the session store.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried by both token kinds. Tokens are never
// persisted; the session id is the only stateful reference.
type Claims struct {
	UserID    int
	Email     string
	SessionID string
}

// Generator handles JWT token generation and validation.
// Access and refresh tokens are signed with separate secrets.
type Generator struct {
	accessSecret       string
	refreshSecret      string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

// NewGenerator creates a new token generator
func NewGenerator(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *Generator {
	return &Generator{
		accessSecret:       accessSecret,
		refreshSecret:      refreshSecret,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
	}
}

// GenerateTokens generates both access and refresh tokens for a session.
// Both carry the same payload so the refresh exchange can locate the session.
func (g *Generator) GenerateTokens(claims *Claims) (string, string, error) {
	accessToken, err := g.generate(claims, "access", g.accessSecret, g.accessTokenExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := g.generate(claims, "refresh", g.refreshSecret, g.refreshTokenExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// generate creates a signed token of the given kind
func (g *Generator) generate(claims *Claims, kind, secret string, expiry time.Duration) (string, error) {
	mapClaims := jwt.MapClaims{
		"sub":        claims.UserID,
		"email":      claims.Email,
		"session_id": claims.SessionID,
		"exp":        time.Now().Add(expiry).Unix(),
		"iat":        time.Now().Unix(),
		"type":       kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return tokenString, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (g *Generator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return g.validate(tokenString, "access", g.accessSecret)
}

// ValidateRefreshToken validates a refresh token and returns its claims
func (g *Generator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return g.validate(tokenString, "refresh", g.refreshSecret)
}

// validate parses a token of the expected kind and extracts its claims
func (g *Generator) validate(tokenString, kind, secret string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	// Check token type
	tokenType, ok := mapClaims["type"].(string)
	if !ok || tokenType != kind {
		return nil, fmt.Errorf("token is not a %s token", kind)
	}

	// JWT claims decode numbers as float64
	sub, ok := mapClaims["sub"].(float64)
	if !ok {
		return nil, fmt.Errorf("sub not found in token")
	}

	email, ok := mapClaims["email"].(string)
	if !ok {
		return nil, fmt.Errorf("email not found in token")
	}

	sessionID, ok := mapClaims["session_id"].(string)
	if !ok || sessionID == "" {
		return nil, fmt.Errorf("session_id not found in token")
	}

	return &Claims{
		UserID:    int(sub),
		Email:     email,
		SessionID: sessionID,
	}, nil
}
