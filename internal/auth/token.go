// Package auth issues and validates the opaque session credentials handed to
// clients on registration. The rest of the backend only ever sees the
// validated Session, never a raw token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/playbrawl/party-backend/internal/clock"
)

type Role string

const (
	RolePlayer Role = "player"
	RoleHost   Role = "host"
)

// Session is the validated identity behind a request.
type Session struct {
	SessionID string
	DeviceID  string
	Role      Role
}

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	SessionID string `json:"sid"`
	DeviceID  string `json:"did"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret []byte
	clk    clock.Clock
	ttl    time.Duration
}

func NewTokenService(secret []byte, clk clock.Clock, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, clk: clk, ttl: ttl}
}

// NewSessionID mints a fresh session id.
func (t *TokenService) NewSessionID() string { return uuid.NewString() }

// Issue signs a token for the session.
func (t *TokenService) Issue(s Session) (string, error) {
	now := t.clk.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: s.SessionID,
		DeviceID:  s.DeviceID,
		Role:      s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})
	signed, err := tok.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string.
func (t *TokenService) Validate(tokenString string) (Session, error) {
	var c claims
	tok, err := jwt.ParseWithClaims(tokenString, &c, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.clk.Now))
	if err != nil || !tok.Valid {
		return Session{}, ErrInvalidToken
	}
	if c.SessionID == "" || c.Role == "" {
		return Session{}, ErrInvalidToken
	}
	return Session{SessionID: c.SessionID, DeviceID: c.DeviceID, Role: c.Role}, nil
}
