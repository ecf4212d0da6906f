// Package auth issues and verifies the JWT pair used by the API: a short
// lived login token and a longer lived refresh token, distinguished by a
// token_type claim.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/goatkit/timeflow/internal/config"
)

// Token type claim values.
const (
	TokenTypeLogin   = "login"
	TokenTypeRefresh = "refresh"
)

// Claims is the JWT payload carried by both token kinds.
type Claims struct {
	UserCode  string `json:"user_code"`
	UserName  string `json:"user_name,omitempty"`
	TokenType string `json:"token_type"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// JWTManager signs and verifies tokens.
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTManager creates a manager from the auth configuration.
func NewJWTManager(cfg config.AuthConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is not configured")
	}
	return &JWTManager{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
	}, nil
}

// GeneratePair issues a login token and a refresh token for the user.
func (m *JWTManager) GeneratePair(userCode, userName string, isAdmin bool) (*TokenPair, error) {
	access, err := m.sign(userCode, userName, isAdmin, TokenTypeLogin, m.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.sign(userCode, userName, isAdmin, TokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

func (m *JWTManager) sign(userCode, userName string, isAdmin bool, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		UserCode:  userCode,
		UserName:  userName,
		TokenType: tokenType,
		IsAdmin:   isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userCode,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// parse verifies the signature and expiry and returns the claims.
func (m *JWTManager) parse(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserCode == "" {
		return nil, fmt.Errorf("token carries no user_code")
	}
	return claims, nil
}

// VerifyLogin accepts only login tokens.
func (m *JWTManager) VerifyLogin(raw string) (*Claims, error) {
	claims, err := m.parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeLogin {
		return nil, fmt.Errorf("expected a login token, got %q", claims.TokenType)
	}
	return claims, nil
}

// VerifyRefresh accepts only refresh tokens.
func (m *JWTManager) VerifyRefresh(raw string) (*Claims, error) {
	claims, err := m.parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, fmt.Errorf("expected a refresh token, got %q", claims.TokenType)
	}
	return claims, nil
}
