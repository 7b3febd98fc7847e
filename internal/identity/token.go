// Package identity turns bearer tokens into credentials. Tokens are HS256
// JWTs carrying the user id and display name.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"threadhub/pkg/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload
type Claims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a shared secret
type Issuer struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. A zero expiry defaults to 24 hours.
func NewIssuer(secret, issuer string, expiry time.Duration) *Issuer {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, expiry: expiry, now: time.Now}
}

// Issue returns a signed token for the user and its expiry time
func (i *Issuer) Issue(userID, displayName string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.expiry)
	claims := Claims{
		UserID:      userID,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the claims
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenProvider hands out the credential held in a bearer token. The client
// cannot check the signature; it only reads the claims and the expiry.
type TokenProvider struct {
	mu    sync.RWMutex
	token string
	now   func() time.Time
}

// NewTokenProvider creates a provider for token, which may be empty
func NewTokenProvider(token string) *TokenProvider {
	return &TokenProvider{token: strings.TrimSpace(token), now: time.Now}
}

// SetToken replaces the held token
func (p *TokenProvider) SetToken(token string) {
	p.mu.Lock()
	p.token = strings.TrimSpace(token)
	p.mu.Unlock()
}

// Token returns the held token
func (p *TokenProvider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// Credential returns the current user or ErrUnauthenticated
func (p *TokenProvider) Credential() (models.Credential, error) {
	token := p.Token()
	if token == "" {
		return models.Credential{}, models.ErrUnauthenticated
	}

	claims, err := ParseUnverified(token)
	if err != nil {
		return models.Credential{}, models.NewError(models.KindUnauthenticated, "stored token is not readable", err)
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(p.now()) {
		return models.Credential{}, models.NewError(models.KindUnauthenticated, "session expired, sign in again", nil)
	}

	return models.Credential{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		Token:       token,
	}, nil
}

// ParseUnverified reads the claims of a token without checking the signature
func ParseUnverified(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
