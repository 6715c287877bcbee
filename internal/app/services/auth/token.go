package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pawmart/petstore/internal/app/domain/user"
	"github.com/pawmart/petstore/internal/errors"
)

// Claims is the JWT payload issued on login. Subject carries the user id.
type Claims struct {
	Email string      `json:"email"`
	Roles []user.Role `json:"roles"`
	jwt.RegisteredClaims
}

// TokenProvider signs and verifies HS512 bearer tokens.
type TokenProvider struct {
	secret []byte
	expiry time.Duration
}

// NewTokenProvider builds a provider from the configured secret and expiry.
func NewTokenProvider(secret string, expiry time.Duration) *TokenProvider {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &TokenProvider{secret: []byte(secret), expiry: expiry}
}

// Issue signs a token for the user.
func (p *TokenProvider) Issue(u user.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: u.Email,
		Roles: u.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Expiry returns the configured token lifetime.
func (p *TokenProvider) Expiry() time.Duration { return p.expiry }

// Parse verifies the token signature and expiry and returns its claims.
func (p *TokenProvider) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS512 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

// UserID extracts the numeric subject.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, errors.Unauthorized("invalid token subject")
	}
	return id, nil
}
