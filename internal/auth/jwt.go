// Package auth verifies bearer tokens issued by the hosted auth service and
// reads its user directory.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const adminRole = "admin"

type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
	Name     string `json:"name,omitempty"`
}

type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

// Claims is the payload of an access token from the hosted auth service.
type Claims struct {
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
	AppMetadata  AppMetadata  `json:"app_metadata"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the caller identity used by services.
func (c *Claims) Identity() models.Identity {
	name := c.UserMetadata.FullName
	if name == "" {
		name = c.UserMetadata.Name
	}
	return models.Identity{
		UserID:  c.Subject,
		Email:   c.Email,
		Name:    name,
		IsAdmin: c.AppMetadata.Role == adminRole,
	}
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// ValidateToken parses tokenString and returns its claims if the signature
// and expiry check out.
func (v *Verifier) ValidateToken(tokenString string) (*Claims, error) {
	// 1. Parse, refusing anything not signed with HMAC
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// 2. A token without a subject identifies nobody
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateToken signs an access token for id. The hosted auth service issues
// real tokens; this is used by tests and local tooling.
func (v *Verifier) GenerateToken(id models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:        id.Email,
		UserMetadata: UserMetadata{FullName: id.Name},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if id.IsAdmin {
		claims.AppMetadata.Role = adminRole
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
