package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/01moynul/culinamarket/internal/auth"
	"github.com/01moynul/culinamarket/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userIDKey   = "userID"
	identityKey = "identity"
)

// UserStore mirrors authenticated accounts locally and answers admin checks.
type UserStore interface {
	Upsert(ctx context.Context, u *models.User) error
	IsAdmin(ctx context.Context, id string) (bool, error)
}

// Identity returns the authenticated caller, if any.
func Identity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

// authenticate validates the bearer token and stores the identity on the
// context. It reports false after writing a 401.
func authenticate(c *gin.Context, v *auth.Verifier, users UserStore, log *zap.Logger) bool {
	// 1. --- Token must be well formed ---
	token, _ := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
		c.Abort()
		return false
	}

	// 2. --- Verify signature and expiry ---
	claims, err := v.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		c.Abort()
		return false
	}

	// 3. --- Mirror the account locally; failure only costs the admin fallback ---
	id := claims.Identity()
	if err := users.Upsert(c.Request.Context(), &models.User{ID: id.UserID, Email: id.Email, Name: id.Name, IsAdmin: id.IsAdmin}); err != nil {
		log.Warn("auth: could not mirror user", zap.String("user_id", id.UserID), zap.Error(err))
	}

	c.Set(userIDKey, id.UserID)
	c.Set(identityKey, id)
	return true
}

// AuthMiddleware requires a valid bearer token.
func AuthMiddleware(v *auth.Verifier, users UserStore, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, v, users, log) {
			return
		}
		c.Next()
	}
}

// OptionalAuth authenticates the caller when an Authorization header is
// present and lets anonymous requests through. A bad token is still a 401.
func OptionalAuth(v *auth.Verifier, users UserStore, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, present := bearerToken(c); present && !authenticate(c, v, users, log) {
			return
		}
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware. The token's role claim or
// the local users.is_admin flag grants access.
func AdminMiddleware(users UserStore, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := Identity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if !id.IsAdmin {
			isAdmin, err := users.IsAdmin(c.Request.Context(), id.UserID)
			if err != nil {
				log.Error("auth: admin lookup failed", zap.String("user_id", id.UserID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not verify user role"})
				c.Abort()
				return
			}
			if !isAdmin {
				c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
				c.Abort()
				return
			}
			id.IsAdmin = true
			c.Set(identityKey, id)
		}

		c.Next()
	}
}
