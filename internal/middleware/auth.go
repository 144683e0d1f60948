package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/coaching-plans-api/internal/constants"
	apierrors "github.com/yukikurage/coaching-plans-api/internal/errors"
	"github.com/yukikurage/coaching-plans-api/internal/services"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	ParseToken(token string) (*services.TokenClaims, error)
}

// Authenticate reads a Bearer token from the Authorization header. A missing
// token is rejected with 401 only when required; a present but invalid token
// is always rejected with 403.
func Authenticate(verifier TokenVerifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				apierrors.AbortWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Authentication required"))
				return
			}
			c.Next()
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			apierrors.AbortWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Authorization header must use the Bearer scheme"))
			return
		}

		claims, err := verifier.ParseToken(token)
		if err != nil {
			apierrors.AbortInvalidToken(c)
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, claims.UserID)
		c.Set(constants.ContextKeyUserEmail, claims.Email)
		c.Next()
	}
}

// RequireAuth rejects requests without a valid token.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return Authenticate(verifier, true)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// OwnerID returns the authenticated user ID, or nil for anonymous requests.
func OwnerID(c *gin.Context) *uint64 {
	userID, ok := GetUserID(c)
	if !ok {
		return nil
	}
	return &userID
}
