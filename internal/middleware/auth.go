package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/internal/services"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

type TokenValidator interface {
	ValidateAccessToken(token string) (*services.Claims, error)
}

var (
	errMissingAuth = errors.New("missing authorization header")
	errBadAuth     = errors.New("invalid authorization header format")
)

// accessToken reads the bearer token. EventSource cannot send headers, so GET
// requests may pass it as ?token= instead.
func accessToken(c *drift.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if c.Method() == http.MethodGet {
			if token := c.QueryParam("token"); token != "" {
				return token, nil
			}
		}
		return "", errMissingAuth
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", errBadAuth
	}
	return parts[1], nil
}

func unauthorized(c *drift.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, map[string]any{
		"success": false,
		"message": message,
	})
}

func Auth(validator TokenValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, err := accessToken(c)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)

		c.Next()
	}
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if email, ok := c.Get(UserEmailKey); ok {
		if e, ok := email.(string); ok {
			return e
		}
	}
	return ""
}
