// Package middleware holds the cross-cutting gin handlers: the bearer token
// gate, per-IP rate limiting and request ids.
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog-api/database"
	"catalog-api/helpers"
	"catalog-api/models"
)

const CallerKey = "caller"

// RequireAuth resolves the caller from the bearer token (or the auth cookie)
// and rejects the request when the account is unknown or deactivated.
func RequireAuth(creds *helpers.Credentials, users database.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			helpers.Fail(c, helpers.Unauthorized("Access denied. No token provided."))
			return
		}
		id, err := creds.ValidateToken(token)
		if err != nil {
			if errors.Is(err, helpers.ErrTokenExpired) {
				helpers.Fail(c, helpers.Unauthorized("Token expired"))
				return
			}
			helpers.Fail(c, helpers.Unauthorized("Invalid token"))
			return
		}

		user, err := users.FindByID(c.Request.Context(), id)
		if err != nil {
			switch database.KindOf(err) {
			case database.KindNotFound, database.KindInvalidID:
				helpers.Fail(c, helpers.Unauthorized("Invalid token"))
			default:
				helpers.Fail(c, helpers.Internal("Error resolving caller", err))
			}
			return
		}
		if !user.IsActive {
			helpers.Fail(c, helpers.Unauthorized("Account is deactivated"))
			return
		}
		c.Set(CallerKey, user)
		c.Next()
	}
}

// Caller returns the user resolved by RequireAuth, or nil.
func Caller(c *gin.Context) *models.User {
	v, ok := c.Get(CallerKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func tokenFrom(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return header
	}
	if cookie, err := c.Cookie(helpers.AuthCookie); err == nil {
		return cookie
	}
	return ""
}
