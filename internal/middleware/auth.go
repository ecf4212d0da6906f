// Package middleware provides the HTTP middleware for the API: JWT auth,
// admin gating, request metrics, and rate limiting.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/auth"
)

// Context keys set by RequireAuth.
const (
	ctxUserCode = "user_code"
	ctxUserName = "user_name"
	ctxIsAdmin  = "is_admin"
	ctxClaims   = "claims"
)

// RequireAuth authenticates the request with a login JWT and stores the
// caller's identity on the context.
func RequireAuth(jwt *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			apierrors.Send(c, apierrors.CodeUnauthorized)
			c.Abort()
			return
		}
		claims, err := jwt.VerifyLogin(token)
		if err != nil {
			if strings.Contains(err.Error(), "expired") {
				apierrors.Send(c, apierrors.CodeTokenExpired)
			} else {
				apierrors.Send(c, apierrors.CodeInvalidToken)
			}
			c.Abort()
			return
		}

		c.Set(ctxUserCode, claims.UserCode)
		c.Set(ctxUserName, claims.UserName)
		c.Set(ctxIsAdmin, claims.IsAdmin)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RequireAdmin refuses callers whose token does not carry the admin flag.
// Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ctxIsAdmin) {
			apierrors.Send(c, apierrors.CodeForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller's user code.
func CurrentUser(c *gin.Context) string {
	return c.GetString(ctxUserCode)
}

// IsAdmin reports whether the caller's token carries the admin flag.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ctxIsAdmin)
}

// extractToken pulls the bearer token from the Authorization header or the
// access_token cookie.
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie
	}
	return ""
}
