package middleware

import (
	"context"
	stdErrors "errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/mai-recap/errors"
	"github.com/johnquangdev/mai-recap/pkg/jwt"
)

const (
	// SessionContextKey is the echo context key holding *jwt.Claims
	SessionContextKey = "session"
	// AccessTokenCookie is the cookie set on login
	AccessTokenCookie = "access_token"
)

// SessionValidator verifies a session token
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*jwt.Claims, error)
}

// EchoAuth returns an Echo middleware that validates the session token and
// sets its claims into the Echo context under SessionContextKey
func EchoAuth(sessions SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ExtractToken(c.Request())
			if token == "" {
				return respondError(c, errors.ErrUnauthenticated())
			}

			claims, err := sessions.Validate(c.Request().Context(), token)
			if err != nil {
				return respondError(c, err)
			}

			c.Set(SessionContextKey, claims)
			return next(c)
		}
	}
}

// GetSession retrieves the session claims set by EchoAuth
func GetSession(c echo.Context) (*jwt.Claims, bool) {
	claims, ok := c.Get(SessionContextKey).(*jwt.Claims)
	return claims, ok
}

// ExtractToken reads the token from the Authorization header, then the cookie
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func respondError(c echo.Context, err error) error {
	var appErr errors.AppError
	if !stdErrors.As(err, &appErr) {
		appErr = errors.ErrInvalidToken()
	}
	return c.JSON(appErr.HTTPCode, map[string]interface{}{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}
