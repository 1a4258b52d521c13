// Package middleware provides reusable HTTP middleware: JWT authentication
// (required and optional variants), a Redis response cache and a Redis
// token-bucket rate limiter.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/vns-shanshan/cineverse-api/internal/domain"
)

// identityKey is the echo context key under which the authenticated caller
// is stored. Handlers access it through Identity(c).
const identityKey = "identity"

// JWTAuth returns middleware that validates a Bearer access token signed
// with secret and stores the caller's identity in the request context.
// Requests without a valid token are rejected with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := bearerIdentity(c, secret)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"err": "missing or invalid bearer token"})
			}
			c.Set(identityKey, ident)
			return next(c)
		}
	}
}

// OptionalAuth returns middleware that attaches the caller's identity when a
// valid Bearer token is present and otherwise lets the request through as a
// guest. An invalid or expired token is ignored, not rejected, matching the
// public-listing behavior where authentication only scopes the response.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ident, ok := bearerIdentity(c, secret); ok {
				c.Set(identityKey, ident)
			}
			return next(c)
		}
	}
}

// bearerIdentity parses the Authorization header and returns the identity
// carried by a valid HS256 token.
func bearerIdentity(c echo.Context, secret string) (*domain.Identity, bool) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil, false
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}

	// Numeric JSON claims decode as float64.
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return nil, false
	}
	username, _ := claims["username"].(string)
	return &domain.Identity{ID: uint64(sub), Username: username}, true
}
