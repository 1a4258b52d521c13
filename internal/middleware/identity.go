package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vns-shanshan/cineverse-api/internal/domain"
)

// Identity returns the authenticated caller stored by JWTAuth/OptionalAuth,
// or nil when the request is unauthenticated.
func Identity(c echo.Context) *domain.Identity {
	if v, ok := c.Get(identityKey).(*domain.Identity); ok {
		return v
	}
	return nil
}

// currentUserID renders the caller id for rate-limit key construction;
// "anon" identifies unauthenticated traffic. The limiter runs before the
// route-level auth middleware, so when no identity has been stored yet the
// bearer token is resolved directly.
func currentUserID(c echo.Context, jwtSecret string) string {
	ident := Identity(c)
	if ident == nil {
		ident, _ = bearerIdentity(c, jwtSecret)
	}
	if ident != nil {
		return strconv.FormatUint(ident.ID, 10)
	}
	return "anon"
}
