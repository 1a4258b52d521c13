// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/vns-shanshan/cineverse-api/internal/handler"
	"github.com/vns-shanshan/cineverse-api/internal/middleware"
)

// RegisterRoutes registers routes that carry no authentication at all.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Register, login and
// refresh are open; logout runs behind optional auth so a bearer token can
// revoke all sessions; me requires a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.OptionalAuth(jwtSecret))
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}
