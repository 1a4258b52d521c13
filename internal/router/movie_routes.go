package router

import (
	"github.com/labstack/echo/v4"

	"github.com/vns-shanshan/cineverse-api/internal/handler"
	"github.com/vns-shanshan/cineverse-api/internal/middleware"
)

// RegisterMovies registers the movie and comment endpoints. Auth comes in
// three flavors here: the list endpoint takes an optional token (it scopes
// the response, never rejects), the detail read is fully public, and every
// mutation plus the single-comment routes require a valid token.
//
// cache wraps the public detail read: the list response varies by caller,
// and the cache keys carry no identity. The detail mutations go through the
// same middleware so a successful PUT or DELETE evicts the cached body for
// that path instead of serving it until the TTL runs out.
func RegisterMovies(e *echo.Echo, h *handler.MovieHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/movies")

	required := middleware.JWTAuth(jwtSecret)
	optional := middleware.OptionalAuth(jwtSecret)

	g.GET("", h.List, optional)
	g.GET("/my-movies", h.MyMovies, required)
	g.POST("", h.Create, required)
	g.GET("/:movieId", h.Get, cache)
	g.PUT("/:movieId", h.Update, required, cache)
	g.DELETE("/:movieId", h.Delete, required, cache)

	g.POST("/:movieId/comments", h.AddComment, required)
	g.GET("/:movieId/comments/:commentId", h.GetComment, required)
	g.PUT("/:movieId/comments/:commentId", h.UpdateComment, required)
	g.DELETE("/:movieId/comments/:commentId", h.DeleteComment, required)
}
