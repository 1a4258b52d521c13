// Package handler defines the HTTP handlers for the catalog API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vns-shanshan/cineverse-api/internal/domain"
	"github.com/vns-shanshan/cineverse-api/internal/repository"
)

// serviceError maps a movie-service failure onto the API's response shapes:
// ownership/authorship violations use {"message": ...} with 403, everything
// else uses {"err": ...}. The dual shape is kept for client compatibility
// with the API this service replaced.
func serviceError(c echo.Context, err error, forbiddenMsg string) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"err": verr.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"err": "unauthorized"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"message": forbiddenMsg})
	case errors.Is(err, repository.ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"err": "Movie not found."})
	case errors.Is(err, repository.ErrCommentNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"err": "Comment not found."})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"err": err.Error()})
	}
}

// pathID parses a numeric path parameter. ok is false for anything that is
// not a positive integer; callers treat that the same as a missing entity.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
