package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vns-shanshan/cineverse-api/internal/domain"
	"github.com/vns-shanshan/cineverse-api/internal/middleware"
	"github.com/vns-shanshan/cineverse-api/internal/service"
	"github.com/vns-shanshan/cineverse-api/internal/storage"
)

// MovieHandler exposes the movie and comment endpoints. It binds requests,
// extracts the caller identity left by the auth middleware and delegates all
// rules to the movie service.
type MovieHandler struct {
	Service *service.MovieService
}

func NewMovieHandler(svc *service.MovieService) *MovieHandler {
	if svc == nil {
		panic("nil service passed to NewMovieHandler")
	}
	return &MovieHandler{Service: svc}
}

// List handles GET /movies. Authentication is optional: guests get the full
// catalog, an authenticated caller gets only their own movies.
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.Service.List(c.Request().Context(), middleware.Identity(c))
	if err != nil {
		return serviceError(c, err, "")
	}
	if movies == nil {
		movies = []*domain.Movie{}
	}
	return c.JSON(http.StatusOK, movies)
}

// MyMovies handles GET /movies/my-movies: the caller's movies, newest first.
func (h *MovieHandler) MyMovies(c echo.Context) error {
	ident := middleware.Identity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"err": "unauthorized"})
	}
	movies, err := h.Service.List(c.Request().Context(), ident)
	if err != nil {
		return serviceError(c, err, "")
	}
	if movies == nil {
		movies = []*domain.Movie{}
	}
	return c.JSON(http.StatusOK, movies)
}

// Get handles GET /movies/:movieId. Public: full detail with owner and
// comment authors resolved, comments newest first.
func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "movieId")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"err": "Movie not found."})
	}
	m, err := h.Service.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusOK, m)
}

// Create handles POST /movies (multipart, optional "photo" file part).
func (h *MovieHandler) Create(c echo.Context) error {
	var in domain.MovieInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"err": "invalid request body"})
	}
	photo, err := photoUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"err": "invalid photo payload"})
	}
	m, err := h.Service.Create(c.Request().Context(), middleware.Identity(c), in, photo)
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusCreated, m)
}

// Update handles PUT /movies/:movieId. Only the owner may update; a request
// without a new photo keeps the stored one.
func (h *MovieHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "movieId")
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "You are not allowed to update this movie."})
	}
	var in domain.MovieInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"err": "invalid request body"})
	}
	photo, err := photoUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"err": "invalid photo payload"})
	}
	m, err := h.Service.Update(c.Request().Context(), middleware.Identity(c), id, in, photo)
	if err != nil {
		return serviceError(c, err, "You are not allowed to update this movie.")
	}
	return c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /movies/:movieId. Owner only; comments go with the
// movie.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "movieId")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"err": "Movie not found."})
	}
	if err := h.Service.Delete(c.Request().Context(), middleware.Identity(c), id); err != nil {
		return serviceError(c, err, "You are not allowed to delete this movie.")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie was successfully deleted."})
}

// photoUpload reads the optional multipart "photo" file part. A request
// without one returns (nil, nil).
func photoUpload(c echo.Context) (*storage.PhotoUpload, error) {
	fh, err := c.FormFile("photo")
	if err != nil || fh == nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &storage.PhotoUpload{Filename: fh.Filename, Data: data}, nil
}
