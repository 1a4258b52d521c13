package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vns-shanshan/cineverse-api/internal/domain"
	"github.com/vns-shanshan/cineverse-api/internal/middleware"
)

// Comment endpoints. All of them require authentication, and every
// single-comment operation is restricted to the comment's author, including
// the read: the full movie (with all comments embedded) is public, but a
// comment addressed on its own is not. That asymmetry is inherited from the
// original API and preserved.

// AddComment handles POST /movies/:movieId/comments.
func (h *MovieHandler) AddComment(c echo.Context) error {
	movieID, ok := pathID(c, "movieId")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"err": "Movie not found."})
	}
	var in domain.CommentInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"err": "invalid request body"})
	}
	m, err := h.Service.AddComment(c.Request().Context(), middleware.Identity(c), movieID, in)
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusCreated, m)
}

// GetComment handles GET /movies/:movieId/comments/:commentId.
func (h *MovieHandler) GetComment(c echo.Context) error {
	movieID, commentID, ok := commentPath(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"err": "Comment not found."})
	}
	cm, err := h.Service.GetComment(c.Request().Context(), middleware.Identity(c), movieID, commentID)
	if err != nil {
		return serviceError(c, err, "You are not authorized to edit this comment.")
	}
	return c.JSON(http.StatusOK, cm)
}

// UpdateComment handles PUT /movies/:movieId/comments/:commentId.
func (h *MovieHandler) UpdateComment(c echo.Context) error {
	movieID, commentID, ok := commentPath(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"err": "Comment not found."})
	}
	var in domain.CommentInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"err": "invalid request body"})
	}
	m, err := h.Service.UpdateComment(c.Request().Context(), middleware.Identity(c), movieID, commentID, in)
	if err != nil {
		return serviceError(c, err, "You are not authorized to edit this comment.")
	}
	return c.JSON(http.StatusOK, m)
}

// DeleteComment handles DELETE /movies/:movieId/comments/:commentId.
func (h *MovieHandler) DeleteComment(c echo.Context) error {
	movieID, commentID, ok := commentPath(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"err": "Comment not found."})
	}
	if err := h.Service.DeleteComment(c.Request().Context(), middleware.Identity(c), movieID, commentID); err != nil {
		return serviceError(c, err, "You are not authorized to delete this comment.")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Comment deleted successfully."})
}

func commentPath(c echo.Context) (movieID, commentID uint64, ok bool) {
	movieID, ok = pathID(c, "movieId")
	if !ok {
		return 0, 0, false
	}
	commentID, ok = pathID(c, "commentId")
	if !ok {
		return 0, 0, false
	}
	return movieID, commentID, true
}
