// Package repository contains the data access layer for the catalog. This
// file defines sentinel errors shared across repositories so that the service
// and handler layers can map failures to HTTP responses without inspecting
// driver errors.
package repository

import "errors"

// ErrMovieNotFound is returned when a movie id matches no row.
var ErrMovieNotFound = errors.New("movie not found")

// ErrCommentNotFound is returned when a comment id matches no row within the
// addressed movie.
var ErrCommentNotFound = errors.New("comment not found")

// ErrForbidden is returned when the caller is authenticated but is neither
// the owner nor the author of the addressed resource. Handlers translate it
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrUserExists is returned when registration collides with an existing
// email or username.
var ErrUserExists = errors.New("email or username already exists")
