// Package service implements the movie resource service: the authorization
// and lifecycle rules sitting between the HTTP handlers and the movie
// repository. All entry points take the authenticated caller explicitly; a
// nil identity means the request is unauthenticated.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vns-shanshan/cineverse-api/internal/domain"
	"github.com/vns-shanshan/cineverse-api/internal/queue"
	"github.com/vns-shanshan/cineverse-api/internal/repository"
	"github.com/vns-shanshan/cineverse-api/internal/storage"
)

// EventPublisher delivers a catalog event. Publishing is best-effort: the
// service logs nothing about it and never fails a request over it.
type EventPublisher func(ctx context.Context, ev queue.MovieEvent) error

// MovieService coordinates validation, photo upload, persistence and event
// publishing for movies and their embedded comments.
type MovieService struct {
	movies   repository.MovieStore
	photos   storage.PhotoStore
	publish  EventPublisher
	validate *validator.Validate
}

// NewMovieService wires the service. publish may be nil to disable events.
func NewMovieService(movies repository.MovieStore, photos storage.PhotoStore, publish EventPublisher) *MovieService {
	if movies == nil || photos == nil {
		panic("nil dependency passed to NewMovieService")
	}
	return &MovieService{
		movies:   movies,
		photos:   photos,
		publish:  publish,
		validate: validator.New(),
	}
}

// List returns the movies visible to the caller, newest first. Guests see
// the whole catalog with owners resolved; an authenticated caller sees only
// their own movies.
func (s *MovieService) List(ctx context.Context, caller *domain.Identity) ([]*domain.Movie, error) {
	var (
		movies []*domain.Movie
		err    error
	)
	if caller == nil {
		movies, err = s.movies.FindAll(ctx)
	} else {
		movies, err = s.movies.FindByOwner(ctx, caller.ID)
	}
	if err != nil {
		return nil, err
	}
	// The store makes no ordering promise; newest-first is a service rule.
	sort.Slice(movies, func(i, j int) bool { return movies[i].ID > movies[j].ID })
	return movies, nil
}

// Get returns a movie with its owner and comment authors resolved. Comments
// are reordered newest-first at read time; storage order is insertion order.
func (s *MovieService) Get(ctx context.Context, id uint64) (*domain.Movie, error) {
	m, err := s.movies.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sortCommentsNewestFirst(m)
	return m, nil
}

// Create validates the input, uploads the photo if one was submitted, and
// persists a movie owned by the caller. Validation runs before the upload
// and the upload before the insert, so a failure at any stage leaves no
// partial state behind.
func (s *MovieService) Create(ctx context.Context, caller *domain.Identity, in domain.MovieInput, photo *storage.PhotoUpload) (*domain.Movie, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := s.validateMovieInput(in, photo != nil); err != nil {
		return nil, err
	}
	released, _ := in.ParseReleasedDate()

	photoURL := in.Photo
	if photo != nil {
		url, err := s.photos.Store(ctx, photo.Filename, photo.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
		}
		photoURL = url
	}

	m := &domain.Movie{
		Photo:        photoURL,
		Title:        in.Title,
		Genre:        in.Genre,
		ReleasedDate: released,
		Runtime:      in.Runtime,
		Details:      in.Details,
		Owner:        domain.UserRef{ID: caller.ID, Username: caller.Username},
	}
	if err := s.movies.Insert(ctx, m); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, queue.ActionMovieCreated, m)
	return m, nil
}

// Update replaces the mutable fields of a movie the caller owns. The
// ownership check runs before any upload or write; a request addressing a
// movie the caller does not own (or that does not exist) is rejected
// outright. Owner and id are never touched, whatever the payload says. A
// request without a photo payload keeps the stored photo.
func (s *MovieService) Update(ctx context.Context, caller *domain.Identity, id uint64, in domain.MovieInput, photo *storage.PhotoUpload) (*domain.Movie, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	existing, err := s.movies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			// No movie owned by the caller with this id; same response as
			// an ownership mismatch so ids cannot be probed.
			return nil, repository.ErrForbidden
		}
		return nil, err
	}
	if existing.Owner.ID != caller.ID {
		return nil, repository.ErrForbidden
	}

	// The stored photo satisfies the photo requirement when neither an
	// upload nor a replacement URL is supplied.
	if err := s.validateMovieInput(in, true); err != nil {
		return nil, err
	}
	released, _ := in.ParseReleasedDate()

	photoURL := existing.Photo
	if photo != nil {
		url, err := s.photos.Store(ctx, photo.Filename, photo.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
		}
		photoURL = url
	} else if in.Photo != "" {
		photoURL = in.Photo
	}

	updated := &domain.Movie{
		ID:           existing.ID,
		Photo:        photoURL,
		Title:        in.Title,
		Genre:        in.Genre,
		ReleasedDate: released,
		Runtime:      in.Runtime,
		Details:      in.Details,
		Owner:        existing.Owner,
	}
	if err := s.movies.Update(ctx, updated); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a movie the caller owns, cascading its comments. Absent
// movie and foreign movie are distinct failures here (404 vs 403), unlike
// Update, which collapses them.
func (s *MovieService) Delete(ctx context.Context, caller *domain.Identity, id uint64) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	m, err := s.movies.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if m.Owner.ID != caller.ID {
		return repository.ErrForbidden
	}
	if err := s.movies.Delete(ctx, id); err != nil {
		return err
	}
	s.publishEvent(ctx, queue.ActionMovieDeleted, m)
	return nil
}

// AddComment appends a comment authored by the caller to an existing movie
// and returns the movie with authors resolved.
func (s *MovieService) AddComment(ctx context.Context, caller *domain.Identity, movieID uint64, in domain.CommentInput) (*domain.Movie, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	ok, err := s.movies.ExistsByID(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, &domain.ValidationError{Fields: []string{"body"}}
	}
	cm := &domain.Comment{
		Author:    domain.UserRef{ID: caller.ID, Username: caller.Username},
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.movies.AppendComment(ctx, movieID, cm); err != nil {
		return nil, err
	}
	return s.Get(ctx, movieID)
}

// GetComment returns a single comment. Unlike the public movie read, a
// single comment is only readable by its author; this asymmetry is carried
// over from the original API on purpose.
func (s *MovieService) GetComment(ctx context.Context, caller *domain.Identity, movieID, commentID uint64) (*domain.Comment, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.findAuthoredComment(ctx, caller, movieID, commentID)
}

// UpdateComment replaces the body of a comment the caller authored and
// returns the owning movie. Author and createdAt are immutable.
func (s *MovieService) UpdateComment(ctx context.Context, caller *domain.Identity, movieID, commentID uint64, in domain.CommentInput) (*domain.Movie, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	if _, err := s.findAuthoredComment(ctx, caller, movieID, commentID); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, &domain.ValidationError{Fields: []string{"body"}}
	}
	if err := s.movies.UpdateCommentBody(ctx, movieID, commentID, body); err != nil {
		return nil, err
	}
	return s.Get(ctx, movieID)
}

// DeleteComment removes a comment the caller authored from its movie.
func (s *MovieService) DeleteComment(ctx context.Context, caller *domain.Identity, movieID, commentID uint64) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	if _, err := s.findAuthoredComment(ctx, caller, movieID, commentID); err != nil {
		return err
	}
	return s.movies.DeleteComment(ctx, movieID, commentID)
}

// findAuthoredComment resolves movie then comment (distinct 404s) and
// enforces that the caller is the comment's author.
func (s *MovieService) findAuthoredComment(ctx context.Context, caller *domain.Identity, movieID, commentID uint64) (*domain.Comment, error) {
	ok, err := s.movies.ExistsByID(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	cm, err := s.movies.FindComment(ctx, movieID, commentID)
	if err != nil {
		return nil, err
	}
	if cm.Author.ID != caller.ID {
		return nil, repository.ErrForbidden
	}
	return cm, nil
}

// validateMovieInput checks the input struct and the photo requirement.
// photoSatisfied is true when an upload accompanies the request or the
// stored photo will be retained.
func (s *MovieService) validateMovieInput(in domain.MovieInput, photoSatisfied bool) error {
	var fields []string
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, jsonFieldName(fe.Field()))
		}
	}
	if in.Genre != "" && !domain.ValidGenre(in.Genre) {
		fields = append(fields, "genre")
	}
	if !photoSatisfied && in.Photo == "" {
		fields = append(fields, "photo")
	}
	if in.ReleasedDate != "" {
		if _, err := in.ParseReleasedDate(); err != nil {
			fields = append(fields, "releasedDate")
		}
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func (s *MovieService) publishEvent(ctx context.Context, action string, m *domain.Movie) {
	if s.publish == nil {
		return
	}
	_ = s.publish(ctx, queue.MovieEvent{
		Action:     action,
		MovieID:    m.ID,
		Title:      m.Title,
		Genre:      m.Genre,
		OwnerID:    m.Owner.ID,
		Owner:      m.Owner.Username,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func sortCommentsNewestFirst(m *domain.Movie) {
	sort.SliceStable(m.Comments, func(i, j int) bool {
		a, b := m.Comments[i], m.Comments[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// jsonFieldName maps a Go struct field name to its wire name. All input
// fields follow lowerCamelCase, so lowering the first byte is sufficient.
func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
