package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vns-shanshan/cineverse-api/internal/domain"
)

// MovieStore is the persistence contract consumed by the movie service.
// Comments are part of the movie aggregate: they are only reachable through
// a movie id, and every comment mutation is a single atomic statement keyed
// by id so concurrent sibling comments are never lost to a read-modify-write.
type MovieStore interface {
	FindByID(ctx context.Context, id uint64) (*domain.Movie, error)
	FindByOwner(ctx context.Context, ownerID uint64) ([]*domain.Movie, error)
	FindAll(ctx context.Context) ([]*domain.Movie, error)
	ExistsByID(ctx context.Context, id uint64) (bool, error)
	Insert(ctx context.Context, m *domain.Movie) error
	Update(ctx context.Context, m *domain.Movie) error
	Delete(ctx context.Context, id uint64) error
	AppendComment(ctx context.Context, movieID uint64, cm *domain.Comment) error
	FindComment(ctx context.Context, movieID, commentID uint64) (*domain.Comment, error)
	UpdateCommentBody(ctx context.Context, movieID, commentID uint64, body string) error
	DeleteComment(ctx context.Context, movieID, commentID uint64) error
}

// MovieRepo implements MovieStore on MySQL. Owner and author references are
// resolved to usernames at read time via joins against the users table.
type MovieRepo struct {
	db *sql.DB
}

var _ MovieStore = (*MovieRepo)(nil)

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = `m.id, m.owner_id, u.username, m.photo, m.title, m.genre,
	m.released_date, m.runtime, m.details, m.created_at, m.updated_at`

// scanMovie reads one joined movies/users row into a Movie.
func scanMovie(s interface{ Scan(...any) error }) (*domain.Movie, error) {
	var (
		m  domain.Movie
		rt sql.NullInt64
	)
	if err := s.Scan(&m.ID, &m.Owner.ID, &m.Owner.Username, &m.Photo, &m.Title,
		&m.Genre, &m.ReleasedDate, &rt, &m.Details, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if rt.Valid {
		v := uint32(rt.Int64)
		m.Runtime = &v
	}
	return &m, nil
}

// FindByID fetches a movie together with its embedded comments. Comments are
// returned in storage (insertion) order; display order is re-derived by the
// service. ErrMovieNotFound is returned when no row matches.
func (r *MovieRepo) FindByID(ctx context.Context, id uint64) (*domain.Movie, error) {
	const q = `SELECT ` + movieColumns + `
	           FROM movies m JOIN users u ON u.id = m.owner_id
	           WHERE m.id = ?`
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}

	const qc = `SELECT c.id, c.author_id, u.username, c.body, c.created_at
	            FROM comments c JOIN users u ON u.id = c.author_id
	            WHERE c.movie_id = ? ORDER BY c.id`
	rows, err := r.db.QueryContext(ctx, qc, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var cm domain.Comment
		if err := rows.Scan(&cm.ID, &cm.Author.ID, &cm.Author.Username, &cm.Body, &cm.CreatedAt); err != nil {
			return nil, err
		}
		m.Comments = append(m.Comments, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// FindByOwner returns all movies owned by ownerID, newest first. List views
// omit the comment lists; the detail read carries them.
func (r *MovieRepo) FindByOwner(ctx context.Context, ownerID uint64) ([]*domain.Movie, error) {
	const q = `SELECT ` + movieColumns + `
	           FROM movies m JOIN users u ON u.id = m.owner_id
	           WHERE m.owner_id = ? ORDER BY m.id DESC`
	return r.queryMovies(ctx, q, ownerID)
}

// FindAll returns every movie with its owner resolved, newest first.
func (r *MovieRepo) FindAll(ctx context.Context) ([]*domain.Movie, error) {
	const q = `SELECT ` + movieColumns + `
	           FROM movies m JOIN users u ON u.id = m.owner_id
	           ORDER BY m.id DESC`
	return r.queryMovies(ctx, q)
}

func (r *MovieRepo) queryMovies(ctx context.Context, q string, args ...any) ([]*domain.Movie, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExistsByID reports whether a movie row exists.
func (r *MovieRepo) ExistsByID(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id = ? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert persists a new movie and populates its id and timestamps.
func (r *MovieRepo) Insert(ctx context.Context, m *domain.Movie) error {
	const q = `INSERT INTO movies (owner_id, photo, title, genre, released_date, runtime, details)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		m.Owner.ID, m.Photo, m.Title, m.Genre, m.ReleasedDate, nullableRuntime(m.Runtime), m.Details)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	const qs = "SELECT created_at, updated_at FROM movies WHERE id = ?"
	return r.db.QueryRowContext(ctx, qs, m.ID).Scan(&m.CreatedAt, &m.UpdatedAt)
}

// Update replaces the mutable fields of an existing movie. Owner and id are
// never written. Rows-affected is not inspected: MySQL reports zero for a
// no-op write to identical values, so existence is the caller's concern.
func (r *MovieRepo) Update(ctx context.Context, m *domain.Movie) error {
	const q = `UPDATE movies
	           SET photo = ?, title = ?, genre = ?, released_date = ?, runtime = ?, details = ?,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q,
		m.Photo, m.Title, m.Genre, m.ReleasedDate, nullableRuntime(m.Runtime), m.Details, m.ID)
	return err
}

// Delete removes a movie and its embedded comments in one transaction.
// ErrMovieNotFound is returned when the movie row is already gone.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM comments WHERE movie_id = ?", id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id); err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrMovieNotFound
		return err
	}
	return nil
}

// AppendComment atomically appends a comment to a movie and populates its id
// and creation timestamp from the stored row.
func (r *MovieRepo) AppendComment(ctx context.Context, movieID uint64, cm *domain.Comment) error {
	const q = "INSERT INTO comments (movie_id, author_id, body) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, q, movieID, cm.Author.ID, cm.Body)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cm.ID = uint64(id)

	const qs = "SELECT created_at FROM comments WHERE id = ?"
	return r.db.QueryRowContext(ctx, qs, cm.ID).Scan(&cm.CreatedAt)
}

// FindComment fetches a single comment scoped to its movie, with the author
// resolved. ErrCommentNotFound is returned when no row matches.
func (r *MovieRepo) FindComment(ctx context.Context, movieID, commentID uint64) (*domain.Comment, error) {
	const q = `SELECT c.id, c.author_id, u.username, c.body, c.created_at
	           FROM comments c JOIN users u ON u.id = c.author_id
	           WHERE c.id = ? AND c.movie_id = ?`
	var cm domain.Comment
	err := r.db.QueryRowContext(ctx, q, commentID, movieID).
		Scan(&cm.ID, &cm.Author.ID, &cm.Author.Username, &cm.Body, &cm.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &cm, nil
}

// UpdateCommentBody replaces a comment's body in place. Author and created_at
// are never written.
func (r *MovieRepo) UpdateCommentBody(ctx context.Context, movieID, commentID uint64, body string) error {
	const q = "UPDATE comments SET body = ? WHERE id = ? AND movie_id = ?"
	_, err := r.db.ExecContext(ctx, q, body, commentID, movieID)
	return err
}

// DeleteComment removes a single comment from its movie.
func (r *MovieRepo) DeleteComment(ctx context.Context, movieID, commentID uint64) error {
	const q = "DELETE FROM comments WHERE id = ? AND movie_id = ?"
	res, err := r.db.ExecContext(ctx, q, commentID, movieID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func nullableRuntime(rt *uint32) any {
	if rt == nil {
		return nil
	}
	return int64(*rt)
}
