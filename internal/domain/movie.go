// Package domain holds the catalog's core types: movies, their embedded
// comments and the caller identity. It carries no persistence or transport
// concerns.
package domain

import "time"

// Genres is the closed set of genres a movie may carry, enforced through
// ValidGenre on every write. The database column is an ENUM over the same
// values; keep the two in sync.
var Genres = []string{"Action", "Comedy", "Sci-Fi", "Horror", "Documentary"}

// ValidGenre reports whether g is one of the supported genres.
func ValidGenre(g string) bool {
	for _, v := range Genres {
		if v == g {
			return true
		}
	}
	return false
}

// Identity is the authenticated caller, resolved from the access token. A
// nil *Identity means the request is a guest.
type Identity struct {
	ID       uint64
	Username string
}

// UserRef is a lightweight reference to a user embedded in responses, for
// movie owners and comment authors.
type UserRef struct {
	ID       uint64 `json:"id"`
	Username string `json:"username,omitempty"`
}

// Comment is a comment embedded in a movie. Author and CreatedAt are fixed
// at creation; only the body is editable, and only by the author.
type Comment struct {
	ID        uint64    `json:"id"`
	Author    UserRef   `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Movie is the catalog aggregate. Owner is set from the creating caller and
// never changes. Comments are only populated on the detail read; list views
// leave the slice nil.
type Movie struct {
	ID           uint64    `json:"id"`
	Photo        string    `json:"photo"`
	Title        string    `json:"title"`
	Genre        string    `json:"genre"`
	ReleasedDate time.Time `json:"releasedDate"`
	Runtime      *uint32   `json:"runtime,omitempty"`
	Details      string    `json:"details"`
	Owner        UserRef   `json:"user"`
	Comments     []Comment `json:"comments,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MovieInput is the client payload for creating or updating a movie. It
// binds from multipart form fields or a JSON body; the photo file part, when
// present, travels separately. There is deliberately no owner field.
type MovieInput struct {
	Photo        string  `json:"photo" form:"photo" validate:"omitempty,url"`
	Title        string  `json:"title" form:"title" validate:"required"`
	Genre        string  `json:"genre" form:"genre" validate:"required"`
	ReleasedDate string  `json:"releasedDate" form:"releasedDate" validate:"required"`
	Runtime      *uint32 `json:"runtime" form:"runtime" validate:"omitempty,gt=0"`
	Details      string  `json:"details" form:"details" validate:"required"`
}

// releasedDateLayouts are the accepted wire formats for ReleasedDate: a bare
// date or a full RFC 3339 timestamp, which date pickers commonly send.
var releasedDateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseReleasedDate parses the ReleasedDate field into a UTC time.
func (in MovieInput) ParseReleasedDate() (time.Time, error) {
	var lastErr error
	for _, layout := range releasedDateLayouts {
		t, err := time.Parse(layout, in.ReleasedDate)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// CommentInput is the client payload for adding or editing a comment.
type CommentInput struct {
	Body string `json:"body" form:"body"`
}
