// Package queue defines the catalog's message payloads plus the publisher
// and background consumer that move them through RabbitMQ.
package queue

// Event actions published to the catalog.events queue.
const (
	ActionMovieCreated = "movie.created"
	ActionMovieDeleted = "movie.deleted"
)

// MovieEvent is published when a movie enters or leaves the catalog. It
// carries enough information for downstream consumers to log or notify
// without querying the primary database.
type MovieEvent struct {
	Action     string `json:"action"`
	MovieID    uint64 `json:"movie_id"`
	Title      string `json:"title"`
	Genre      string `json:"genre"`
	OwnerID    uint64 `json:"owner_id"`
	Owner      string `json:"owner"`
	OccurredAt string `json:"occurred_at"`
}
