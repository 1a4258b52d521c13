// Package storage provides the photo store the movie service uploads to.
// The service only sees the PhotoStore interface: bytes plus a filename hint
// in, a durable public URL out.
package storage

import "context"

// PhotoUpload carries a client-submitted photo through the service layer.
type PhotoUpload struct {
	Filename string
	Data     []byte
}

// PhotoStore accepts binary content and returns a durable, publicly
// reachable URL. Implementations must not leave partial objects behind on
// failure.
type PhotoStore interface {
	Store(ctx context.Context, filename string, data []byte) (string, error)
}
