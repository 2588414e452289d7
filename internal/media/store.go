// Package media stores the binary attachments of listings: one mandatory
// verification video and optional images per listing.
package media

import (
	"context"
	"errors"
	"io"
)

// Kind tells the store which family of content an upload must belong to.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

var (
	// ErrUnsupportedType is returned when sniffed content does not match
	// the requested Kind.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrTooLarge is returned when an upload exceeds the per-file limit.
	ErrTooLarge = errors.New("media too large")
	// ErrInvalidID is returned for public ids that do not address an
	// object of this store.
	ErrInvalidID = errors.New("invalid media id")
)

// Upload is one incoming file.
type Upload struct {
	Name string
	Size int64 // as declared by the client; -1 when unknown
	Body io.Reader
}

// Object describes a stored file.
type Object struct {
	URL         string
	PublicID    string
	ContentType string
	Size        int64
	Duration    float64 // seconds, videos only; 0 when unknown
}

// Store persists uploads and releases them by public id. Delete of an id
// that no longer exists succeeds.
type Store interface {
	Save(ctx context.Context, kind Kind, up Upload) (Object, error)
	Delete(ctx context.Context, publicID string) error
}

// ctxReader fails reads once ctx is done, bounding slow uploads.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
