package providers

import (
	"context"
	"io"
)

// DocumentStore abstracts the external document-storage collaborator. The
// booking engine hands over uploaded bytes and keeps only the returned URL.
type DocumentStore interface {
	// Save persists an uploaded document and returns its stable URL
	Save(ctx context.Context, bookingID, filename string, content io.Reader) (string, error)
}
