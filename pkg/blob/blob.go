// Package blob defines the byte-storage contract for attachments and a
// local-disk implementation. The conversation engine stores only references
// (filename, content type, size); the bytes live here.
package blob

import (
	"context"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Info describes one stored blob.
type Info struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Store is the contract the engine consumes. Put must be atomic: after it
// returns, the name resolves to exactly the given bytes or the previous
// content, never to a torn write. Delete on a missing name is a no-op.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Info, error)
}

// DetectContentType sniffs the media type from content. Used as a fallback
// when the uploader supplies none.
func DetectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}
