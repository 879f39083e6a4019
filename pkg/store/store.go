// Package store defines the blob-sink collaborator the server hands
// archived artifacts to (per-connection packet captures, world snapshots
// produced by the persistence collaborator). Only the sink surface lives
// here; what the blobs contain is the producer's business.
package store

import (
	"context"
	"io"
)

// Store is a write-only blob sink.
type Store interface {
	// Put stores the contents of r under key. Keys use '/'-separated
	// path notation.
	Put(ctx context.Context, key string, r io.Reader) error
}
