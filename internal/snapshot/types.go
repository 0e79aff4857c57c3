package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storewatch/internal/catalog"
)

var (
	// ErrRead matches every *ReadError.
	ErrRead = errors.New("snapshot read failed")
	// ErrWrite matches every *WriteError.
	ErrWrite = errors.New("snapshot write failed")
)

// Config configures the snapshot store.
//
// Driver values:
//   - "file" (default): JSON file at Path
//   - "sqlite": SQLite database file at Path
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	Keys        catalog.Keys
}

// Store loads and saves the snapshot.
type Store interface {
	// Load returns ok=false when no snapshot has been saved yet.
	Load(ctx context.Context) (items catalog.Collection, ok bool, err error)
	// Save fully replaces the snapshot. Readers never observe a partial write.
	Save(ctx context.Context, items catalog.Collection) error
	Close() error
}

// ReadError reports a snapshot that exists but cannot be read or decoded.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read snapshot %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

func (e *ReadError) Is(target error) bool { return target == ErrRead }

// WriteError reports a failure to persist the snapshot.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to save snapshot %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWrite }
