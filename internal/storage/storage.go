// Package storage provides a uniform read-modify-write interface over the
// JSON collection files backing the record stores. Each collection file is
// its own compare-and-swap domain; there is no transaction across files.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotExist means the collection file does not exist yet. Callers
	// substitute an empty collection and write with an empty token.
	ErrNotExist = errors.New("storage: file does not exist")

	// ErrConflict means the write presented a stale version token: the file
	// changed between the read and the write. Callers re-read and retry.
	ErrConflict = errors.New("storage: version token conflict")
)

// Adapter is the read-modify-write contract over a single stored file.
//
// Read returns the current content and an opaque version token. Write must
// present the token from the preceding Read; backends that enforce optimistic
// concurrency reject a stale token with ErrConflict. An empty token on Write
// means "create new file".
type Adapter interface {
	Read(ctx context.Context, name string) (data []byte, token string, err error)
	Write(ctx context.Context, name string, data []byte, token string) error
}

// FileInfo describes one entry of a question set directory listing.
type FileInfo struct {
	Name         string
	Size         int64
	LastModified time.Time
}

// Lister enumerates the question set files available to the exam.
// The redis backend does not implement it; question sets stay on disk there.
type Lister interface {
	List(ctx context.Context) ([]FileInfo, error)
}
