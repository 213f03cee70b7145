// Package store implements the logical record collections on top of the
// storage adapter. Every mutation follows the same recipe: read the whole
// collection, transform the in-memory list, write it back with the version
// token from the read. A conflicting write is retried with a fresh read.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maruf7705/80MCQ/internal/storage"
)

// ErrNotFound means a delete predicate matched no records.
var ErrNotFound = errors.New("store: record not found")

// casAttempts bounds the transparent re-read-modify-write loop on a
// version token conflict.
const casAttempts = 3

// readList decodes a collection file into records. A missing file yields an
// empty list with an empty token. Content that is not a JSON array is an
// error rather than silently treated as empty.
func readList[T any](ctx context.Context, adapter storage.Adapter, name string) ([]T, string, error) {
	data, token, err := adapter.Read(ctx, name)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	var records []T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, "", fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return records, token, nil
}

// writeList encodes records pretty-printed (the files double as the admin
// UI's data source) and writes them with the given token.
func writeList[T any](ctx context.Context, adapter storage.Adapter, name string, records []T, token string) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return adapter.Write(ctx, name, data, token)
}

// mutate runs a read-transform-write cycle, re-reading and retrying when the
// backend reports a token conflict. The transform returns the new list, or
// keep=false to abandon the write (the read snapshot needs no change), or an
// error to abort.
func mutate[T any](ctx context.Context, adapter storage.Adapter, name string,
	transform func(records []T) (out []T, keep bool, err error)) error {

	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		records, token, err := readList[T](ctx, adapter, name)
		if err != nil {
			return err
		}

		out, keep, err := transform(records)
		if err != nil {
			return err
		}
		if !keep {
			return nil
		}

		err = writeList(ctx, adapter, name, out, token)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
