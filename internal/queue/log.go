// Package queue implements the client-resident durable submission queue:
// a small transaction log of not-yet-confirmed exam results, retried with
// exponential backoff until the server acknowledges them.
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maruf7705/80MCQ/internal/model"
)

// Status is a queue entry's delivery state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusSubmitting Status = "submitting"
	StatusRetrying   Status = "retrying"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// Entry is one undelivered exam submission. It is created the instant the
// exam is submitted, before any network call, and removed only on confirmed
// server acceptance.
type Entry struct {
	ID          string           `json:"id"`
	Payload     model.Submission `json:"payload"`
	Timestamp   string           `json:"timestamp"`
	RetryCount  int              `json:"retryCount"`
	Status      Status           `json:"status"`
	LastError   string           `json:"lastError,omitempty"`
	LastAttempt string           `json:"lastAttempt,omitempty"`
}

// Log is the persisted queue file. It survives process restarts; a crashed
// session's entries are retried on the next drain. Entries are kept in
// submission order and compacted away on confirmed delivery.
type Log struct {
	mu   sync.Mutex
	path string
}

// OpenLog opens (or lazily creates) the queue file at path.
func OpenLog(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("queue dir: %w", err)
	}
	return &Log{path: path}, nil
}

// Append adds a new pending entry for the payload. The entry ID is
// "<studentName>_<epochMillis>".
func (l *Log) Append(payload model.Submission) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry := Entry{
		ID:         fmt.Sprintf("%s_%d", payload.StudentName, now.UnixMilli()),
		Payload:    payload,
		Timestamp:  now.UTC().Format(time.RFC3339),
		RetryCount: 0,
		Status:     StatusPending,
	}

	entries, err := l.load()
	if err != nil {
		return Entry{}, err
	}
	entries = append(entries, entry)
	if err := l.save(entries); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Entries returns a snapshot of all persisted entries.
func (l *Log) Entries() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// Update applies fn to the entry with the given ID and persists the result.
// Unknown IDs are ignored (the entry may have been compacted concurrently).
func (l *Log) Update(id string, fn func(*Entry)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == id {
			fn(&entries[i])
			break
		}
	}
	return l.save(entries)
}

// Remove compacts the entry out of the log after confirmed delivery.
func (l *Log) Remove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return err
	}
	kept := entries[:0:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return l.save(kept)
}

func (l *Log) load() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read queue: %w", err)
	}

	var entries []Entry
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode queue: %w", err)
		}
	}
	return entries, nil
}

func (l *Log) save(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write queue: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write queue: %w", err)
	}
	return nil
}
