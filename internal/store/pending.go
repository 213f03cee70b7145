package store

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/model"
	"github.com/maruf7705/80MCQ/internal/storage"
)

// PendingFile is the collection file holding in-progress heartbeats.
const PendingFile = "pending-students.json"

// Pending is the heartbeat collection: one record per student currently
// taking the exam, keyed by student name. Every write first drops records
// older than the staleness threshold, so abandoned sessions disappear
// passively.
type Pending struct {
	adapter    storage.Adapter
	staleAfter time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

// NewPending creates the pending-students store with the given uniform
// staleness threshold.
func NewPending(adapter storage.Adapter, staleAfter time.Duration, log zerolog.Logger) *Pending {
	return &Pending{
		adapter:    adapter,
		staleAfter: staleAfter,
		log:        log.With().Str("component", "pending_store").Logger(),
		now:        time.Now,
	}
}

// Upsert records a heartbeat: insert on first sight, refresh the timestamp
// on every later one. ts zero means "now".
func (s *Pending) Upsert(ctx context.Context, studentName string, ts time.Time) error {
	if ts.IsZero() {
		ts = s.now()
	}
	stamp := ts.UTC().Format(time.RFC3339)

	return mutate(ctx, s.adapter, PendingFile, func(records []model.PendingStudent) ([]model.PendingStudent, bool, error) {
		records = s.dropStale(records)

		for i := range records {
			if records[i].StudentName == studentName {
				records[i].Timestamp = stamp
				return records, true, nil
			}
		}
		return append(records, model.PendingStudent{
			StudentName: studentName,
			Timestamp:   stamp,
			Status:      model.StatusPending,
		}), true, nil
	})
}

// Remove deletes the student's record. A store file that does not exist yet
// counts as already-removed, and removing an unknown student is a no-op —
// the caller only cares that the student is gone.
func (s *Pending) Remove(ctx context.Context, studentName string) error {
	if _, _, err := s.adapter.Read(ctx, PendingFile); errors.Is(err, storage.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}

	return mutate(ctx, s.adapter, PendingFile, func(records []model.PendingStudent) ([]model.PendingStudent, bool, error) {
		out := records[:0:0]
		for _, r := range records {
			if r.StudentName == studentName {
				continue
			}
			out = append(out, r)
		}
		return s.dropStale(out), true, nil
	})
}

// Prune rewrites the collection without its stale records and reports how
// many were dropped. Used by the background reaper; skips the write when
// nothing is stale.
func (s *Pending) Prune(ctx context.Context) (int, error) {
	dropped := 0
	err := mutate(ctx, s.adapter, PendingFile, func(records []model.PendingStudent) ([]model.PendingStudent, bool, error) {
		kept := s.dropStale(records)
		dropped = len(records) - len(kept)
		if dropped == 0 {
			return nil, false, nil
		}
		return kept, true, nil
	})
	if err != nil {
		return 0, err
	}
	if dropped > 0 {
		s.log.Info().Int("dropped", dropped).Msg("pruned stale pending students")
	}
	return dropped, nil
}

// List returns all pending students, empty when the file is absent.
func (s *Pending) List(ctx context.Context) ([]model.PendingStudent, error) {
	records, _, err := readList[model.PendingStudent](ctx, s.adapter, PendingFile)
	if records == nil {
		records = []model.PendingStudent{}
	}
	return records, err
}

// dropStale keeps records whose heartbeat is younger than the threshold.
// Records with a missing or unparsable timestamp are dropped too.
func (s *Pending) dropStale(records []model.PendingStudent) []model.PendingStudent {
	now := s.now()
	kept := records[:0:0]
	for _, r := range records {
		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		if err != nil {
			continue
		}
		if now.Sub(ts) >= s.staleAfter {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
