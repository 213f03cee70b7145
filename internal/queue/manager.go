package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/model"
)

// Retry policy. Delay for attempt n is min(InitialBackoff·2^n, MaxBackoff).
const (
	DefaultMaxRetries     = 10
	DefaultInitialBackoff = 2 * time.Second
	DefaultMaxBackoff     = 60 * time.Second
)

// ErrMaxRetries marks an entry that exhausted its delivery attempts.
var ErrMaxRetries = errors.New("queue: max retries exceeded")

// Submitter is the slice of the API client the queue needs.
type Submitter interface {
	SaveSubmission(ctx context.Context, sub model.Submission) (model.SaveSubmissionResult, error)
	RemovePendingStudent(ctx context.Context, studentName string) error
}

// Progress is emitted to the status callback on every state transition.
type Progress struct {
	Status      Status
	RetryCount  int
	NextRetryIn time.Duration
	Err         string
}

// ProgressFunc receives queue state transitions, e.g. for a status indicator.
type ProgressFunc func(Progress)

// Option configures a Manager.
type Option func(*Manager)

// WithRetryPolicy overrides the retry limits, used by tests and tools.
func WithRetryPolicy(maxRetries int, initial, max time.Duration) Option {
	return func(m *Manager) {
		m.maxRetries = maxRetries
		m.initialBackoff = initial
		m.maxBackoff = max
	}
}

// WithOnDelivered registers a hook run after an entry's confirmed delivery,
// used to clear the ephemeral exam state tied to the student.
func WithOnDelivered(fn func(studentName string)) Option {
	return func(m *Manager) { m.onDelivered = fn }
}

// Manager drives queue entries through the delivery state machine:
// pending → submitting → (success | retrying → submitting | failed).
type Manager struct {
	log  *Log
	api  Submitter
	zlog zerolog.Logger

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	onDelivered    func(studentName string)

	draining atomic.Bool
}

// NewManager creates a queue manager over the persisted log.
func NewManager(log *Log, api Submitter, zlog zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		log:            log,
		api:            api,
		zlog:           zlog.With().Str("component", "submission_queue").Logger(),
		maxRetries:     DefaultMaxRetries,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// backoffDelay returns the wait before retry number retryCount.
func backoffDelay(initial, max time.Duration, retryCount int) time.Duration {
	delay := initial << uint(retryCount)
	if delay <= 0 || delay > max {
		return max
	}
	return delay
}

func (m *Manager) emit(progress ProgressFunc, p Progress) {
	if progress != nil {
		progress(p)
	}
}

// Process runs one entry through the state machine until it is delivered,
// exhausts its retries, or ctx is cancelled. The backoff wait between
// attempts is a cancellable timer, so unrelated work is never blocked.
func (m *Manager) Process(ctx context.Context, entry Entry, progress ProgressFunc) error {
	for {
		if entry.RetryCount >= m.maxRetries {
			// Entry stays persisted as failed; clearing it is a manual
			// decision, not the queue's.
			m.zlog.Error().Str("id", entry.ID).Msg("max retries reached")
			_ = m.log.Update(entry.ID, func(e *Entry) {
				e.Status = StatusFailed
				e.LastError = ErrMaxRetries.Error()
			})
			m.emit(progress, Progress{Status: StatusFailed, RetryCount: entry.RetryCount, Err: ErrMaxRetries.Error()})
			return ErrMaxRetries
		}

		m.emit(progress, Progress{Status: StatusSubmitting, RetryCount: entry.RetryCount})
		_ = m.log.Update(entry.ID, func(e *Entry) { e.Status = StatusSubmitting })

		// Drop the student from the pending list first, best effort: a
		// failure here only delays the admin dashboard, never the result.
		if err := m.api.RemovePendingStudent(ctx, entry.Payload.StudentName); err != nil {
			m.zlog.Warn().Err(err).
				Str("student", entry.Payload.StudentName).
				Msg("could not remove pending student, continuing")
		}

		_, err := m.api.SaveSubmission(ctx, entry.Payload)
		if err == nil {
			if removeErr := m.log.Remove(entry.ID); removeErr != nil {
				m.zlog.Error().Err(removeErr).Str("id", entry.ID).Msg("failed to compact delivered entry")
			}
			if m.onDelivered != nil {
				m.onDelivered(entry.Payload.StudentName)
			}
			m.emit(progress, Progress{Status: StatusSuccess, RetryCount: entry.RetryCount})
			m.zlog.Info().Str("id", entry.ID).Int("retries", entry.RetryCount).Msg("submission delivered")
			return nil
		}

		entry.RetryCount++
		m.zlog.Warn().Err(err).
			Str("id", entry.ID).
			Int("attempt", entry.RetryCount).
			Int("max", m.maxRetries).
			Msg("submission attempt failed")

		if entry.RetryCount >= m.maxRetries {
			_ = m.log.Update(entry.ID, func(e *Entry) {
				e.RetryCount = entry.RetryCount
				e.Status = StatusFailed
				e.LastError = err.Error()
				e.LastAttempt = time.Now().UTC().Format(time.RFC3339)
			})
			m.emit(progress, Progress{Status: StatusFailed, RetryCount: entry.RetryCount, Err: err.Error()})
			return err
		}

		delay := backoffDelay(m.initialBackoff, m.maxBackoff, entry.RetryCount)
		_ = m.log.Update(entry.ID, func(e *Entry) {
			e.RetryCount = entry.RetryCount
			e.Status = StatusRetrying
			e.LastError = err.Error()
			e.LastAttempt = time.Now().UTC().Format(time.RFC3339)
		})
		m.emit(progress, Progress{Status: StatusRetrying, RetryCount: entry.RetryCount, NextRetryIn: delay, Err: err.Error()})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Drain pushes every persisted entry through Process, sequentially and in
// order. At most one drain pass runs at a time; overlapping triggers are
// no-ops until the active pass completes.
func (m *Manager) Drain(ctx context.Context, progress ProgressFunc) {
	if !m.draining.CompareAndSwap(false, true) {
		return
	}
	defer m.draining.Store(false)

	entries, err := m.log.Entries()
	if err != nil {
		m.zlog.Error().Err(err).Msg("cannot load queue")
		return
	}
	if len(entries) == 0 {
		return
	}

	m.zlog.Info().Int("count", len(entries)).Msg("draining pending submissions")
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		_ = m.Process(ctx, entry, progress)
	}
}

// StartBackgroundSync drains the queue immediately and again on every
// reconnect signal, until ctx is cancelled. Call in a goroutine.
func (m *Manager) StartBackgroundSync(ctx context.Context, reconnect <-chan struct{}, progress ProgressFunc) {
	m.Drain(ctx, progress)

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-reconnect:
			if !ok {
				return
			}
			m.zlog.Info().Msg("network reconnected, syncing queue")
			m.Drain(ctx, progress)
		}
	}
}
