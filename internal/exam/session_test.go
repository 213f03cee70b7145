package exam

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maruf7705/80MCQ/internal/model"
	"github.com/maruf7705/80MCQ/internal/queue"
)

// sessionAPI implements both the queue Submitter and the heartbeat sender.
type sessionAPI struct {
	mu          sync.Mutex
	saved       []model.Submission
	heartbeats  []time.Time
	queuedFirst bool
	log         *queue.Log
}

func (a *sessionAPI) SaveSubmission(_ context.Context, sub model.Submission) (model.SaveSubmissionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	// Record whether the entry was already persisted when the network call
	// arrived.
	if entries, err := a.log.Entries(); err == nil && len(entries) > 0 {
		a.queuedFirst = true
	}
	a.saved = append(a.saved, sub)
	return model.SaveSubmissionResult{Success: true, SavedName: sub.StudentName}, nil
}

func (a *sessionAPI) RemovePendingStudent(_ context.Context, _ string) error { return nil }

func (a *sessionAPI) SavePendingStudent(_ context.Context, _ string, ts time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.heartbeats = append(a.heartbeats, ts)
	return nil
}

func (a *sessionAPI) savedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.saved)
}

type sessionFixture struct {
	session  *Session
	api      *sessionAPI
	log      *queue.Log
	stateDir string
	progress chan queue.Progress
}

func newSessionFixture(t *testing.T, mutateCfg func(*Config)) *sessionFixture {
	t.Helper()

	l, err := queue.OpenLog(filepath.Join(t.TempDir(), "queue.json"))
	require.NoError(t, err)
	api := &sessionAPI{log: l}
	manager := queue.NewManager(l, api, zerolog.Nop(), queue.WithRetryPolicy(3, time.Millisecond, 2*time.Millisecond))

	progress := make(chan queue.Progress, 16)
	stateDir := t.TempDir()
	cfg := Config{
		Questions:    buildQuestions(4, "Physics"),
		QuestionFile: "questions.json",
		Duration:     time.Hour,
		StateDir:     stateDir,
		Heartbeat:    api,
		Queue:        manager,
		QueueLog:     l,
		OnProgress:   func(p queue.Progress) { progress <- p },
		Log:          zerolog.Nop(),
	}
	if mutateCfg != nil {
		mutateCfg(&cfg)
	}
	return &sessionFixture{
		session:  NewSession(cfg),
		api:      api,
		log:      l,
		stateDir: stateDir,
		progress: progress,
	}
}

func (f *sessionFixture) waitFor(t *testing.T, want queue.Status) queue.Progress {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case p := <-f.progress:
			if p.Status == want {
				return p
			}
		case <-deadline:
			t.Fatalf("timed out waiting for queue status %q", want)
		}
	}
}

func TestLifecycleTransitions(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	assert.Equal(t, StatusIdle, f.session.Status())
	assert.ErrorIs(t, f.session.SelectAnswer("q1", "a"), ErrNotRunning)
	_, err := f.session.Submit(ctx)
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, f.session.Start(ctx, "Alice"))
	assert.Equal(t, StatusRunning, f.session.Status())
	assert.ErrorIs(t, f.session.Start(ctx, "Alice"), ErrAlreadyStarted)

	require.NoError(t, f.session.SelectAnswer("q1", "a"))
	require.NoError(t, f.session.Next())
	require.NoError(t, f.session.ToggleMark())
	assert.Positive(t, f.session.TimeLeft())

	_, err = f.session.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, f.session.Status())

	// Submitted is terminal.
	assert.ErrorIs(t, f.session.SelectAnswer("q2", "a"), ErrNotRunning)
	_, err = f.session.Submit(ctx)
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestStartRequiresName(t *testing.T) {
	f := newSessionFixture(t, nil)
	assert.Error(t, f.session.Start(context.Background(), ""))
}

func TestJumpBounds(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx, "Alice"))

	assert.Error(t, f.session.Jump(-1))
	assert.Error(t, f.session.Jump(4))
	require.NoError(t, f.session.Jump(3))
	// Next past the last question stays put without error.
	require.NoError(t, f.session.Next())
	require.NoError(t, f.session.Jump(0))
	require.NoError(t, f.session.Prev())
}

func TestSubmitGradesAndQueuesBeforeNetwork(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.session.Start(ctx, "Alice"))
	require.NoError(t, f.session.SelectAnswer("q1", "a"))
	require.NoError(t, f.session.SelectAnswer("q2", "a"))
	require.NoError(t, f.session.SelectAnswer("q3", "b"))

	payload, err := f.session.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Alice", payload.StudentName)
	assert.Equal(t, 2, payload.Correct)
	assert.Equal(t, 1, payload.Wrong)
	assert.InDelta(t, 1.75, payload.Score, 1e-9)
	assert.False(t, payload.Pass)
	assert.Equal(t, "questions.json", payload.QuestionFile)
	assert.NotEmpty(t, payload.Timestamp)

	f.waitFor(t, queue.StatusSuccess)
	assert.True(t, f.api.queuedFirst, "entry must be persisted before the network call")
	assert.Equal(t, 1, f.api.savedCount())

	// Confirmed delivery cleans both the queue and the resume snapshot.
	entries, err := f.log.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, ok := loadSnapshot(f.stateDir, "Alice")
	assert.False(t, ok)
}

func TestResumeRestoresStateAndClampsTime(t *testing.T) {
	stateDir := t.TempDir()
	snap := snapshot{
		Answers:      map[string]string{"q1": "a", "q2": "b"},
		CurrentIndex: 99, // beyond the question count, must clamp
		TimeLeftSec:  600,
		Visited:      []int{0, 1, 2},
		Marked:       []int{1},
	}
	require.NoError(t, saveSnapshot(stateDir, "Alice", snap))

	f := newSessionFixture(t, func(cfg *Config) { cfg.StateDir = stateDir })
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx, "Alice"))

	// Restored deadline honors the saved remaining time, not the full hour.
	left := f.session.TimeLeft()
	assert.LessOrEqual(t, left, 10*time.Minute)
	assert.Greater(t, left, 9*time.Minute)

	payload, err := f.session.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, payload.Correct)
	assert.Equal(t, 1, payload.Wrong)
	f.waitFor(t, queue.StatusSuccess)
}

func TestDeadlineAutoSubmits(t *testing.T) {
	f := newSessionFixture(t, func(cfg *Config) { cfg.Duration = 50 * time.Millisecond })
	ctx := context.Background()

	require.NoError(t, f.session.Start(ctx, "Alice"))
	require.NoError(t, f.session.SelectAnswer("q1", "a"))

	f.waitFor(t, queue.StatusSuccess)
	assert.Equal(t, StatusSubmitted, f.session.Status())
	assert.Equal(t, 1, f.api.savedCount())
	assert.Zero(t, f.session.TimeLeft())
}

func TestHeartbeatsCarrySessionStart(t *testing.T) {
	f := newSessionFixture(t, func(cfg *Config) {
		cfg.HeartbeatInitial = 10 * time.Millisecond
		cfg.HeartbeatInterval = 10 * time.Millisecond
	})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, f.session.Start(ctx, "Alice"))

	require.Eventually(t, func() bool {
		f.api.mu.Lock()
		defer f.api.mu.Unlock()
		return len(f.api.heartbeats) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	f.api.mu.Lock()
	defer f.api.mu.Unlock()
	for _, hb := range f.api.heartbeats {
		assert.WithinDuration(t, start, hb, time.Second)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snap := snapshot{
		Answers:      map[string]string{"q1": "a"},
		CurrentIndex: 2,
		TimeLeftSec:  1200,
		Visited:      []int{0, 2},
		Marked:       []int{2},
	}
	require.NoError(t, saveSnapshot(dir, "Alice", snap))

	loaded, ok := loadSnapshot(dir, "Alice")
	require.True(t, ok)
	assert.Equal(t, snap, loaded)

	_, ok = loadSnapshot(dir, "Bob")
	assert.False(t, ok)

	clearSnapshot(dir, "Alice")
	_, ok = loadSnapshot(dir, "Alice")
	assert.False(t, ok)
}
