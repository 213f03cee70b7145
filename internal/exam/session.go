package exam

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/model"
	"github.com/maruf7705/80MCQ/internal/queue"
)

// Session lifecycle states.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusSubmitted Status = "submitted"
)

// Timing defaults: a one hour exam, first heartbeat after one minute,
// repeated every five minutes.
const (
	DefaultDuration          = time.Hour
	DefaultHeartbeatInitial  = time.Minute
	DefaultHeartbeatInterval = 5 * time.Minute
)

var (
	// ErrNotRunning is returned by mutations outside the running state;
	// submitted is terminal.
	ErrNotRunning = errors.New("exam: session is not running")
	// ErrAlreadyStarted is returned by Start on a non-idle session.
	ErrAlreadyStarted = errors.New("exam: session already started")
)

// HeartbeatSender is the slice of the API client the session needs to keep
// its pending-student record fresh.
type HeartbeatSender interface {
	SavePendingStudent(ctx context.Context, studentName string, ts time.Time) error
}

// Config wires a session to its questions, the submission queue and the
// heartbeat API.
type Config struct {
	Questions    []model.Question
	QuestionFile string

	// Duration is the exam length; the deadline is fixed at Start.
	Duration time.Duration
	// HeartbeatInitial / HeartbeatInterval control pending-student upserts.
	HeartbeatInitial  time.Duration
	HeartbeatInterval time.Duration

	// StateDir receives the per-student resume snapshot.
	StateDir string

	Heartbeat HeartbeatSender
	Queue     *queue.Manager
	QueueLog  *queue.Log

	// OnProgress observes the delivery state machine for the status
	// indicator. Optional.
	OnProgress queue.ProgressFunc

	Log zerolog.Logger
}

// Session is one student's timed exam run. All methods are safe for
// concurrent use; the timer, heartbeats and queue delivery run on their own
// goroutines and are torn down when the session leaves running.
type Session struct {
	cfg Config
	log zerolog.Logger

	mu          sync.Mutex
	status      Status
	studentName string
	answers     map[string]string
	current     int
	visited     map[int]bool
	marked      map[int]bool
	startedAt   time.Time
	deadline    time.Time

	stopRunning context.CancelFunc
}

// NewSession creates an idle session.
func NewSession(cfg Config) *Session {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.HeartbeatInitial <= 0 {
		cfg.HeartbeatInitial = DefaultHeartbeatInitial
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	return &Session{
		cfg:     cfg,
		log:     cfg.Log.With().Str("component", "exam_session").Logger(),
		status:  StatusIdle,
		answers: make(map[string]string),
		visited: map[int]bool{0: true},
		marked:  make(map[int]bool),
	}
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start moves idle → running: fixes the wall-clock deadline, restores a
// persisted snapshot if one exists, and starts the countdown and heartbeat
// timers. Name entry is the only gate; there is no authentication.
func (s *Session) Start(ctx context.Context, studentName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusIdle {
		return ErrAlreadyStarted
	}
	if studentName == "" {
		return fmt.Errorf("exam: student name required")
	}

	s.studentName = studentName
	s.startedAt = time.Now()
	remaining := s.cfg.Duration

	if snap, ok := loadSnapshot(s.cfg.StateDir, studentName); ok {
		s.restore(snap)
		if sec := snap.TimeLeftSec; sec > 0 && time.Duration(sec)*time.Second < remaining {
			remaining = time.Duration(sec) * time.Second
		}
		s.log.Info().Str("student", studentName).Msg("resumed saved exam state")
	}

	s.deadline = s.startedAt.Add(remaining)
	s.status = StatusRunning
	s.persistLocked()

	runCtx, cancel := context.WithCancel(ctx)
	s.stopRunning = cancel
	go s.heartbeatLoop(runCtx)
	go s.watchDeadline(runCtx)

	s.log.Info().
		Str("student", studentName).
		Time("deadline", s.deadline).
		Msg("exam started")
	return nil
}

func (s *Session) restore(snap snapshot) {
	if snap.Answers != nil {
		s.answers = snap.Answers
	}
	maxIndex := len(s.cfg.Questions) - 1
	if maxIndex < 0 {
		maxIndex = 0
	}
	s.current = snap.CurrentIndex
	if s.current > maxIndex {
		s.current = maxIndex
	}
	if s.current < 0 {
		s.current = 0
	}
	for _, i := range snap.Visited {
		s.visited[i] = true
	}
	for _, i := range snap.Marked {
		s.marked[i] = true
	}
}

// SelectAnswer records the chosen option for a question.
func (s *Session) SelectAnswer(questionID, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return ErrNotRunning
	}
	s.answers[questionID] = optionID
	s.visited[s.current] = true
	s.persistLocked()
	return nil
}

// Jump moves the question pointer to index i.
func (s *Session) Jump(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return ErrNotRunning
	}
	if i < 0 || i >= len(s.cfg.Questions) {
		return fmt.Errorf("exam: question index %d out of range", i)
	}
	s.current = i
	s.visited[i] = true
	s.persistLocked()
	return nil
}

// Next advances to the next question if there is one.
func (s *Session) Next() error {
	s.mu.Lock()
	i := s.current + 1
	s.mu.Unlock()
	if i >= len(s.cfg.Questions) {
		return nil
	}
	return s.Jump(i)
}

// Prev steps back to the previous question if there is one.
func (s *Session) Prev() error {
	s.mu.Lock()
	i := s.current - 1
	s.mu.Unlock()
	if i < 0 {
		return nil
	}
	return s.Jump(i)
}

// ToggleMark flips the marked-for-review flag on the current question.
func (s *Session) ToggleMark() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return ErrNotRunning
	}
	if s.marked[s.current] {
		delete(s.marked, s.current)
	} else {
		s.marked[s.current] = true
	}
	s.persistLocked()
	return nil
}

// TimeLeft reports the remaining exam time, zero once expired.
func (s *Session) TimeLeft() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return 0
	}
	left := time.Until(s.deadline)
	if left < 0 {
		return 0
	}
	return left
}

// Submit moves running → submitted: grades the answers, queues the payload
// BEFORE any network call, tears down the timers and hands delivery to the
// queue manager in the background. The graded payload is returned
// immediately so the result screen never waits on the network.
func (s *Session) Submit(ctx context.Context) (model.Submission, error) {
	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return model.Submission{}, ErrNotRunning
	}

	result := Score(s.cfg.Questions, s.answers)
	payload := model.Submission{
		StudentName:  s.studentName,
		Answers:      s.answers,
		Score:        roundScore(result.Score),
		TotalMarks:   float64(result.Total) * MarkPerQuestion,
		Correct:      result.Correct,
		Wrong:        result.Wrong,
		Attempted:    result.Attempted,
		Pass:         Passed(result.Score),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		QuestionFile: s.cfg.QuestionFile,
		SubjectStats: result.Subjects,
	}

	s.status = StatusSubmitted
	if s.stopRunning != nil {
		s.stopRunning()
	}
	studentName := s.studentName
	s.mu.Unlock()

	// Queue first: once the entry is persisted the result cannot be lost,
	// even if the process dies a moment later.
	entry, err := s.cfg.QueueLog.Append(payload)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to persist queue entry")
		return payload, err
	}
	s.log.Info().Str("id", entry.ID).Msg("submission queued")

	go s.cfg.Queue.Process(context.WithoutCancel(ctx), entry, func(p queue.Progress) {
		if p.Status == queue.StatusSuccess {
			clearSnapshot(s.cfg.StateDir, studentName)
		}
		if s.cfg.OnProgress != nil {
			s.cfg.OnProgress(p)
		}
	})

	return payload, nil
}

// heartbeatLoop upserts the pending-student record: once shortly after the
// start, then at the regular interval, always carrying the session start
// timestamp. Torn down with the running state.
func (s *Session) heartbeatLoop(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.HeartbeatInitial):
	}
	s.sendHeartbeat(ctx)

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sendHeartbeat(ctx)
		}
	}
}

func (s *Session) sendHeartbeat(ctx context.Context) {
	if s.cfg.Heartbeat == nil {
		return
	}
	if err := s.cfg.Heartbeat.SavePendingStudent(ctx, s.studentName, s.startedAt); err != nil {
		s.log.Warn().Err(err).Msg("heartbeat failed")
		return
	}
	s.log.Debug().Str("student", s.studentName).Msg("heartbeat sent")
}

// watchDeadline auto-submits when the countdown reaches zero.
func (s *Session) watchDeadline(ctx context.Context) {
	s.mu.Lock()
	deadline := s.deadline
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Until(deadline)):
	}

	if _, err := s.Submit(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, ErrNotRunning) {
		s.log.Error().Err(err).Msg("auto-submit failed")
	} else if err == nil {
		s.log.Info().Str("student", s.studentName).Msg("time up, auto-submitted")
	}
}

// persistLocked writes the resume snapshot. Callers hold the lock.
func (s *Session) persistLocked() {
	if s.cfg.StateDir == "" || s.status != StatusRunning {
		return
	}
	snap := snapshot{
		Answers:      s.answers,
		CurrentIndex: s.current,
		TimeLeftSec:  int(time.Until(s.deadline) / time.Second),
		Visited:      sortedKeys(s.visited),
		Marked:       sortedKeys(s.marked),
	}
	if err := saveSnapshot(s.cfg.StateDir, s.studentName, snap); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist exam state")
	}
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// roundScore keeps two decimal places, matching the stored payload format.
func roundScore(score float64) float64 {
	return float64(int(score*100+0.5)) / 100
}
