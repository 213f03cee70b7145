package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/model"
	"github.com/maruf7705/80MCQ/internal/storage"
)

// ExamConfigFile holds the active-question-set record.
const ExamConfigFile = "exam-config.json"

// DefaultQuestionFile is served when no config exists or it cannot be read.
const DefaultQuestionFile = "questions.json"

// ExamConfig is the single-object active-question-set store.
type ExamConfig struct {
	adapter storage.Adapter
	log     zerolog.Logger
}

// NewExamConfig creates the exam-config store.
func NewExamConfig(adapter storage.Adapter, log zerolog.Logger) *ExamConfig {
	return &ExamConfig{
		adapter: adapter,
		log:     log.With().Str("component", "examconfig_store").Logger(),
	}
}

// Get returns the stored config, or (zero, false) when none exists or it is
// unreadable — the caller falls back to DefaultQuestionFile in that case.
func (s *ExamConfig) Get(ctx context.Context) (model.ExamConfig, bool) {
	data, _, err := s.adapter.Read(ctx, ExamConfigFile)
	if err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			s.log.Warn().Err(err).Msg("exam config unreadable, using default")
		}
		return model.ExamConfig{}, false
	}

	var cfg model.ExamConfig
	if err := json.Unmarshal(data, &cfg); err != nil || cfg.ActiveQuestionFile == "" {
		s.log.Warn().Err(err).Msg("exam config malformed, using default")
		return model.ExamConfig{}, false
	}
	return cfg, true
}

// Set replaces the active question file record.
func (s *ExamConfig) Set(ctx context.Context, fileName string) error {
	cfg := model.ExamConfig{
		ActiveQuestionFile: fileName,
		LastUpdated:        time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		_, token, err := s.adapter.Read(ctx, ExamConfigFile)
		if err != nil && !errors.Is(err, storage.ErrNotExist) {
			return err
		}

		err = s.adapter.Write(ctx, ExamConfigFile, data, token)
		if err == nil {
			s.log.Info().Str("file", fileName).Msg("active question file updated")
			return nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
