package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/model"
	"github.com/maruf7705/80MCQ/internal/storage"
)

// AnswersFile is the collection file holding final submissions.
const AnswersFile = "answers.json"

// Answers is the submissions collection. Records are appended with a
// collision-free student name and never edited afterwards.
type Answers struct {
	adapter storage.Adapter
	log     zerolog.Logger
}

// NewAnswers creates the submissions store.
func NewAnswers(adapter storage.Adapter, log zerolog.Logger) *Answers {
	return &Answers{
		adapter: adapter,
		log:     log.With().Str("component", "answers_store").Logger(),
	}
}

// Append stores a submission, disambiguating its student name against the
// snapshot that is written. Returns the stored record and whether the name
// was renamed. Duplicate deliveries of the same payload therefore become two
// distinct records instead of corrupting one.
func (s *Answers) Append(ctx context.Context, sub model.Submission) (model.Submission, bool, error) {
	var saved model.Submission
	err := mutate(ctx, s.adapter, AnswersFile, func(records []model.Submission) ([]model.Submission, bool, error) {
		saved = sub
		saved.StudentName = uniqueStudentName(sub.StudentName, records)
		return append(records, saved), true, nil
	})
	if err != nil {
		return model.Submission{}, false, err
	}

	renamed := saved.StudentName != sub.StudentName
	s.log.Info().
		Str("student", sub.StudentName).
		Str("saved_as", saved.StudentName).
		Bool("renamed", renamed).
		Msg("submission stored")
	return saved, renamed, nil
}

// DeleteOne removes the single record matching studentName + timestamp.
// Returns ErrNotFound without touching the file when nothing matches.
func (s *Answers) DeleteOne(ctx context.Context, studentName, timestamp string) error {
	return mutate(ctx, s.adapter, AnswersFile, func(records []model.Submission) ([]model.Submission, bool, error) {
		out := records[:0:0]
		for _, r := range records {
			if r.StudentName == studentName && r.Timestamp == timestamp {
				continue
			}
			out = append(out, r)
		}
		if len(out) == len(records) {
			return nil, false, fmt.Errorf("submission %s@%s: %w", studentName, timestamp, ErrNotFound)
		}
		return out, true, nil
	})
}

// DeleteStudent removes every record stored under studentName.
// Returns ErrNotFound when the student has no records.
func (s *Answers) DeleteStudent(ctx context.Context, studentName string) error {
	return mutate(ctx, s.adapter, AnswersFile, func(records []model.Submission) ([]model.Submission, bool, error) {
		out := records[:0:0]
		for _, r := range records {
			if r.StudentName == studentName {
				continue
			}
			out = append(out, r)
		}
		if len(out) == len(records) {
			return nil, false, fmt.Errorf("student %s: %w", studentName, ErrNotFound)
		}
		return out, true, nil
	})
}

// List returns all stored submissions, empty when the file is absent.
func (s *Answers) List(ctx context.Context) ([]model.Submission, error) {
	records, _, err := readList[model.Submission](ctx, s.adapter, AnswersFile)
	if records == nil {
		records = []model.Submission{}
	}
	return records, err
}

var suffixPattern = regexp.MustCompile(`_(\d+)$`)

// uniqueStudentName assigns a collision-free name: if desired already exists,
// collect every name matching ^desired(_N)?$, take the highest suffix
// (an un-suffixed match counts as 0) and append max+1.
func uniqueStudentName(desired string, existing []model.Submission) string {
	taken := false
	for _, r := range existing {
		if r.StudentName == desired {
			taken = true
			break
		}
	}
	if !taken {
		return desired
	}

	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(desired) + `(_\d+)?$`)
	maxSuffix := 0
	for _, r := range existing {
		if !pattern.MatchString(r.StudentName) {
			continue
		}
		if m := suffixPattern.FindStringSubmatch(r.StudentName); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > maxSuffix {
				maxSuffix = n
			}
		}
	}
	return fmt.Sprintf("%s_%d", desired, maxSuffix+1)
}
