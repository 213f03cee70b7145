// Package service holds the business logic between the HTTP handlers and the
// storage-backed stores.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/model"
	"github.com/maruf7705/80MCQ/internal/storage"
	"github.com/maruf7705/80MCQ/internal/store"
)

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrFileNotFound  = errors.New("service: question file not found")
	ErrInvalidFile   = errors.New("service: invalid question file")
	ErrEmptyFile     = errors.New("service: question file is empty")
	ErrNoFiles       = errors.New("service: no question files found")
	ErrNotJSON       = errors.New("service: file must be a JSON file")
	ErrInvalidFormat = errors.New("service: question file must be a JSON array")
)

// System files that may share the question directory but are never exams.
var excludedFiles = map[string]struct{}{
	"manifest.json":       {},
	"question-files.json": {},
	"vercel.json":         {},
	"package.json":        {},
	"package-lock.json":   {},
	"tsconfig.json":       {},
	"jsconfig.json":       {},
	"next.config.js":      {},
}

var (
	numberedSetPattern = regexp.MustCompile(`^questions-(\d+)`)
	versionedPattern   = regexp.MustCompile(`^questions-(\d+)\.json$`)
	letterDigitPattern = regexp.MustCompile(`([a-zA-Z])(\d)`)
	yearRangePattern   = regexp.MustCompile(`^\d{4}-\d{4}$`)
	digitRunPattern    = regexp.MustCompile(`\d+`)
)

// QuestionStore is the storage surface the question service needs: random
// access to files plus directory listing.
type QuestionStore interface {
	storage.Adapter
	storage.Lister
}

// QuestionService manages the question file catalog and the active-file
// selection that decides which exam students receive.
type QuestionService struct {
	questions QuestionStore
	config    *store.ExamConfig
	log       zerolog.Logger
}

// NewQuestionService creates a QuestionService over the question file store
// and the exam-config store.
func NewQuestionService(questions QuestionStore, config *store.ExamConfig, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		config:    config,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// ListFiles returns every question file in the store with its formatted
// display name, questions.json first and the rest in natural numeric order.
func (s *QuestionService) ListFiles(ctx context.Context) ([]model.QuestionFileInfo, error) {
	files, err := s.questions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list question files: %w", err)
	}

	list := make([]model.QuestionFileInfo, 0, len(files))
	for _, f := range files {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".json") {
			continue
		}
		if _, excluded := excludedFiles[f.Name]; excluded {
			continue
		}
		lastModified := f.LastModified
		if lastModified.IsZero() {
			lastModified = time.Now()
		}
		list = append(list, model.QuestionFileInfo{
			Name:         f.Name,
			DisplayName:  displayName(f.Name),
			Size:         f.Size,
			LastModified: lastModified.UTC().Format(time.RFC3339),
		})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Name == store.DefaultQuestionFile {
			return true
		}
		if list[j].Name == store.DefaultQuestionFile {
			return false
		}
		return naturalLess(list[i].Name, list[j].Name)
	})
	return list, nil
}

// LatestFile finds the highest-versioned questions-N.json, falling back to
// questions.json (version 0). ErrNoFiles when neither exists.
func (s *QuestionService) LatestFile(ctx context.Context) (string, int, error) {
	files, err := s.questions.List(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("list question files: %w", err)
	}

	latest := ""
	maxVersion := -1
	for _, f := range files {
		if f.Name == store.DefaultQuestionFile {
			if maxVersion < 0 {
				maxVersion = 0
				latest = f.Name
			}
			continue
		}
		if m := versionedPattern.FindStringSubmatch(f.Name); m != nil {
			version, _ := strconv.Atoi(m[1])
			if version > maxVersion {
				maxVersion = version
				latest = f.Name
			}
		}
	}
	if latest == "" {
		return "", 0, ErrNoFiles
	}
	return latest, maxVersion, nil
}

// ActiveFile reports the currently selected question file. It never fails:
// a missing or malformed config, or a config pointing at a deleted file,
// degrades to the default with isDefault set.
func (s *QuestionService) ActiveFile(ctx context.Context) model.ActiveQuestionFile {
	cfg, ok := s.config.Get(ctx)
	if !ok {
		return model.ActiveQuestionFile{ActiveFile: store.DefaultQuestionFile, IsDefault: true}
	}

	if _, _, err := s.questions.Read(ctx, cfg.ActiveQuestionFile); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return model.ActiveQuestionFile{
				ActiveFile: store.DefaultQuestionFile,
				IsDefault:  true,
				Warning:    "Previously selected file not found, using default",
			}
		}
		// Can't verify the file, return the config anyway.
		s.log.Warn().Err(err).Str("file", cfg.ActiveQuestionFile).Msg("could not verify active file")
	}

	setAt := cfg.LastUpdated
	return model.ActiveQuestionFile{ActiveFile: cfg.ActiveQuestionFile, SetAt: &setAt}
}

// SetActiveFile validates fileName and records it as the active exam.
func (s *QuestionService) SetActiveFile(ctx context.Context, fileName string) error {
	if !strings.HasSuffix(fileName, ".json") {
		return ErrNotJSON
	}

	data, _, err := s.questions.Read(ctx, fileName)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return ErrFileNotFound
		}
		return fmt.Errorf("read question file: %w", err)
	}

	var questions []json.RawMessage
	if err := json.Unmarshal(data, &questions); err != nil {
		var probe any
		if json.Unmarshal(data, &probe) == nil {
			return ErrInvalidFormat
		}
		return ErrInvalidFile
	}
	if len(questions) == 0 {
		return ErrEmptyFile
	}

	if err := s.config.Set(ctx, fileName); err != nil {
		return fmt.Errorf("update exam config: %w", err)
	}
	s.log.Info().Str("file", fileName).Msg("active question file changed")
	return nil
}

// LoadQuestions reads and decodes one question file.
func (s *QuestionService) LoadQuestions(ctx context.Context, fileName string) ([]model.Question, error) {
	data, _, err := s.questions.Read(ctx, fileName)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("read question file: %w", err)
	}
	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, ErrInvalidFile
	}
	return questions, nil
}

// displayName turns a file name into its catalog label:
// questions-4.json → "Question Set 4", questions-final.json → "Final Question
// Set", anything else is title-cased with year ranges kept intact.
func displayName(fileName string) string {
	base := strings.TrimSuffix(fileName, ".json")

	if m := numberedSetPattern.FindStringSubmatch(base); m != nil {
		return "Question Set " + m[1]
	}
	if rest, ok := strings.CutPrefix(base, "questions-"); ok && rest != "" {
		return capitalize(rest) + " Question Set"
	}

	spaced := letterDigitPattern.ReplaceAllString(base, "$1 $2")
	var b strings.Builder
	for i, r := range spaced {
		if r == '-' && looksLikeYearRange(spaced, i) {
			b.WriteRune('-')
			continue
		}
		if r == '-' || r == '_' {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		if yearRangePattern.MatchString(w) {
			continue
		}
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// looksLikeYearRange reports whether the dash at byte offset i sits inside a
// NNNN-NNNN pattern.
func looksLikeYearRange(s string, i int) bool {
	if i < 4 || i+5 > len(s) {
		return false
	}
	window := s[i-4 : i+5]
	for j, r := range window {
		if j == 4 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// naturalLess compares names so questions-2 sorts before questions-10,
// matching a numeric-aware locale compare.
func naturalLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	for la != "" && lb != "" {
		da := digitRunPattern.FindStringIndex(la)
		db := digitRunPattern.FindStringIndex(lb)
		if da == nil || db == nil || da[0] != db[0] || la[:da[0]] != lb[:db[0]] {
			break
		}
		na, _ := strconv.Atoi(la[da[0]:da[1]])
		nb, _ := strconv.Atoi(lb[db[0]:db[1]])
		if na != nb {
			return na < nb
		}
		la, lb = la[da[1]:], lb[db[1]:]
	}
	return la < lb
}
