// Package exam implements the timed exam session lifecycle on the student
// side: idle → running → submitted, with heartbeats, local state persistence
// and the scored payload handed to the submission queue.
package exam

import (
	"math"

	"github.com/maruf7705/80MCQ/internal/model"
)

// Marking scheme.
const (
	MarkPerQuestion = 1.0
	NegativeMarking = 0.25
	PassMark        = 60.0
)

// ScoreResult is the outcome of grading an answers map against a question set.
type ScoreResult struct {
	Score     float64
	Correct   int
	Wrong     int
	Attempted int
	Total     int
	Subjects  map[string]model.Subject
}

// Score grades answers: +1 per correct, −0.25 per wrong, unanswered ignored,
// total floored at 0. Per-subject counters feed the result charts.
func Score(questions []model.Question, answers map[string]string) ScoreResult {
	result := ScoreResult{
		Total:    len(questions),
		Subjects: make(map[string]model.Subject),
	}

	for _, q := range questions {
		subject := q.Subject
		if subject == "" {
			subject = "General"
		}
		stats := result.Subjects[subject]
		stats.Total++

		selected, ok := answers[q.ID]
		if !ok || selected == "" {
			result.Subjects[subject] = stats
			continue
		}

		stats.Attempted++
		if selected == q.CorrectOptionID {
			result.Correct++
			stats.Correct++
		} else {
			result.Wrong++
			stats.Wrong++
		}
		result.Subjects[subject] = stats
	}

	for subject, stats := range result.Subjects {
		if stats.Total > 0 {
			stats.Percentage = int(math.Round(float64(stats.Correct) / float64(stats.Total) * 100))
		}
		result.Subjects[subject] = stats
	}

	result.Attempted = result.Correct + result.Wrong
	result.Score = math.Max(float64(result.Correct)*MarkPerQuestion-float64(result.Wrong)*NegativeMarking, 0)
	return result
}

// Passed reports whether a score clears the pass mark.
func Passed(score float64) bool {
	return score >= PassMark
}
