package exam

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maruf7705/80MCQ/internal/model"
)

// buildQuestions creates n questions; the correct option is always "a".
func buildQuestions(n int, subject string) []model.Question {
	questions := make([]model.Question, n)
	for i := range questions {
		questions[i] = model.Question{
			ID:      fmt.Sprintf("q%d", i+1),
			Subject: subject,
			Options: []model.Option{
				{ID: "a", Text: "right"},
				{ID: "b", Text: "wrong"},
			},
			CorrectOptionID: "a",
		}
	}
	return questions
}

func answerSheet(questions []model.Question, correct, wrong int) map[string]string {
	answers := make(map[string]string)
	for i := 0; i < correct; i++ {
		answers[questions[i].ID] = "a"
	}
	for i := correct; i < correct+wrong; i++ {
		answers[questions[i].ID] = "b"
	}
	return answers
}

func TestScorePassingRun(t *testing.T) {
	questions := buildQuestions(80, "Physics")

	result := Score(questions, answerSheet(questions, 70, 10))

	assert.Equal(t, 70, result.Correct)
	assert.Equal(t, 10, result.Wrong)
	assert.Equal(t, 80, result.Attempted)
	assert.InDelta(t, 67.5, result.Score, 1e-9)
	assert.True(t, Passed(result.Score))
}

func TestScoreFailingRun(t *testing.T) {
	questions := buildQuestions(100, "")

	result := Score(questions, answerSheet(questions, 50, 50))

	assert.InDelta(t, 37.5, result.Score, 1e-9)
	assert.False(t, Passed(result.Score))
}

func TestScoreFlooredAtZero(t *testing.T) {
	questions := buildQuestions(10, "")

	result := Score(questions, answerSheet(questions, 1, 9))

	// 1 - 2.25 would be negative.
	assert.Zero(t, result.Score)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 9, result.Wrong)
}

func TestScoreUnansweredCarryNoPenalty(t *testing.T) {
	questions := buildQuestions(10, "")
	answers := answerSheet(questions, 3, 0)
	answers[questions[5].ID] = "" // empty selection counts as unanswered

	result := Score(questions, answers)

	assert.Equal(t, 3, result.Correct)
	assert.Zero(t, result.Wrong)
	assert.Equal(t, 3, result.Attempted)
	assert.InDelta(t, 3.0, result.Score, 1e-9)
}

func TestScoreExactPassBoundary(t *testing.T) {
	questions := buildQuestions(80, "")

	result := Score(questions, answerSheet(questions, 60, 0))

	assert.InDelta(t, 60.0, result.Score, 1e-9)
	assert.True(t, Passed(result.Score))
	assert.False(t, Passed(59.99))
}

func TestScoreSubjectBreakdown(t *testing.T) {
	physics := buildQuestions(4, "Physics")
	general := buildQuestions(2, "")
	// Distinct IDs across the combined set.
	for i := range general {
		general[i].ID = fmt.Sprintf("g%d", i+1)
	}
	questions := append(physics, general...)

	answers := map[string]string{
		"q1": "a", "q2": "a", "q3": "b", // physics: 2 correct, 1 wrong
		"g1": "a", // general: 1 correct
	}

	result := Score(questions, answers)

	phys := result.Subjects["Physics"]
	assert.Equal(t, 2, phys.Correct)
	assert.Equal(t, 1, phys.Wrong)
	assert.Equal(t, 3, phys.Attempted)
	assert.Equal(t, 4, phys.Total)
	assert.Equal(t, 50, phys.Percentage)

	gen := result.Subjects["General"]
	assert.Equal(t, 1, gen.Correct)
	assert.Equal(t, 2, gen.Total)
	assert.Equal(t, 50, gen.Percentage)
}
