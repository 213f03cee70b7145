package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maruf7705/80MCQ/internal/model"
)

func newAnswersStore() (*Answers, *memAdapter) {
	adapter := newMemAdapter()
	return NewAnswers(adapter, zerolog.Nop()), adapter
}

func sub(name, ts string) model.Submission {
	return model.Submission{StudentName: name, Timestamp: ts, Score: 42}
}

func TestAppendFirstSubmissionKeepsName(t *testing.T) {
	s, _ := newAnswersStore()
	ctx := context.Background()

	saved, renamed, err := s.Append(ctx, sub("Alice", "t1"))
	require.NoError(t, err)
	assert.Equal(t, "Alice", saved.StudentName)
	assert.False(t, renamed)
}

func TestAppendCollisionSuffixes(t *testing.T) {
	s, _ := newAnswersStore()
	ctx := context.Background()

	names := []string{}
	for i := 0; i < 4; i++ {
		saved, renamed, err := s.Append(ctx, sub("Alice", fmt.Sprintf("t%d", i)))
		require.NoError(t, err)
		names = append(names, saved.StudentName)
		assert.Equal(t, i > 0, renamed)
	}
	assert.Equal(t, []string{"Alice", "Alice_1", "Alice_2", "Alice_3"}, names)

	// Every record survived as its own row.
	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestAppendSkipsGapsToMaxSuffix(t *testing.T) {
	s, _ := newAnswersStore()
	ctx := context.Background()

	for _, name := range []string{"Alice", "Alice_5"} {
		_, _, err := s.Append(ctx, sub(name, "t"))
		require.NoError(t, err)
	}

	saved, renamed, err := s.Append(ctx, sub("Alice", "t"))
	require.NoError(t, err)
	assert.True(t, renamed)
	assert.Equal(t, "Alice_6", saved.StudentName)
}

func TestAppendSuffixedNameWithoutExactMatchIsVerbatim(t *testing.T) {
	s, _ := newAnswersStore()
	ctx := context.Background()

	_, _, err := s.Append(ctx, sub("Alice", "t"))
	require.NoError(t, err)

	// "Alice_2" has no exact collision even though it matches Alice's
	// suffix pattern.
	saved, renamed, err := s.Append(ctx, sub("Alice_2", "t"))
	require.NoError(t, err)
	assert.False(t, renamed)
	assert.Equal(t, "Alice_2", saved.StudentName)
}

func TestAppendRetriesOnConflict(t *testing.T) {
	s, adapter := newAnswersStore()
	ctx := context.Background()

	adapter.failWrites = 2
	saved, _, err := s.Append(ctx, sub("Bob", "t"))
	require.NoError(t, err)
	assert.Equal(t, "Bob", saved.StudentName)
	assert.Equal(t, 3, adapter.writes)
}

func TestAppendGivesUpAfterBoundedRetries(t *testing.T) {
	s, adapter := newAnswersStore()
	ctx := context.Background()

	adapter.failWrites = casAttempts
	_, _, err := s.Append(ctx, sub("Bob", "t"))
	assert.Error(t, err)
}

func TestDeleteOne(t *testing.T) {
	s, _ := newAnswersStore()
	ctx := context.Background()

	_, _, err := s.Append(ctx, sub("Alice", "t1"))
	require.NoError(t, err)
	_, _, err = s.Append(ctx, sub("Bob", "t2"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteOne(ctx, "Alice", "t1"))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bob", records[0].StudentName)
}

func TestDeleteOneNotFoundLeavesStoreUntouched(t *testing.T) {
	s, adapter := newAnswersStore()
	ctx := context.Background()

	_, _, err := s.Append(ctx, sub("Alice", "t1"))
	require.NoError(t, err)
	writesBefore := adapter.writes

	err = s.DeleteOne(ctx, "Alice", "wrong-ts")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, writesBefore, adapter.writes)
}

func TestDeleteStudentRemovesAllRecords(t *testing.T) {
	s, _ := newAnswersStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := s.Append(ctx, sub("Alice", fmt.Sprintf("t%d", i)))
		require.NoError(t, err)
	}
	_, _, err := s.Append(ctx, sub("Bob", "t"))
	require.NoError(t, err)

	// The suffixed clones count as different students.
	require.NoError(t, s.DeleteStudent(ctx, "Alice"))

	records, err := s.List(ctx)
	require.NoError(t, err)
	names := []string{}
	for _, r := range records {
		names = append(names, r.StudentName)
	}
	assert.ElementsMatch(t, []string{"Alice_1", "Alice_2", "Bob"}, names)

	err = s.DeleteStudent(ctx, "Nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMissingFileIsEmpty(t *testing.T) {
	s, _ := newAnswersStore()

	records, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}
