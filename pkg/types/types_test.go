package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionValidation(t *testing.T) {
	tests := []struct {
		name     string
		question Question
		wantErr  error
	}{
		{
			name:     "valid question",
			question: Question{QID: "q1", Dataset: "gss", Text: "How happy are you?"},
			wantErr:  nil,
		},
		{
			name:     "empty qid",
			question: Question{QID: "  ", Text: "How happy are you?"},
			wantErr:  ErrEmptyQID,
		},
		{
			name:     "empty text",
			question: Question{QID: "q1", Text: ""},
			wantErr:  ErrEmptyText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.question.Validate()
			if err != tt.wantErr {
				t.Errorf("Question.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConsensusBucketRecord(t *testing.T) {
	rec := ConsensusBucketRecord{
		QID:   "q1",
		Exact: [][]string{{"A", "C"}, {}, {"B"}},
	}

	assert.Equal(t, 3, rec.Labelers())
	assert.Equal(t, []string{"A", "C"}, rec.Bucket(1))
	assert.Empty(t, rec.Bucket(2))
	assert.Equal(t, []string{"B"}, rec.Bucket(3))
	assert.Nil(t, rec.Bucket(0))
	assert.Nil(t, rec.Bucket(4))
}

func TestErrorKinds(t *testing.T) {
	t.Run("missing question matches sentinel through wrapping", func(t *testing.T) {
		err := fmt.Errorf("aggregate: %w", NewMissingQuestionError("llama", "q7"))
		assert.True(t, errors.Is(err, ErrMissingQuestion))
		assert.False(t, errors.Is(err, ErrDuplicateKey))

		var mq *MissingQuestionError
		require.True(t, errors.As(err, &mq))
		assert.Equal(t, "llama", mq.Labeler)
		assert.Equal(t, "q7", mq.QID)
	})

	t.Run("duplicate key message", func(t *testing.T) {
		err := NewDuplicateKeyError("questions", "q1")
		assert.True(t, errors.Is(err, ErrDuplicateKey))
		assert.Contains(t, err.Error(), "q1")
		assert.Contains(t, err.Error(), "questions")
	})

	t.Run("invalid argument", func(t *testing.T) {
		err := InvalidArgument("k=%d exceeds %d questions", 5, 3)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
		assert.Contains(t, err.Error(), "k=5")
	})
}

func TestIndexQuestions(t *testing.T) {
	idx, err := IndexQuestions("questions", []Question{{QID: "a"}, {QID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, idx)

	_, err = IndexQuestions("questions", []Question{{QID: "a"}, {QID: "b"}, {QID: "a"}})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}
