package types

import (
	"errors"
	"fmt"
)

// Error kinds raised by the clustering and aggregation packages.
var (
	// ErrNotFitted indicates a query was made against a result that was never fitted.
	ErrNotFitted = errors.New("cluster model is not fitted")

	// ErrInvalidArgument indicates a bad k, a short label list or an empty input set.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingQuestion indicates a labeler has no tag set for a question in the universe.
	ErrMissingQuestion = errors.New("missing question")

	// ErrDuplicateKey indicates a qid collision during a join.
	ErrDuplicateKey = errors.New("duplicate key")
)

// InvalidArgument wraps ErrInvalidArgument with a formatted reason.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// MissingQuestionError reports the labeler and question that broke a join.
type MissingQuestionError struct {
	Labeler string
	QID     string
}

func (e *MissingQuestionError) Error() string {
	return fmt.Sprintf("labeler %q has no tags for question %q", e.Labeler, e.QID)
}

// Is implements errors.Is support for MissingQuestionError.
// Both ErrMissingQuestion and any *MissingQuestionError match.
func (e *MissingQuestionError) Is(target error) bool {
	if target == ErrMissingQuestion {
		return true
	}
	_, ok := target.(*MissingQuestionError)
	return ok
}

// NewMissingQuestionError creates a new missing question error
func NewMissingQuestionError(labeler, qid string) *MissingQuestionError {
	return &MissingQuestionError{Labeler: labeler, QID: qid}
}

// DuplicateKeyError reports a repeated key and the table it was found in.
type DuplicateKeyError struct {
	Table string
	Key   string
}

func (e *DuplicateKeyError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("duplicate key %q", e.Key)
	}
	return fmt.Sprintf("duplicate key %q in %s", e.Key, e.Table)
}

// Is implements errors.Is support for DuplicateKeyError.
func (e *DuplicateKeyError) Is(target error) bool {
	if target == ErrDuplicateKey {
		return true
	}
	_, ok := target.(*DuplicateKeyError)
	return ok
}

// NewDuplicateKeyError creates a new duplicate key error
func NewDuplicateKeyError(table, key string) *DuplicateKeyError {
	return &DuplicateKeyError{Table: table, Key: key}
}

// IndexQuestions builds a qid -> position index, failing on the first repeated qid.
func IndexQuestions(table string, questions []Question) (map[string]int, error) {
	index := make(map[string]int, len(questions))
	for i, q := range questions {
		if _, exists := index[q.QID]; exists {
			return nil, NewDuplicateKeyError(table, q.QID)
		}
		index[q.QID] = i
	}
	return index, nil
}
