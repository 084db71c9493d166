package agreement

import (
	"errors"
	"fmt"
	"slices"

	"github.com/soundprediction/surveylens/pkg/types"
)

// ErrInconsistent indicates the agreement and spectrum tables disagree.
var ErrInconsistent = errors.New("agreement and spectrum tables are inconsistent")

// InconsistencyError describes the first question that fails cross-validation.
type InconsistencyError struct {
	QID    string
	Reason string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("question %q: %s", e.QID, e.Reason)
}

// Is implements errors.Is support for InconsistencyError.
func (e *InconsistencyError) Is(target error) bool {
	return target == ErrInconsistent
}

// CrossValidate checks, question by question, that the spectrum buckets are
// pairwise disjoint and partition the union, and that consensus equals the
// buckets with c >= threshold. A threshold below 1 only checks that
// consensus is a subset of the union.
func CrossValidate(records []types.AgreementRecord, buckets []types.ConsensusBucketRecord, threshold int) error {
	if len(records) != len(buckets) {
		return fmt.Errorf("%w: %d agreement rows vs %d spectrum rows", ErrInconsistent, len(records), len(buckets))
	}

	for i, rec := range records {
		b := buckets[i]
		if rec.QID != b.QID {
			return &InconsistencyError{QID: rec.QID, Reason: fmt.Sprintf("row %d pairs with spectrum question %q", i, b.QID)}
		}

		seen := make(map[string]int)
		for c, bucket := range b.Exact {
			for _, tag := range bucket {
				if prev, dup := seen[tag]; dup {
					return &InconsistencyError{QID: rec.QID, Reason: fmt.Sprintf("tag %q in exact_%d and exact_%d", tag, prev, c+1)}
				}
				seen[tag] = c + 1
			}
		}

		union := toSet(rec.UnionDimensions)
		if len(union) != len(seen) {
			return &InconsistencyError{QID: rec.QID, Reason: fmt.Sprintf("buckets hold %d tags, union has %d", len(seen), len(union))}
		}
		for tag := range seen {
			if _, ok := union[tag]; !ok {
				return &InconsistencyError{QID: rec.QID, Reason: fmt.Sprintf("bucketed tag %q missing from union", tag)}
			}
		}

		var expected []string
		for _, tag := range rec.ConsensusDimensions {
			if _, ok := union[tag]; !ok {
				return &InconsistencyError{QID: rec.QID, Reason: fmt.Sprintf("consensus tag %q missing from union", tag)}
			}
		}
		if threshold < 1 {
			continue
		}
		for c := threshold; c <= len(b.Exact); c++ {
			expected = append(expected, b.Bucket(c)...)
		}
		got := slices.Clone(rec.ConsensusDimensions)
		slices.Sort(got)
		slices.Sort(expected)
		if !slices.Equal(got, expected) {
			return &InconsistencyError{QID: rec.QID, Reason: fmt.Sprintf("consensus %v, buckets >= %d give %v", got, threshold, expected)}
		}
	}
	return nil
}
