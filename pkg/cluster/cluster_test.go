package cluster

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/soundprediction/surveylens/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapEncoder returns a fixed vector per text.
type mapEncoder struct {
	vectors map[string][]float32
	calls   int
	err     error
}

func (m *mapEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := m.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", text)
		}
		out[i] = v
	}
	return out, nil
}

func fourPoints() ([]types.Question, *mapEncoder) {
	questions := []types.Question{
		{QID: "q1", Dataset: "d1", Text: "east"},
		{QID: "q2", Dataset: "d1", Text: "east-ish"},
		{QID: "q3", Dataset: "d2", Text: "north"},
		{QID: "q4", Dataset: "d2", Text: "north-ish"},
	}
	enc := &mapEncoder{vectors: map[string][]float32{
		"east":      {1, 0},
		"east-ish":  {0.99, 0.1},
		"north":     {0, 1},
		"north-ish": {-0.1, 0.99},
	}}
	return questions, enc
}

func randomQuestions(n, dim int, seed int64) ([]types.Question, *mapEncoder) {
	rng := rand.New(rand.NewSource(seed))
	questions := make([]types.Question, n)
	enc := &mapEncoder{vectors: make(map[string][]float32, n)}
	for i := range questions {
		text := fmt.Sprintf("question %d", i)
		questions[i] = types.Question{QID: fmt.Sprintf("q%03d", i), Dataset: "d", Text: text}
		v := make([]float32, dim)
		for d := range v {
			v[d] = float32(rng.NormFloat64())
		}
		enc.vectors[text] = v
	}
	return questions, enc
}

func TestFitSeparatesPairs(t *testing.T) {
	questions, enc := fourPoints()

	res, err := Fit(context.Background(), questions, enc, Options{K: 2, Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, 1, enc.calls, "questions are embedded once")
	require.Len(t, res.Assignments, 4)
	assert.Equal(t, res.Assignments[0], res.Assignments[1])
	assert.Equal(t, res.Assignments[2], res.Assignments[3])
	assert.NotEqual(t, res.Assignments[0], res.Assignments[2])
	assert.Equal(t, []int{2, 2}, res.Sizes())

	again, err := Fit(context.Background(), questions, enc, Options{K: 2, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, res.Assignments, again.Assignments)
	assert.Equal(t, res.Clusters, again.Clusters)
	assert.Equal(t, res.Inertia, again.Inertia)
}

func TestFitInvariants(t *testing.T) {
	questions, enc := randomQuestions(60, 5, 7)

	for _, k := range []int{1, 3, 7, 60} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			res, err := Fit(context.Background(), questions, enc, Options{K: k, Seed: 1, Restarts: 3})
			require.NoError(t, err)

			assert.Len(t, res.Assignments, len(questions))
			assert.Len(t, res.Clusters, k)
			total := 0
			for _, c := range res.Assignments {
				assert.GreaterOrEqual(t, c, 0)
				assert.Less(t, c, k)
			}
			for id, c := range res.Clusters {
				assert.Equal(t, id, c.ID)
				total += c.Size
			}
			assert.Equal(t, len(questions), total)
			assert.GreaterOrEqual(t, res.Inertia, 0.0)
		})
	}
}

func TestFitParallelMatchesSequential(t *testing.T) {
	questions, enc := randomQuestions(40, 4, 11)

	seq, err := Fit(context.Background(), questions, enc, Options{K: 4, Seed: 3, Restarts: 8})
	require.NoError(t, err)
	par, err := Fit(context.Background(), questions, enc, Options{K: 4, Seed: 3, Restarts: 8, Parallelism: 4})
	require.NoError(t, err)

	assert.Equal(t, seq.Assignments, par.Assignments)
	assert.Equal(t, seq.Restart, par.Restart)
	assert.Equal(t, seq.Inertia, par.Inertia)
}

func TestFitErrors(t *testing.T) {
	questions, enc := fourPoints()

	tests := []struct {
		name      string
		questions []types.Question
		encoder   *mapEncoder
		k         int
		target    error
	}{
		{"empty input", nil, enc, 1, types.ErrInvalidArgument},
		{"zero k", questions, enc, 0, types.ErrInvalidArgument},
		{"negative k", questions, enc, -2, types.ErrInvalidArgument},
		{"k above n", questions, enc, 5, types.ErrInvalidArgument},
		{"duplicate qid", append(append([]types.Question{}, questions...), questions[0]), enc, 2, types.ErrDuplicateKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(context.Background(), tt.questions, tt.encoder, Options{K: tt.k, Seed: 1})
			assert.ErrorIs(t, err, tt.target)
		})
	}

	t.Run("encoder failure", func(t *testing.T) {
		boom := errors.New("provider down")
		_, err := Fit(context.Background(), questions, &mapEncoder{err: boom}, Options{K: 2})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("mismatched dimensions", func(t *testing.T) {
		bad := &mapEncoder{vectors: map[string][]float32{
			"east": {1, 0}, "east-ish": {1, 0, 0}, "north": {0, 1}, "north-ish": {0, 1},
		}}
		_, err := Fit(context.Background(), questions, bad, Options{K: 2})
		assert.ErrorContains(t, err, "dimension")
	})
}

func TestFitDegenerateClusters(t *testing.T) {
	questions := []types.Question{
		{QID: "a", Text: "same"},
		{QID: "b", Text: "same"},
		{QID: "c", Text: "same"},
	}
	enc := &mapEncoder{vectors: map[string][]float32{"same": {0.6, 0.8}}}

	res, err := Fit(context.Background(), questions, enc, Options{K: 2, Seed: 5})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0}, res.Sizes())

	reps, err := Representatives(res, 10)
	require.NoError(t, err)
	require.Len(t, reps, 1, "empty clusters yield no entry")
	assert.Equal(t, 0, reps[0].ClusterID)
	assert.Equal(t, []string{"a", "b", "c"}, qids(reps[0].Members), "ties keep input order")
}

func TestRepresentatives(t *testing.T) {
	questions, enc := randomQuestions(50, 3, 21)
	res, err := Fit(context.Background(), questions, enc, Options{K: 5, Seed: 9})
	require.NoError(t, err)

	for _, topN := range []int{1, 3, 100} {
		reps, err := Representatives(res, topN)
		require.NoError(t, err)

		prevID := -1
		for _, cm := range reps {
			assert.Greater(t, cm.ClusterID, prevID, "clusters in id order")
			prevID = cm.ClusterID
			assert.LessOrEqual(t, len(cm.Members), topN)
			assert.LessOrEqual(t, len(cm.Members), res.Clusters[cm.ClusterID].Size)
			for j, m := range cm.Members {
				assert.Equal(t, cm.ClusterID, m.ClusterID)
				if j > 0 {
					assert.GreaterOrEqual(t, cm.Members[j-1].Similarity, m.Similarity)
				}
			}
		}
	}

	_, err = Representatives(res, 0)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestQuerySimilar(t *testing.T) {
	questions, enc := fourPoints()
	res, err := Fit(context.Background(), questions, enc, Options{K: 2, Seed: 42})
	require.NoError(t, err)

	for i := range questions {
		got, err := QuerySimilar(res, i, 4)
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, questions[i].QID, got[0].QID, "self ranks first")
		assert.InDelta(t, 1.0, got[0].Similarity, 1e-9)
		for j := 1; j < len(got); j++ {
			assert.GreaterOrEqual(t, got[j-1].Similarity, got[j].Similarity)
		}
	}

	got, err := QuerySimilar(res, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2"}, qids(got))

	t.Run("identical embeddings tie in input order", func(t *testing.T) {
		dup := []types.Question{{QID: "x", Text: "one"}, {QID: "y", Text: "one"}, {QID: "z", Text: "other"}}
		dupEnc := &mapEncoder{vectors: map[string][]float32{"one": {1, 0}, "other": {0, 1}}}
		dres, err := Fit(context.Background(), dup, dupEnc, Options{K: 2, Seed: 1})
		require.NoError(t, err)

		got, err := QuerySimilar(dres, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "z"}, qids(got))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := QuerySimilar(nil, 0, 1)
		assert.ErrorIs(t, err, types.ErrNotFitted)
		_, err = QuerySimilar(&Result{}, 0, 1)
		assert.ErrorIs(t, err, types.ErrNotFitted)
		_, err = QuerySimilar(res, 4, 1)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		_, err = QuerySimilar(res, -1, 1)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		_, err = QuerySimilar(res, 0, 0)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})
}

func TestNotFitted(t *testing.T) {
	_, err := Representatives(nil, 3)
	assert.ErrorIs(t, err, types.ErrNotFitted)
	_, err = Rows(nil)
	assert.ErrorIs(t, err, types.ErrNotFitted)
	_, err = ApplyClusterLabels(nil, []string{"a"})
	assert.ErrorIs(t, err, types.ErrNotFitted)
}

func TestApplyClusterLabels(t *testing.T) {
	questions, enc := fourPoints()
	res, err := Fit(context.Background(), questions, enc, Options{K: 2, Seed: 42})
	require.NoError(t, err)

	labels := []string{"type-0", "type-1", "unused"}
	rows, err := ApplyClusterLabels(res, labels)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i, row := range rows {
		assert.Equal(t, questions[i].QID, row.QID)
		assert.Equal(t, labels[res.Assignments[i]], row.ClusterType)
	}
	assert.Equal(t, rows[0].ClusterType, rows[1].ClusterType)
	assert.NotEqual(t, rows[0].ClusterType, rows[2].ClusterType)

	_, err = ApplyClusterLabels(res, []string{"only-one"})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestRepresentativeRows(t *testing.T) {
	questions, enc := fourPoints()
	res, err := Fit(context.Background(), questions, enc, Options{K: 2, Seed: 42})
	require.NoError(t, err)

	reps, err := Representatives(res, 1)
	require.NoError(t, err)
	rows := RepresentativeRows(reps)
	require.Len(t, rows, 2)
	for i, row := range rows {
		assert.Equal(t, reps[i].ClusterID, row.ClusterID)
		assert.Equal(t, reps[i].Members[0].QID, row.QID)
		assert.Greater(t, row.SimToCenter, 0.9)
	}
}

func qids(items []types.ScoredQuestion) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.QID
	}
	return out
}
