package agreement

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/soundprediction/surveylens/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(qid string, tags ...string) types.TagRow {
	return types.TagRow{
		Question:   types.Question{QID: qid, Dataset: "ds", Text: "text " + qid},
		Dimensions: tags,
	}
}

func threeLabelers(t *testing.T) *LabelerTagSets {
	t.Helper()
	sets := NewLabelerTagSets()
	require.NoError(t, sets.Add("m1", []types.TagRow{row("q1", "A", "B")}))
	require.NoError(t, sets.Add("m2", []types.TagRow{row("q1", "B", "C")}))
	require.NoError(t, sets.Add("m3", []types.TagRow{row("q1", "B")}))
	return sets
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"both empty", nil, []string{}, 1.0},
		{"one empty", nil, []string{"A"}, 0.0},
		{"identical", []string{"A", "B"}, []string{"B", "A"}, 1.0},
		{"disjoint", []string{"A"}, []string{"B"}, 0.0},
		{"one third", []string{"A", "B"}, []string{"B", "C"}, 1.0 / 3.0},
		{"duplicates ignored", []string{"A", "A", "B"}, []string{"B"}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Jaccard(tt.a, tt.b), 1e-12)
			assert.InDelta(t, tt.want, Jaccard(tt.b, tt.a), 1e-12, "symmetric")
		})
	}
}

func TestJaccardProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	alphabet := []string{"A", "B", "C", "D", "E"}
	randomSet := func() []string {
		var out []string
		for _, tag := range alphabet {
			if rng.Intn(2) == 0 {
				out = append(out, tag)
			}
		}
		return out
	}

	for i := 0; i < 200; i++ {
		a, b := randomSet(), randomSet()
		j := Jaccard(a, b)
		assert.GreaterOrEqual(t, j, 0.0)
		assert.LessOrEqual(t, j, 1.0)
		assert.Equal(t, j, Jaccard(b, a))
		if len(a) > 0 {
			assert.Equal(t, 1.0, Jaccard(a, a))
		}
	}
}

func TestMeanPairwiseJaccard(t *testing.T) {
	assert.Equal(t, 1.0, MeanPairwiseJaccard(nil))
	assert.Equal(t, 1.0, MeanPairwiseJaccard([][]string{{"A"}}))
	assert.InDelta(t, 4.0/9.0, MeanPairwiseJaccard([][]string{{"A", "B"}, {"B", "C"}, {"B"}}), 1e-12)
}

func TestThreeLabelerScenario(t *testing.T) {
	sets := threeLabelers(t)

	records, err := ComputeCrossLabelerAgreement(sets, 3)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "q1", rec.QID)
	assert.Equal(t, "ds", rec.Dataset)
	assert.InDelta(t, 0.4444, rec.MeanPairwiseJaccard, 1e-4)
	assert.Equal(t, []string{"A", "B", "C"}, rec.UnionDimensions)
	assert.Equal(t, []string{"B"}, rec.ConsensusDimensions)

	spectrum, err := ComputeConsensusSpectrum(sets)
	require.NoError(t, err)
	require.Len(t, spectrum, 1)
	assert.Equal(t, 3, spectrum[0].Labelers())
	assert.Equal(t, []string{"B"}, spectrum[0].Bucket(3))
	assert.Empty(t, spectrum[0].Bucket(2))
	assert.Equal(t, []string{"A", "C"}, spectrum[0].Bucket(1))

	assert.NoError(t, CrossValidate(records, spectrum, 3))
}

func TestConsensusThreshold(t *testing.T) {
	sets := threeLabelers(t)

	tests := []struct {
		threshold int
		want      []string
	}{
		{1, []string{"A", "B", "C"}},
		{2, []string{"B"}},
		{4, []string{}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("threshold=%d", tt.threshold), func(t *testing.T) {
			records, err := ComputeCrossLabelerAgreement(sets, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, records[0].ConsensusDimensions)
		})
	}

	_, err := ComputeCrossLabelerAgreement(sets, 0)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestDuplicateTagsCountOncePerLabeler(t *testing.T) {
	sets := NewLabelerTagSets()
	require.NoError(t, sets.Add("m1", []types.TagRow{row("q1", "A", "A", "A")}))
	require.NoError(t, sets.Add("m2", []types.TagRow{row("q1", "B")}))
	require.NoError(t, sets.Add("m3", []types.TagRow{row("q1", "B")}))

	records, err := ComputeCrossLabelerAgreement(sets, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, records[0].ConsensusDimensions, "repeated A from one labeler is not consensus")

	spectrum, err := ComputeConsensusSpectrum(sets)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, spectrum[0].Bucket(1))
	assert.Equal(t, []string{"B"}, spectrum[0].Bucket(2))
}

func TestSingleLabeler(t *testing.T) {
	sets := NewLabelerTagSets()
	require.NoError(t, sets.Add("only", []types.TagRow{row("q1", "X"), row("q2")}))

	records, err := ComputeCrossLabelerAgreement(sets, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1.0, records[0].MeanPairwiseJaccard)
	assert.Equal(t, 1.0, records[1].MeanPairwiseJaccard)
	assert.Empty(t, records[1].UnionDimensions)

	spectrum, err := ComputeConsensusSpectrum(sets)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"X"}}, spectrum[0].Exact)
	assert.Equal(t, [][]string{{}}, spectrum[1].Exact)
}

func TestUniverseOrderAndJoinByQID(t *testing.T) {
	sets := NewLabelerTagSets()
	require.NoError(t, sets.Add("m1", []types.TagRow{row("q2", "A"), row("q1", "B")}))
	// Different row order and an extra question outside the universe.
	require.NoError(t, sets.Add("m2", []types.TagRow{row("q1", "B"), row("q9", "Z"), row("q2", "A")}))

	records, err := ComputeCrossLabelerAgreement(sets, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q2", records[0].QID)
	assert.Equal(t, "q1", records[1].QID)
	assert.Equal(t, 1.0, records[0].MeanPairwiseJaccard)
	assert.Equal(t, []string{"B"}, records[1].ConsensusDimensions)
}

func TestMissingQuestion(t *testing.T) {
	sets := NewLabelerTagSets()
	require.NoError(t, sets.Add("m1", []types.TagRow{row("q1", "A"), row("q2", "B")}))
	require.NoError(t, sets.Add("m2", []types.TagRow{row("q1", "A")}))

	_, err := ComputeCrossLabelerAgreement(sets, 1)
	require.ErrorIs(t, err, types.ErrMissingQuestion)
	var missing *types.MissingQuestionError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "m2", missing.Labeler)
	assert.Equal(t, "q2", missing.QID)

	_, err = ComputeConsensusSpectrum(sets)
	assert.ErrorIs(t, err, types.ErrMissingQuestion)
}

func TestAddErrors(t *testing.T) {
	sets := NewLabelerTagSets()
	err := sets.Add("m1", []types.TagRow{row("q1", "A"), row("q1", "B")})
	assert.ErrorIs(t, err, types.ErrDuplicateKey)
	assert.Equal(t, 0, sets.Len(), "failed add leaves no table behind")

	require.NoError(t, sets.Add("m1", []types.TagRow{row("q1", "A")}))
	assert.ErrorIs(t, sets.Add("m1", nil), types.ErrDuplicateKey)
	assert.ErrorIs(t, sets.Add(" ", nil), types.ErrInvalidArgument)
	assert.Equal(t, []string{"m1"}, sets.Labelers())
}

func TestEmptySets(t *testing.T) {
	_, err := ComputeCrossLabelerAgreement(NewLabelerTagSets(), 1)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = ComputeConsensusSpectrum(nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestSpectrumPartitionsUnion(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []string{"Affective", "Behavioral", "Cognitive", "Social", "Temporal", "Evaluative"}
	labelers := []string{"gpt", "claude", "gemini", "llama"}

	sets := NewLabelerTagSets()
	for _, labeler := range labelers {
		rows := make([]types.TagRow, 30)
		for q := range rows {
			var tags []string
			for _, tag := range alphabet {
				if rng.Intn(3) == 0 {
					tags = append(tags, tag)
				}
			}
			if rng.Intn(5) == 0 && len(tags) > 0 {
				tags = append(tags, tags[0])
			}
			rows[q] = row(fmt.Sprintf("q%02d", q), tags...)
		}
		require.NoError(t, sets.Add(labeler, rows))
	}

	for threshold := 1; threshold <= len(labelers)+1; threshold++ {
		records, err := ComputeCrossLabelerAgreement(sets, threshold)
		require.NoError(t, err)
		spectrum, err := ComputeConsensusSpectrum(sets)
		require.NoError(t, err)
		require.NoError(t, CrossValidate(records, spectrum, threshold))

		for i, rec := range records {
			union := toSet(rec.UnionDimensions)
			for _, tag := range rec.ConsensusDimensions {
				assert.Contains(t, union, tag)
			}
			var all []string
			for _, bucket := range spectrum[i].Exact {
				assert.IsNonDecreasing(t, bucket)
				all = append(all, bucket...)
			}
			assert.ElementsMatch(t, rec.UnionDimensions, all)
		}
	}
}

func TestCrossValidateDetectsMismatch(t *testing.T) {
	sets := threeLabelers(t)
	records, err := ComputeCrossLabelerAgreement(sets, 3)
	require.NoError(t, err)
	spectrum, err := ComputeConsensusSpectrum(sets)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(r []types.AgreementRecord, s []types.ConsensusBucketRecord) ([]types.AgreementRecord, []types.ConsensusBucketRecord)
	}{
		{"row count", func(r []types.AgreementRecord, s []types.ConsensusBucketRecord) ([]types.AgreementRecord, []types.ConsensusBucketRecord) {
			return r, nil
		}},
		{"qid", func(r []types.AgreementRecord, s []types.ConsensusBucketRecord) ([]types.AgreementRecord, []types.ConsensusBucketRecord) {
			s[0].QID = "other"
			return r, s
		}},
		{"overlapping buckets", func(r []types.AgreementRecord, s []types.ConsensusBucketRecord) ([]types.AgreementRecord, []types.ConsensusBucketRecord) {
			s[0].Exact = [][]string{{"A", "B", "C"}, {}, {"B"}}
			return r, s
		}},
		{"missing union tag", func(r []types.AgreementRecord, s []types.ConsensusBucketRecord) ([]types.AgreementRecord, []types.ConsensusBucketRecord) {
			r[0].UnionDimensions = []string{"A", "B", "D"}
			return r, s
		}},
		{"consensus outside union", func(r []types.AgreementRecord, s []types.ConsensusBucketRecord) ([]types.AgreementRecord, []types.ConsensusBucketRecord) {
			r[0].ConsensusDimensions = []string{"Z"}
			return r, s
		}},
		{"consensus vs buckets", func(r []types.AgreementRecord, s []types.ConsensusBucketRecord) ([]types.AgreementRecord, []types.ConsensusBucketRecord) {
			r[0].ConsensusDimensions = []string{"A", "B"}
			return r, s
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := cloneRecords(records)
			s := cloneBuckets(spectrum)
			r, s = tt.mutate(r, s)
			assert.ErrorIs(t, CrossValidate(r, s, 3), ErrInconsistent)
		})
	}
}

func cloneRecords(in []types.AgreementRecord) []types.AgreementRecord {
	out := make([]types.AgreementRecord, len(in))
	for i, r := range in {
		r.UnionDimensions = append([]string(nil), r.UnionDimensions...)
		r.ConsensusDimensions = append([]string(nil), r.ConsensusDimensions...)
		out[i] = r
	}
	return out
}

func cloneBuckets(in []types.ConsensusBucketRecord) []types.ConsensusBucketRecord {
	out := make([]types.ConsensusBucketRecord, len(in))
	for i, b := range in {
		exact := make([][]string, len(b.Exact))
		for c, bucket := range b.Exact {
			exact[c] = append([]string(nil), bucket...)
		}
		b.Exact = exact
		out[i] = b
	}
	return out
}
