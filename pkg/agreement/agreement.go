package agreement

import (
	"github.com/soundprediction/surveylens/pkg/types"
)

// DefaultConsensusThreshold is the number of labelers that must agree on a
// tag for it to count as consensus.
const DefaultConsensusThreshold = 3

// ComputeCrossLabelerAgreement builds one AgreementRecord per universe
// question. Consensus holds the tags chosen by at least threshold distinct
// labelers. Either every question is aggregated or an error is returned.
func ComputeCrossLabelerAgreement(sets *LabelerTagSets, threshold int) ([]types.AgreementRecord, error) {
	if threshold < 1 {
		return nil, types.InvalidArgument("consensus threshold must be at least 1, got %d", threshold)
	}
	joined, err := sets.collect()
	if err != nil {
		return nil, err
	}

	records := make([]types.AgreementRecord, len(joined))
	for i, qt := range joined {
		counts := labelerCounts(qt.sets)
		union := sortedKeys(counts)
		consensus := make([]string, 0, len(union))
		for _, tag := range union {
			if counts[tag] >= threshold {
				consensus = append(consensus, tag)
			}
		}

		records[i] = types.AgreementRecord{
			QID:                 qt.question.QID,
			Dataset:             qt.question.Dataset,
			Text:                qt.question.Text,
			MeanPairwiseJaccard: MeanPairwiseJaccard(qt.sets),
			UnionDimensions:     union,
			ConsensusDimensions: consensus,
		}
	}
	return records, nil
}

// ComputeConsensusSpectrum assigns every tag of every universe question to
// the bucket matching the exact number of labelers that chose it.
func ComputeConsensusSpectrum(sets *LabelerTagSets) ([]types.ConsensusBucketRecord, error) {
	joined, err := sets.collect()
	if err != nil {
		return nil, err
	}
	k := sets.Len()

	records := make([]types.ConsensusBucketRecord, len(joined))
	for i, qt := range joined {
		counts := labelerCounts(qt.sets)
		exact := make([][]string, k)
		for c := range exact {
			exact[c] = []string{}
		}
		// sortedKeys keeps every bucket in lexicographic order.
		for _, tag := range sortedKeys(counts) {
			exact[counts[tag]-1] = append(exact[counts[tag]-1], tag)
		}

		records[i] = types.ConsensusBucketRecord{
			QID:     qt.question.QID,
			Dataset: qt.question.Dataset,
			Text:    qt.question.Text,
			Exact:   exact,
		}
	}
	return records, nil
}
