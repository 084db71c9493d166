package surveylens

import (
	"context"

	"github.com/soundprediction/surveylens/pkg/agreement"
	"github.com/soundprediction/surveylens/pkg/cluster"
	"github.com/soundprediction/surveylens/pkg/types"
)

// Consumers should depend on the smallest interface that meets their needs.

// Clusterer groups questions and queries a fitted partition.
type Clusterer interface {
	// Cluster embeds and partitions questions, optionally writing result tables.
	Cluster(ctx context.Context, questions []types.Question, opts *ClusterOptions) (*ClusterReport, error)

	// Similar returns the topK questions closest to the question at index.
	Similar(res *cluster.Result, index, topK int) ([]types.ScoredQuestion, error)
}

// AgreementAnalyzer aggregates labeler tag sets.
type AgreementAnalyzer interface {
	// Agreement computes, cross-validates and optionally writes the
	// agreement and spectrum tables.
	Agreement(ctx context.Context, sets *agreement.LabelerTagSets, write bool) (*AgreementReport, error)
}

var _ interface {
	Clusterer
	AgreementAnalyzer
} = (*Client)(nil)
