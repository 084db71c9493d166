package types

import (
	"errors"
	"strings"
)

// Validation errors
var (
	ErrEmptyQID  = errors.New("qid cannot be empty")
	ErrEmptyText = errors.New("text cannot be empty")
)

// Question is a single survey question. QID is the join key across every
// table produced by this module.
type Question struct {
	QID     string `json:"qid" parquet:"qid" mapstructure:"qid"`
	Dataset string `json:"dataset" parquet:"dataset" mapstructure:"dataset"`
	Text    string `json:"text" parquet:"text" mapstructure:"text"`
}

// Validate checks if the Question has all required fields set.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.QID) == "" {
		return ErrEmptyQID
	}
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyText
	}
	return nil
}

// EmbeddedQuestion pairs a question with its embedding.
// The embedding is never modified after it is computed.
type EmbeddedQuestion struct {
	Question
	Embedding []float32 `json:"embedding,omitempty"`
}

// Cluster is a fitted cluster. IDs run from 0 to k-1 and carry no meaning
// until they are labeled with a cluster type.
type Cluster struct {
	ID       int       `json:"id"`
	Centroid []float32 `json:"centroid"`
	Size     int       `json:"size"`
}

// ScoredQuestion is a question ranked by cosine similarity.
type ScoredQuestion struct {
	Question
	ClusterID  int     `json:"cluster_id"`
	Similarity float64 `json:"similarity"`
}

// ClusterRow is one row of the joined cluster table.
// ClusterType is empty until labels are applied.
type ClusterRow struct {
	QID         string  `json:"qid"`
	Dataset     string  `json:"dataset"`
	Text        string  `json:"text,omitempty"`
	ClusterID   int     `json:"cluster_id"`
	SimToCenter float64 `json:"sim_to_center"`
	ClusterType string  `json:"cluster_type,omitempty"`
}

// TagRow is one labeler's dimension tags for one question.
type TagRow struct {
	Question
	Dimensions []string `json:"dimensions"`
}

// AgreementRecord summarizes how far the labelers agree on one question.
type AgreementRecord struct {
	QID                 string   `json:"qid" parquet:"qid"`
	Dataset             string   `json:"dataset" parquet:"dataset"`
	Text                string   `json:"text" parquet:"text"`
	MeanPairwiseJaccard float64  `json:"mean_pairwise_jaccard" parquet:"mean_pairwise_jaccard"`
	UnionDimensions     []string `json:"union_dimensions" parquet:"union_dimensions,list"`
	ConsensusDimensions []string `json:"consensus_dimensions" parquet:"consensus_dimensions,list"`
}

// ConsensusBucketRecord partitions every tag seen for a question by the exact
// number of labelers that selected it. Exact[c-1] holds the tags chosen by
// exactly c labelers.
type ConsensusBucketRecord struct {
	QID     string     `json:"qid"`
	Dataset string     `json:"dataset"`
	Text    string     `json:"text"`
	Exact   [][]string `json:"exact"`
}

// Labelers returns K, the number of labelers the record was built from.
func (r *ConsensusBucketRecord) Labelers() int {
	return len(r.Exact)
}

// Bucket returns the tags selected by exactly count labelers.
// Counts outside [1, K] return nil.
func (r *ConsensusBucketRecord) Bucket(count int) []string {
	if count < 1 || count > len(r.Exact) {
		return nil
	}
	return r.Exact[count-1]
}
