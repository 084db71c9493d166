package dto

import (
	"github.com/soundprediction/surveylens/pkg/types"
)

// Result represents a generic API result
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// ClusterSummary describes one cluster of the persisted table.
type ClusterSummary struct {
	ClusterID   int    `json:"cluster_id"`
	ClusterType string `json:"cluster_type,omitempty"`
	Size        int    `json:"size"`
}

// ClustersResponse lists every cluster of the persisted table.
type ClustersResponse struct {
	Clusters  []ClusterSummary `json:"clusters"`
	Questions int              `json:"questions"`
}

// ClusterMembersResponse lists the rows of one cluster.
type ClusterMembersResponse struct {
	ClusterID int                `json:"cluster_id"`
	Members   []types.ClusterRow `json:"members"`
}

// AgreementResponse lists agreement records, optionally filtered.
type AgreementResponse struct {
	Records       []types.AgreementRecord `json:"records"`
	Total         int                     `json:"total"`
	MeanAgreement float64                 `json:"mean_agreement"`
}

// SpectrumEntry is one question's buckets keyed by column name
// (exact_{c}of{K}).
type SpectrumEntry struct {
	QID     string              `json:"qid"`
	Dataset string              `json:"dataset"`
	Text    string              `json:"text"`
	Buckets map[string][]string `json:"buckets"`
}
