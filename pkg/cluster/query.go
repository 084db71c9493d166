package cluster

import (
	"github.com/soundprediction/surveylens/pkg/types"
	"github.com/soundprediction/surveylens/pkg/utils"
)

// ClusterMembers is the ranked member list of one cluster.
type ClusterMembers struct {
	ClusterID int                    `json:"cluster_id"`
	Members   []types.ScoredQuestion `json:"members"`
}

// Representatives returns, for every non-empty cluster in id order, at most
// topN members ranked by cosine similarity to the centroid. Members with
// equal similarity keep their input order.
func Representatives(res *Result, topN int) ([]ClusterMembers, error) {
	if !res.Fitted() {
		return nil, types.ErrNotFitted
	}
	if topN <= 0 {
		return nil, types.InvalidArgument("top_n must be positive, got %d", topN)
	}

	byCluster := make([][]utils.ScoredItem[int], res.K)
	for i, q := range res.Questions {
		c := res.Assignments[i]
		byCluster[c] = append(byCluster[c], utils.ScoredItem[int]{
			Item:  i,
			Score: utils.CosineSimilarity(q.Embedding, res.Clusters[c].Centroid),
		})
	}

	var out []ClusterMembers
	for c, items := range byCluster {
		if len(items) == 0 {
			continue
		}
		top := utils.TopKByScore(items, topN)
		members := make([]types.ScoredQuestion, len(top))
		for j, item := range top {
			members[j] = scored(res, item.Item, item.Score)
		}
		out = append(out, ClusterMembers{ClusterID: c, Members: members})
	}
	return out, nil
}

// QuerySimilar ranks every question, the queried one included, by cosine
// similarity to the question at index and returns at most topK. The queried
// question comes first unless another question has an identical embedding
// and an earlier index.
func QuerySimilar(res *Result, index, topK int) ([]types.ScoredQuestion, error) {
	if !res.Fitted() {
		return nil, types.ErrNotFitted
	}
	if index < 0 || index >= len(res.Questions) {
		return nil, types.InvalidArgument("question index %d out of range [0,%d)", index, len(res.Questions))
	}
	if topK <= 0 {
		return nil, types.InvalidArgument("top_k must be positive, got %d", topK)
	}

	query := res.Questions[index].Embedding
	scores := make([]float64, len(res.Questions))
	for i, q := range res.Questions {
		scores[i] = utils.CosineSimilarity(query, q.Embedding)
	}

	indices := utils.TopKIndicesByScore(scores, topK)
	out := make([]types.ScoredQuestion, len(indices))
	for j, i := range indices {
		out[j] = scored(res, i, scores[i])
	}
	return out, nil
}

// Rows returns the joined cluster table in input order, with each
// question's similarity to its own centroid.
func Rows(res *Result) ([]types.ClusterRow, error) {
	if !res.Fitted() {
		return nil, types.ErrNotFitted
	}
	rows := make([]types.ClusterRow, len(res.Questions))
	for i, q := range res.Questions {
		c := res.Assignments[i]
		rows[i] = types.ClusterRow{
			QID:         q.QID,
			Dataset:     q.Dataset,
			Text:        q.Text,
			ClusterID:   c,
			SimToCenter: utils.CosineSimilarity(q.Embedding, res.Clusters[c].Centroid),
		}
	}
	return rows, nil
}

// ApplyClusterLabels names every question's cluster with labels[cluster_id].
// Labels beyond K are ignored.
func ApplyClusterLabels(res *Result, labels []string) ([]types.ClusterRow, error) {
	if !res.Fitted() {
		return nil, types.ErrNotFitted
	}
	if len(labels) < res.K {
		return nil, types.InvalidArgument("%d cluster labels for k=%d", len(labels), res.K)
	}
	rows, err := Rows(res)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].ClusterType = labels[rows[i].ClusterID]
	}
	return rows, nil
}

// RepresentativeRows flattens Representatives into table rows.
func RepresentativeRows(reps []ClusterMembers) []types.ClusterRow {
	var rows []types.ClusterRow
	for _, cm := range reps {
		for _, m := range cm.Members {
			rows = append(rows, types.ClusterRow{
				QID:         m.QID,
				Dataset:     m.Dataset,
				Text:        m.Text,
				ClusterID:   cm.ClusterID,
				SimToCenter: m.Similarity,
			})
		}
	}
	return rows
}

func scored(res *Result, i int, sim float64) types.ScoredQuestion {
	return types.ScoredQuestion{
		Question:   res.Questions[i].Question,
		ClusterID:  res.Assignments[i],
		Similarity: sim,
	}
}
