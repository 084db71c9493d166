package tableio

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/soundprediction/surveylens/pkg/types"
)

// ClusterSchema selects the columns of a cluster table.
type ClusterSchema int

const (
	// SchemaRepresentatives is qid,dataset,text,cluster_id,sim_to_center.
	SchemaRepresentatives ClusterSchema = iota
	// SchemaLabeled is qid,dataset,cluster_id,cluster_type.
	SchemaLabeled
	// SchemaFull carries every column.
	SchemaFull
)

var clusterHeaders = map[ClusterSchema][]string{
	SchemaRepresentatives: {"qid", "dataset", "text", "cluster_id", "sim_to_center"},
	SchemaLabeled:         {"qid", "dataset", "cluster_id", "cluster_type"},
	SchemaFull:            {"qid", "dataset", "text", "cluster_id", "sim_to_center", "cluster_type"},
}

func (s ClusterSchema) String() string {
	switch s {
	case SchemaRepresentatives:
		return "representatives"
	case SchemaLabeled:
		return "labeled"
	case SchemaFull:
		return "full"
	}
	return "unknown"
}

// Header returns the column names of s.
func (s ClusterSchema) Header() []string {
	return slices.Clone(clusterHeaders[s])
}

// SortClusterRows returns a copy of rows ordered by (cluster_id, dataset, qid).
func SortClusterRows(rows []types.ClusterRow) []types.ClusterRow {
	out := slices.Clone(rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ClusterID != b.ClusterID {
			return a.ClusterID < b.ClusterID
		}
		if a.Dataset != b.Dataset {
			return a.Dataset < b.Dataset
		}
		return a.QID < b.QID
	})
	return out
}

// Persist writes the joined cluster table to path and returns the path.
// Rows that all carry a cluster type are written with the labeled schema,
// otherwise with the representatives schema.
func Persist(path string, rows []types.ClusterRow) (string, error) {
	schema := SchemaLabeled
	if len(rows) == 0 {
		schema = SchemaRepresentatives
	}
	for _, row := range rows {
		if row.ClusterType == "" {
			schema = SchemaRepresentatives
			break
		}
	}
	if err := WriteClusterTable(path, rows, schema); err != nil {
		return "", err
	}
	return path, nil
}

// WriteClusterTable writes rows sorted by (cluster_id, dataset, qid).
// Identical rows always produce identical bytes. Text must use LF line
// breaks to read back unchanged; LoadQuestions already normalizes CRLF.
func WriteClusterTable(path string, rows []types.ClusterRow, schema ClusterSchema) error {
	header, ok := clusterHeaders[schema]
	if !ok {
		return types.InvalidArgument("unknown cluster schema %d", schema)
	}

	sorted := SortClusterRows(rows)
	records := make([][]string, len(sorted))
	for i, row := range sorted {
		rec := make([]string, len(header))
		for j, col := range header {
			switch col {
			case "qid":
				rec[j] = row.QID
			case "dataset":
				rec[j] = row.Dataset
			case "text":
				rec[j] = row.Text
			case "cluster_id":
				rec[j] = strconv.Itoa(row.ClusterID)
			case "sim_to_center":
				rec[j] = strconv.FormatFloat(row.SimToCenter, 'f', -1, 64)
			case "cluster_type":
				rec[j] = row.ClusterType
			}
		}
		records[i] = rec
	}
	return writeCSV(path, header, records)
}

// ReadClusterTable reads a table written by WriteClusterTable and reports
// which schema its header matches. Row order is preserved.
func ReadClusterTable(path string) ([]types.ClusterRow, ClusterSchema, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, 0, err
	}

	schema := ClusterSchema(-1)
	got := make([]string, len(t.header))
	for i, h := range t.header {
		got[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for s, header := range clusterHeaders {
		if slices.Equal(got, header) {
			schema = s
		}
	}
	if schema < 0 {
		return nil, 0, fmt.Errorf("%s: unrecognized cluster table header %v", path, t.header)
	}

	rows := make([]types.ClusterRow, len(t.records))
	for i, rec := range t.records {
		id, err := strconv.Atoi(t.get(rec, "cluster_id"))
		if err != nil {
			return nil, 0, fmt.Errorf("%s row %d: bad cluster_id: %w", path, i+1, err)
		}
		row := types.ClusterRow{
			QID:         t.get(rec, "qid"),
			Dataset:     t.get(rec, "dataset"),
			Text:        t.get(rec, "text"),
			ClusterID:   id,
			ClusterType: t.get(rec, "cluster_type"),
		}
		if t.has("sim_to_center") {
			row.SimToCenter, err = strconv.ParseFloat(t.get(rec, "sim_to_center"), 64)
			if err != nil {
				return nil, 0, fmt.Errorf("%s row %d: bad sim_to_center: %w", path, i+1, err)
			}
		}
		rows[i] = row
	}
	return rows, schema, nil
}
