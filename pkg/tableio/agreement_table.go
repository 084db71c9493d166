package tableio

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/surveylens/pkg/types"
)

var agreementHeader = []string{"qid", "dataset", "text", "mean_pairwise_jaccard", "union_dimensions", "consensus_dimensions"}

// WriteAgreementTable writes agreement records as CSV, or as parquet when
// path ends in .parquet. Set-valued columns are JSON arrays in CSV.
func WriteAgreementTable(path string, records []types.AgreementRecord) error {
	if FormatFromPath(path) == FormatParquet {
		if err := ensureParent(path); err != nil {
			return err
		}
		return parquet.WriteFile(path, records)
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.QID,
			r.Dataset,
			r.Text,
			strconv.FormatFloat(r.MeanPairwiseJaccard, 'f', -1, 64),
			JoinTagList(r.UnionDimensions),
			JoinTagList(r.ConsensusDimensions),
		}
	}
	return writeCSV(path, agreementHeader, rows)
}

// ReadAgreementTable reads a table written by WriteAgreementTable.
func ReadAgreementTable(path string) ([]types.AgreementRecord, error) {
	if FormatFromPath(path) == FormatParquet {
		return parquet.ReadFile[types.AgreementRecord](path)
	}

	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(path, agreementHeader...); err != nil {
		return nil, err
	}
	out := make([]types.AgreementRecord, len(t.records))
	for i, rec := range t.records {
		mean, err := strconv.ParseFloat(t.get(rec, "mean_pairwise_jaccard"), 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad mean_pairwise_jaccard: %w", path, i+1, err)
		}
		union, err := ParseTagList(t.get(rec, "union_dimensions"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		consensus, err := ParseTagList(t.get(rec, "consensus_dimensions"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		out[i] = types.AgreementRecord{
			QID:                 t.get(rec, "qid"),
			Dataset:             t.get(rec, "dataset"),
			Text:                t.get(rec, "text"),
			MeanPairwiseJaccard: mean,
			UnionDimensions:     union,
			ConsensusDimensions: consensus,
		}
	}
	return out, nil
}

// spectrumRow is the parquet layout of a ConsensusBucketRecord.
type spectrumRow struct {
	QID      string           `parquet:"qid"`
	Dataset  string           `parquet:"dataset"`
	Text     string           `parquet:"text"`
	Labelers int              `parquet:"labelers"`
	Buckets  []spectrumBucket `parquet:"buckets,list"`
}

type spectrumBucket struct {
	Exact      int      `parquet:"exact"`
	Dimensions []string `parquet:"dimensions,list"`
}

var exactColumn = regexp.MustCompile(`^exact_(\d+)of(\d+)$`)

// ExactColumn names the bucket column for count c out of k labelers.
func ExactColumn(c, k int) string {
	return fmt.Sprintf("exact_%dof%d", c, k)
}

// WriteSpectrumTable writes spectrum records. In CSV the bucket columns run
// from the strictest (exact_KofK) to the loosest (exact_1ofK).
func WriteSpectrumTable(path string, records []types.ConsensusBucketRecord) error {
	k := 0
	for _, r := range records {
		if k == 0 {
			k = r.Labelers()
		}
		if r.Labelers() != k {
			return types.InvalidArgument("question %s has %d buckets, expected %d", r.QID, r.Labelers(), k)
		}
	}

	if FormatFromPath(path) == FormatParquet {
		rows := make([]spectrumRow, len(records))
		for i, r := range records {
			buckets := make([]spectrumBucket, k)
			for c := k; c >= 1; c-- {
				buckets[k-c] = spectrumBucket{Exact: c, Dimensions: r.Bucket(c)}
			}
			rows[i] = spectrumRow{QID: r.QID, Dataset: r.Dataset, Text: r.Text, Labelers: k, Buckets: buckets}
		}
		if err := ensureParent(path); err != nil {
			return err
		}
		return parquet.WriteFile(path, rows)
	}

	header := []string{"qid", "dataset", "text"}
	for c := k; c >= 1; c-- {
		header = append(header, ExactColumn(c, k))
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		rec := []string{r.QID, r.Dataset, r.Text}
		for c := k; c >= 1; c-- {
			rec = append(rec, JoinTagList(r.Bucket(c)))
		}
		rows[i] = rec
	}
	return writeCSV(path, header, rows)
}

// ReadSpectrumTable reads a table written by WriteSpectrumTable.
func ReadSpectrumTable(path string) ([]types.ConsensusBucketRecord, error) {
	if FormatFromPath(path) == FormatParquet {
		rows, err := parquet.ReadFile[spectrumRow](path)
		if err != nil {
			return nil, err
		}
		out := make([]types.ConsensusBucketRecord, len(rows))
		for i, row := range rows {
			exact := make([][]string, row.Labelers)
			for c := range exact {
				exact[c] = []string{}
			}
			for _, b := range row.Buckets {
				if b.Exact < 1 || b.Exact > row.Labelers {
					return nil, fmt.Errorf("%s row %d: bucket exact_%d out of range", path, i+1, b.Exact)
				}
				if len(b.Dimensions) > 0 {
					exact[b.Exact-1] = b.Dimensions
				}
			}
			out[i] = types.ConsensusBucketRecord{QID: row.QID, Dataset: row.Dataset, Text: row.Text, Exact: exact}
		}
		return out, nil
	}

	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(path, "qid"); err != nil {
		return nil, err
	}

	k := 0
	counts := make(map[int]string)
	for _, h := range t.header {
		m := exactColumn.FindStringSubmatch(h)
		if m == nil {
			continue
		}
		c, _ := strconv.Atoi(m[1])
		total, _ := strconv.Atoi(m[2])
		if k == 0 {
			k = total
		}
		if total != k || c < 1 || c > k {
			return nil, fmt.Errorf("%s: inconsistent bucket column %q", path, h)
		}
		counts[c] = h
	}
	if k == 0 || len(counts) != k {
		return nil, fmt.Errorf("%s: expected exact_{c}of{K} columns for every c", path)
	}

	out := make([]types.ConsensusBucketRecord, len(t.records))
	for i, rec := range t.records {
		exact := make([][]string, k)
		for c := 1; c <= k; c++ {
			tags, err := ParseTagList(t.get(rec, counts[c]))
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
			}
			exact[c-1] = tags
		}
		out[i] = types.ConsensusBucketRecord{
			QID:     t.get(rec, "qid"),
			Dataset: t.get(rec, "dataset"),
			Text:    t.get(rec, "text"),
			Exact:   exact,
		}
	}
	return out, nil
}
