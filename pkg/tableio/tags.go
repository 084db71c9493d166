package tableio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/soundprediction/surveylens/pkg/agreement"
	"github.com/soundprediction/surveylens/pkg/types"
	"github.com/soundprediction/surveylens/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// ListSeparator splits legacy set-valued cells that are not list literals.
const ListSeparator = "|"

// ParseTagList decodes a dimensions cell. Bracketed cells are list literals,
// either JSON arrays as written by JoinTagList or what the tagging step
// emits (Python repr, possibly truncated), which are repaired before
// decoding. Anything else is a ListSeparator-joined list. Blank entries are
// dropped.
func ParseTagList(cell string) ([]string, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return []string{}, nil
	}

	var raw []string
	if strings.HasPrefix(cell, "[") {
		if err := json.Unmarshal([]byte(cell), &raw); err != nil {
			repaired, rerr := jsonrepair.JSONRepair(cell)
			if rerr != nil {
				return nil, fmt.Errorf("failed to repair tag list %q: %w", cell, rerr)
			}
			if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
				return nil, fmt.Errorf("failed to decode tag list %q: %w", cell, err)
			}
		}
	} else {
		raw = strings.Split(cell, ListSeparator)
	}

	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// JoinTagList encodes a set-valued CSV cell as a JSON array, so tags holding
// ListSeparator or brackets survive ParseTagList unchanged. An empty set is
// an empty cell.
func JoinTagList(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(tags) // a []string always encodes
	return strings.TrimSuffix(buf.String(), "\n")
}

// LoadTagTable reads one labeler's qid,dataset,text,dimensions table.
func LoadTagTable(path string) ([]types.TagRow, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(path, "qid", "dimensions"); err != nil {
		return nil, err
	}

	rows := make([]types.TagRow, len(t.records))
	for i, rec := range t.records {
		qid := strings.TrimSpace(t.get(rec, "qid"))
		if qid == "" {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, types.ErrEmptyQID)
		}
		tags, err := ParseTagList(t.get(rec, "dimensions"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		rows[i] = types.TagRow{
			Question: types.Question{
				QID:     qid,
				Dataset: strings.TrimSpace(t.get(rec, "dataset")),
				Text:    strings.TrimSpace(t.get(rec, "text")),
			},
			Dimensions: tags,
		}
	}
	return rows, nil
}

// WriteTagTable writes rows in the layout LoadTagTable reads.
func WriteTagTable(path string, rows []types.TagRow) error {
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = []string{row.QID, row.Dataset, row.Text, JoinTagList(row.Dimensions)}
	}
	return writeCSV(path, []string{"qid", "dataset", "text", "dimensions"}, records)
}

// LabelerName derives a labeler name from a tag table path: the file stem.
func LabelerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadLabelerTagSets loads each tag table under its file stem, in the order
// given.
func LoadLabelerTagSets(paths ...string) (*agreement.LabelerTagSets, error) {
	tables := make([][]types.TagRow, len(paths))
	g := new(errgroup.Group)
	g.SetLimit(utils.GetSemaphoreLimit())
	for i, path := range paths {
		g.Go(func() error {
			rows, err := LoadTagTable(path)
			if err != nil {
				return err
			}
			tables[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sets := agreement.NewLabelerTagSets()
	for i, path := range paths {
		if err := sets.Add(LabelerName(path), tables[i]); err != nil {
			return nil, err
		}
	}
	return sets, nil
}

// LoadLabelerDir loads every .csv tag table in dir, sorted by file name.
// The first file defines the question universe.
func LoadLabelerDir(dir string) (*agreement.LabelerTagSets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, types.InvalidArgument("no tag tables in %s", dir)
	}
	sort.Strings(paths)
	return LoadLabelerTagSets(paths...)
}
