package tableio

import (
	"fmt"
	"sort"
	"strings"
)

// DimensionSet is the ordered list of dimension definitions one labeler
// tags against, each formatted as "name: description".
type DimensionSet struct {
	Labeler     string   `json:"labeler" yaml:"labeler"`
	Definitions []string `json:"definitions" yaml:"definitions"`
}

// LoadDimensionSets reads a model_name,dim_name,dim_text table and groups it
// by model_name. Groups are sorted by name; rows keep file order within a group.
func LoadDimensionSets(path string) ([]DimensionSet, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(path, "model_name", "dim_name", "dim_text"); err != nil {
		return nil, err
	}

	groups := make(map[string][]string)
	for i, rec := range t.records {
		model := strings.TrimSpace(t.get(rec, "model_name"))
		name := strings.TrimSpace(t.get(rec, "dim_name"))
		if model == "" || name == "" {
			return nil, fmt.Errorf("%s row %d: model_name and dim_name are required", path, i+1)
		}
		text := strings.TrimSpace(t.get(rec, "dim_text"))
		groups[model] = append(groups[model], name+": "+text)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]DimensionSet, len(names))
	for i, name := range names {
		out[i] = DimensionSet{Labeler: name, Definitions: groups[name]}
	}
	return out, nil
}
