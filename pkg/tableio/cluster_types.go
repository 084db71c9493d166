package tableio

import (
	"fmt"
	"os"

	"github.com/soundprediction/surveylens/pkg/types"
	"gopkg.in/yaml.v3"
)

// LoadClusterTypes reads cluster type names from YAML. Either a plain list
// (index = cluster id) or a mapping from cluster id to name with ids
// 0..n-1 is accepted.
func LoadClusterTypes(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var byID map[int]string
	if err := yaml.Unmarshal(data, &byID); err != nil {
		return nil, fmt.Errorf("%s: expected a list of names or an id -> name mapping: %w", path, err)
	}
	labels := make([]string, len(byID))
	for id, name := range byID {
		if id < 0 || id >= len(byID) {
			return nil, types.InvalidArgument("%s: cluster id %d outside 0..%d", path, id, len(byID)-1)
		}
		labels[id] = name
	}
	return labels, nil
}
