package agreement

import "sort"

// Jaccard returns |A∩B| / |A∪B| over the distinct tags of a and b.
// Two empty sets are identical and score 1.0.
func Jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}

	intersection := 0
	for tag := range setA {
		if _, ok := setB[tag]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// MeanPairwiseJaccard averages Jaccard over all unordered pairs of sets.
// Fewer than two sets means there is nothing to disagree with: 1.0.
func MeanPairwiseJaccard(sets [][]string) float64 {
	if len(sets) < 2 {
		return 1.0
	}
	sum := 0.0
	pairs := 0
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			sum += Jaccard(sets[i], sets[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

func toSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}

// dedupe returns the distinct tags in sorted order.
func dedupe(tags []string) []string {
	set := toSet(tags)
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// labelerCounts counts, per tag, how many of the (already de-duplicated)
// sets contain it.
func labelerCounts(sets [][]string) map[string]int {
	counts := make(map[string]int)
	for _, set := range sets {
		for _, tag := range set {
			counts[tag]++
		}
	}
	return counts
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
