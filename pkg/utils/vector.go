package utils

import (
	"container/heap"
	"math"
)

// CosineSimilarity calculates the cosine similarity between two float32 vectors.
// Returns 0 if vectors have different lengths, are empty, or either has zero magnitude.
// The result is in the range [-1, 1], where 1 means identical direction,
// 0 means orthogonal, and -1 means opposite direction.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64

	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Magnitude calculates the Euclidean magnitude (L2 norm) of a float32 vector.
func Magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize normalizes a float32 vector to unit length.
// Returns nil if the input is empty or has zero magnitude.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return nil
	}

	mag := Magnitude(v)
	if mag == 0 {
		return nil
	}

	result := make([]float32, len(v))
	for i, x := range v {
		result[i] = float32(float64(x) / mag)
	}
	return result
}

// CloneVector returns a copy of v.
func CloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// ScoredItem represents an item with a score for top-K selection.
type ScoredItem[T any] struct {
	Item  T
	Score float64
}

// rankedItem remembers where an item sat in the input so equal scores keep
// their input order.
type rankedItem[T any] struct {
	ScoredItem[T]
	pos int
}

// ranksBelow reports whether a sorts after b in the final ranking.
func ranksBelow[T any](a, b rankedItem[T]) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.pos > b.pos
}

// minHeap keeps the weakest retained item at the root.
type minHeap[T any] []rankedItem[T]

func (h minHeap[T]) Len() int           { return len(h) }
func (h minHeap[T]) Less(i, j int) bool { return ranksBelow(h[i], h[j]) }
func (h minHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap[T]) Push(x any) {
	*h = append(*h, x.(rankedItem[T]))
}

func (h *minHeap[T]) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// TopKByScore returns the top K items with the highest scores using a heap.
// This is O(n log k) which is more efficient than sorting O(n log n) when k << n.
// The returned slice is sorted in descending order by score; items with
// equal scores keep their relative input order.
func TopKByScore[T any](items []ScoredItem[T], k int) []ScoredItem[T] {
	if k <= 0 || len(items) == 0 {
		return nil
	}
	if k > len(items) {
		k = len(items)
	}

	h := make(minHeap[T], 0, k)
	heap.Init(&h)

	for i, item := range items {
		ri := rankedItem[T]{ScoredItem: item, pos: i}
		if h.Len() < k {
			heap.Push(&h, ri)
		} else if ranksBelow(h[0], ri) {
			heap.Pop(&h)
			heap.Push(&h, ri)
		}
	}

	// Pop weakest first and fill from the back to get descending order
	result := make([]ScoredItem[T], h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(rankedItem[T]).ScoredItem
	}

	return result
}

// TopKIndicesByScore returns the indices of the top K items with the highest scores.
// Useful when you need to reference back to the original slice.
// Returns indices in descending order by score, lower index first on ties.
func TopKIndicesByScore(scores []float64, k int) []int {
	if k <= 0 || len(scores) == 0 {
		return nil
	}

	items := make([]ScoredItem[int], len(scores))
	for i, score := range scores {
		items[i] = ScoredItem[int]{Item: i, Score: score}
	}

	topK := TopKByScore(items, k)
	indices := make([]int, len(topK))
	for i, item := range topK {
		indices[i] = item.Item
	}
	return indices
}
