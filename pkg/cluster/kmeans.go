package cluster

import (
	"math"
	"math/rand"
)

// run is the outcome of one seeded restart.
type run struct {
	labels     []int
	centroids  [][]float64
	inertia    float64
	iterations int
}

// lloyd runs k-means++ seeding followed by Lloyd iterations until the
// centroids move less than tol (squared) or maxIter is reached.
func lloyd(points [][]float64, k int, seed int64, maxIter int, tol float64) *run {
	rng := rand.New(rand.NewSource(seed))
	centroids := seedPlusPlus(points, k, rng)
	labels := make([]int, len(points))

	iterations := 0
	for iterations < maxIter {
		iterations++
		assign(points, centroids, labels)
		next := recompute(points, labels, centroids)

		shift := 0.0
		for c := range centroids {
			shift += sqDist(centroids[c], next[c])
		}
		centroids = next
		if shift <= tol {
			break
		}
	}
	inertia := assign(points, centroids, labels)

	return &run{labels: labels, centroids: centroids, inertia: inertia, iterations: iterations}
}

// seedPlusPlus picks k initial centroids from the points, each new one with
// probability proportional to its squared distance to the nearest chosen one.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.Intn(n)]))

	dist := make([]float64, n)
	for i, p := range points {
		dist[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		total := 0.0
		for _, d := range dist {
			total += d
		}

		var pick int
		if total == 0 {
			// Every point coincides with a centroid already.
			pick = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			pick = n - 1
			for i, d := range dist {
				target -= d
				if target < 0 {
					pick = i
					break
				}
			}
		}

		c := clone(points[pick])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

// assign labels each point with its nearest centroid (lowest id on ties)
// and returns the total squared distance.
func assign(points, centroids [][]float64, labels []int) float64 {
	inertia := 0.0
	for i, p := range points {
		best, bestDist := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDist(p, centroid); d < bestDist {
				best, bestDist = c, d
			}
		}
		labels[i] = best
		inertia += bestDist
	}
	return inertia
}

// recompute averages the members of each cluster. Empty clusters keep
// their previous centroid.
func recompute(points [][]float64, labels []int, prev [][]float64) [][]float64 {
	dim := len(points[0])
	sums := make([][]float64, len(prev))
	counts := make([]int, len(prev))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		c := labels[i]
		counts[c]++
		for d, x := range p {
			sums[c][d] += x
		}
	}
	for c := range sums {
		if counts[c] == 0 {
			copy(sums[c], prev[c])
			continue
		}
		for d := range sums[c] {
			sums[c][d] /= float64(counts[c])
		}
	}
	return sums
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
