package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/surveylens/pkg/embedder"
	"github.com/soundprediction/surveylens/pkg/types"
	"github.com/soundprediction/surveylens/pkg/utils"
)

const (
	DefaultRestarts      = 10
	DefaultMaxIterations = 300
	DefaultTolerance     = 1e-4
)

// Options controls a Fit run. Zero values fall back to the defaults above;
// K has no default.
type Options struct {
	K             int
	Seed          int64
	Restarts      int
	MaxIterations int
	Tolerance     float64
	// Parallelism is the number of restarts run at once. The chosen partition
	// does not depend on it.
	Parallelism int
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Restarts <= 0 {
		o.Restarts = DefaultRestarts
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 1
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Result is a fitted partition. It is never modified after Fit returns and
// may be shared between goroutines.
type Result struct {
	K    int
	Seed int64
	// Questions are in input order; Assignments[i] is the cluster of Questions[i].
	Questions   []types.EmbeddedQuestion
	Assignments []int
	// Clusters are indexed by id.
	Clusters []types.Cluster
	// Inertia is the within-cluster sum of squared distances of the kept restart.
	Inertia    float64
	Iterations int
	Restart    int
}

// Fitted reports whether res holds a usable partition.
func (r *Result) Fitted() bool {
	return r != nil && r.K > 0 && len(r.Assignments) > 0 && len(r.Assignments) == len(r.Questions)
}

// Sizes returns the member count of every cluster in id order.
func (r *Result) Sizes() []int {
	if !r.Fitted() {
		return nil
	}
	sizes := make([]int, len(r.Clusters))
	for i, c := range r.Clusters {
		sizes[i] = c.Size
	}
	return sizes
}

// Fit embeds questions once and partitions them into opts.K clusters.
func Fit(ctx context.Context, questions []types.Question, encoder embedder.Encoder, opts Options) (*Result, error) {
	if len(questions) == 0 {
		return nil, types.InvalidArgument("question set is empty")
	}
	if opts.K <= 0 {
		return nil, types.InvalidArgument("k must be positive, got %d", opts.K)
	}
	if opts.K > len(questions) {
		return nil, types.InvalidArgument("k=%d exceeds the number of questions (%d)", opts.K, len(questions))
	}
	if encoder == nil {
		return nil, types.InvalidArgument("encoder is required")
	}
	if _, err := types.IndexQuestions("questions", questions); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	start := time.Now()

	texts := make([]string, len(questions))
	for i, q := range questions {
		texts[i] = q.Text
	}
	vectors, err := encoder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed questions: %w", err)
	}
	points, err := toMatrix(vectors, len(questions))
	if err != nil {
		return nil, err
	}

	runs := make([]func() (*run, error), opts.Restarts)
	for r := range runs {
		seed := opts.Seed + int64(r)
		runs[r] = func() (*run, error) {
			return lloyd(points, opts.K, seed, opts.MaxIterations, opts.Tolerance), nil
		}
	}

	var results []*run
	var errs []error
	if opts.Parallelism == 1 {
		results = make([]*run, len(runs))
		errs = make([]error, len(runs))
		for i, fn := range runs {
			results[i], errs[i] = fn()
		}
	} else {
		results, errs = utils.ExecuteWithResults(ctx, opts.Parallelism, runs...)
	}

	best := -1
	for i, res := range results {
		if errs[i] != nil {
			return nil, fmt.Errorf("restart %d failed: %w", i, errs[i])
		}
		// Strict comparison keeps the lowest restart index on ties.
		if best < 0 || res.inertia < results[best].inertia {
			best = i
		}
	}
	chosen := results[best]

	out := &Result{
		K:           opts.K,
		Seed:        opts.Seed,
		Questions:   make([]types.EmbeddedQuestion, len(questions)),
		Assignments: chosen.labels,
		Clusters:    make([]types.Cluster, opts.K),
		Inertia:     chosen.inertia,
		Iterations:  chosen.iterations,
		Restart:     best,
	}
	for i, q := range questions {
		out.Questions[i] = types.EmbeddedQuestion{Question: q, Embedding: utils.CloneVector(vectors[i])}
	}
	for c := range out.Clusters {
		centroid := make([]float32, len(chosen.centroids[c]))
		for d, x := range chosen.centroids[c] {
			centroid[d] = float32(x)
		}
		out.Clusters[c] = types.Cluster{ID: c, Centroid: centroid}
	}
	for _, label := range chosen.labels {
		out.Clusters[label].Size++
	}

	opts.Logger.Info("Clustering complete",
		"questions", len(questions),
		"k", opts.K,
		"restarts", opts.Restarts,
		"best_restart", best,
		"iterations", chosen.iterations,
		"inertia", chosen.inertia,
		"sizes", out.Sizes(),
		"duration", time.Since(start))

	return out, nil
}

// toMatrix checks the encoder output and widens it for the k-means arithmetic.
func toMatrix(vectors [][]float32, n int) ([][]float64, error) {
	if len(vectors) != n {
		return nil, fmt.Errorf("encoder returned %d vectors for %d questions", len(vectors), n)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("encoder returned empty vectors")
	}
	points := make([][]float64, n)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
		}
		p := make([]float64, dim)
		for d, x := range v {
			p[d] = float64(x)
		}
		points[i] = p
	}
	return points, nil
}
