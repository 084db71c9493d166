// Package cluster groups embedded survey questions with seeded k-means.
//
// Fit is a pure function: it embeds the questions once, runs several
// k-means++ seeded Lloyd restarts and returns an immutable *Result holding
// the embeddings, assignments and centroids. Every query in this package
// takes that result explicitly:
//
//	res, err := cluster.Fit(ctx, questions, encoder, cluster.Options{K: 8, Seed: 42})
//	reps, err := cluster.Representatives(res, 10)
//	similar, err := cluster.QuerySimilar(res, 0, 6)
//
// Cluster ids are only meaningful within one Fit call. Empty clusters are
// possible and are skipped by Representatives.
package cluster
