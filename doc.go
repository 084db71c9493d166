// Package surveylens analyzes corpora of short survey questions.
//
// It does two independent jobs:
//
//   - Semantic clustering: questions are embedded through a pluggable
//     embedder.Encoder and partitioned with seeded k-means. The fitted result
//     answers representative and nearest-neighbour queries.
//   - Labeler agreement: per-question dimension tags from several labelers
//     are compared with pairwise Jaccard similarity, threshold consensus and
//     an exact-count consensus spectrum.
//
// # Basic Usage
//
//	enc, err := embedder.NewFromConfig(cfg.Embedding, cfg.Retry, cfg.CircuitBreaker, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer enc.Close()
//
//	client := surveylens.NewClient(enc, surveylens.NewConfigFromSettings(cfg), logger)
//
// # Clustering
//
//	questions, err := tableio.LoadQuestions("questions_master.parquet")
//	report, err := client.Cluster(ctx, questions, &surveylens.ClusterOptions{Write: true})
//	for _, cm := range report.Representatives {
//		fmt.Println(cm.ClusterID, cm.Members[0].Text)
//	}
//
//	similar, err := client.Similar(report.Result, 0, 6)
//
// # Agreement
//
//	sets, err := tableio.LoadLabelerDir("tagged/")
//	report, err := client.Agreement(ctx, sets, true)
//
// The agreement and spectrum tables are cross-validated before they are
// written: every question's spectrum buckets must partition its union of
// tags, and its consensus must equal the buckets at or above the threshold.
//
// The lower-level packages (pkg/cluster, pkg/agreement, pkg/tableio) can be
// used directly; the Client only wires them to configuration, logging and
// output files.
package surveylens
