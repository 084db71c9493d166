package surveylens

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soundprediction/surveylens"
	"github.com/soundprediction/surveylens/pkg/embedder"
	"github.com/soundprediction/surveylens/pkg/tableio"
	"github.com/soundprediction/surveylens/pkg/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster survey questions by embedding similarity",
	Long: `Embed every question, fit seeded k-means and write three tables to the
output directory:

  representatives.csv   the top questions of each cluster by similarity to its center
  clusters.csv          every question with its cluster id
  clusters_labeled.csv  the same with a cluster type name (only with --labels)`,
	RunE: runCluster,
}

var (
	questionsPath string
	labelsPath    string
)

func init() {
	rootCmd.AddCommand(clusterCmd)

	clusterCmd.Flags().StringVarP(&questionsPath, "questions", "q", tableio.DefaultQuestionsFile, "question table (csv or parquet with qid,dataset,text)")
	clusterCmd.Flags().StringVar(&labelsPath, "labels", "", "YAML file naming cluster types by id")
	addClusterFlags(clusterCmd)

	// Embedding flags
	clusterCmd.Flags().String("embedding-provider", "openai", "Embedding provider (openai, embedeverything)")
	clusterCmd.Flags().String("embedding-model", "text-embedding-3-small", "Embedding model")
	clusterCmd.Flags().String("embedding-base-url", "", "Embedding base URL")
	clusterCmd.Flags().String("embedding-cache-dir", "", "Directory for the embedding cache")
	_ = viper.BindPFlag("embedding.provider", clusterCmd.Flags().Lookup("embedding-provider"))
	_ = viper.BindPFlag("embedding.model", clusterCmd.Flags().Lookup("embedding-model"))
	_ = viper.BindPFlag("embedding.base_url", clusterCmd.Flags().Lookup("embedding-base-url"))
	_ = viper.BindPFlag("embedding.cache_dir", clusterCmd.Flags().Lookup("embedding-cache-dir"))
}

// addClusterFlags registers the k-means flags shared by cluster and similar.
func addClusterFlags(cmd *cobra.Command) {
	cmd.Flags().Int("k", 0, "number of clusters (default from config)")
	cmd.Flags().Int64("seed", 0, "random seed (default from config)")
	cmd.Flags().Int("restarts", 0, "k-means restarts (default from config)")
	cmd.Flags().Int("parallelism", 0, "restarts run concurrently (default from config)")
	cmd.Flags().Int("top-n", 0, "representatives per cluster (default from config)")
}

// clientConfig merges command flags into the loaded settings.
func clientConfig(cmd *cobra.Command, env *runtimeEnv) *surveylens.Config {
	cfg := surveylens.NewConfigFromSettings(env.cfg)
	if cmd.Flags().Changed("k") {
		cfg.K, _ = cmd.Flags().GetInt("k")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("restarts") {
		cfg.Restarts, _ = cmd.Flags().GetInt("restarts")
	}
	if cmd.Flags().Changed("parallelism") {
		cfg.Parallelism, _ = cmd.Flags().GetInt("parallelism")
	}
	if cmd.Flags().Changed("top-n") {
		cfg.TopN, _ = cmd.Flags().GetInt("top-n")
	}
	return cfg
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// fitQuestions loads the question table and clusters it without writing.
func fitQuestions(ctx context.Context, cmd *cobra.Command, env *runtimeEnv, opts *surveylens.ClusterOptions) ([]types.Question, *surveylens.ClusterReport, error) {
	questions, err := tableio.LoadQuestions(questionsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load questions: %w", err)
	}
	env.logger.Info("Loaded questions", "path", questionsPath, "count", len(questions))

	enc, err := embedder.NewFromConfig(env.cfg.Embedding, env.cfg.Retry, env.cfg.CircuitBreaker, env.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	defer func() {
		if err := enc.Close(); err != nil {
			env.logger.Warn("Failed to close embedder", "error", err)
		}
	}()

	client := surveylens.NewClient(enc, clientConfig(cmd, env), env.logger)
	report, err := client.Cluster(ctx, questions, opts)
	if err != nil {
		return nil, nil, err
	}
	return questions, report, nil
}

func runCluster(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := signalContext()
	defer cancel()

	opts := &surveylens.ClusterOptions{Write: true}
	if labelsPath != "" {
		opts.Labels, err = tableio.LoadClusterTypes(labelsPath)
		if err != nil {
			return fmt.Errorf("failed to load cluster types: %w", err)
		}
	}

	_, report, err := fitQuestions(ctx, cmd, env, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d questions in %d clusters (inertia %.4f, %s)\n",
		report.RunID, len(report.Rows), report.Result.K, report.Result.Inertia, report.Duration.Round(time.Millisecond))
	for i, size := range report.Result.Sizes() {
		fmt.Fprintf(out, "  cluster %d: %d questions\n", i, size)
	}
	for _, kind := range []string{"representatives", "clusters", "labeled"} {
		if path, ok := report.Files[kind]; ok {
			fmt.Fprintf(out, "Wrote %s table: %s\n", kind, path)
		}
	}
	return nil
}
