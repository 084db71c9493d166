package surveylens

import (
	"fmt"
	"text/tabwriter"

	"github.com/soundprediction/surveylens"
	"github.com/soundprediction/surveylens/pkg/tableio"
	"github.com/spf13/cobra"
)

var similarCmd = &cobra.Command{
	Use:   "similar",
	Short: "List the questions most similar to one question",
	Long: `Fit the clusters exactly as the cluster command does (same seed, same
questions) and print the nearest neighbours of the question at --index,
or of the question with --qid. Nothing is written.`,
	RunE: runSimilar,
}

var (
	similarIndex int
	similarQID   string
	similarTopK  int
)

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().StringVarP(&questionsPath, "questions", "q", tableio.DefaultQuestionsFile, "question table (csv or parquet with qid,dataset,text)")
	similarCmd.Flags().IntVar(&similarIndex, "index", 0, "row index of the query question")
	similarCmd.Flags().StringVar(&similarQID, "qid", "", "qid of the query question (overrides --index)")
	similarCmd.Flags().IntVar(&similarTopK, "top-k", 0, "number of neighbours (default from config)")
	addClusterFlags(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := signalContext()
	defer cancel()

	questions, report, err := fitQuestions(ctx, cmd, env, &surveylens.ClusterOptions{})
	if err != nil {
		return err
	}

	index := similarIndex
	if similarQID != "" {
		index = -1
		for i, q := range questions {
			if q.QID == similarQID {
				index = i
				break
			}
		}
		if index < 0 {
			return fmt.Errorf("question not found: %s", similarQID)
		}
	}

	client := surveylens.NewClient(nil, clientConfig(cmd, env), env.logger)
	neighbours, err := client.Similar(report.Result, index, similarTopK)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "QID\tDATASET\tCLUSTER\tSIMILARITY\tTEXT")
	for _, n := range neighbours {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\t%s\n", n.QID, n.Dataset, n.ClusterID, n.Similarity, n.Text)
	}
	return w.Flush()
}
