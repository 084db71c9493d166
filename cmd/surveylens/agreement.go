package surveylens

import (
	"fmt"

	"github.com/soundprediction/surveylens"
	"github.com/soundprediction/surveylens/pkg/agreement"
	"github.com/soundprediction/surveylens/pkg/tableio"
	"github.com/spf13/cobra"
)

var agreementCmd = &cobra.Command{
	Use:   "agreement [tag tables...]",
	Short: "Measure agreement between labelers' dimension tags",
	Long: `Load one tag table per labeler (qid,dataset,text,dimensions) and write the
cross-labeler agreement table and the consensus spectrum table.

Tables are given as arguments or found in --dir; the labeler name is the
file stem. The first table defines which questions are compared.`,
	RunE: runAgreement,
}

var (
	labelerDir string
	threshold  int
	dryRun     bool
)

func init() {
	rootCmd.AddCommand(agreementCmd)

	agreementCmd.Flags().StringVar(&labelerDir, "dir", "", "directory of per-labeler tag tables (*.csv)")
	agreementCmd.Flags().IntVar(&threshold, "threshold", 0, "labelers required for consensus (default from config)")
	agreementCmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and print the summary without writing tables")
}

func runAgreement(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime()
	if err != nil {
		return err
	}
	defer env.Close()

	var sets *agreement.LabelerTagSets
	switch {
	case len(args) > 0:
		sets, err = tableio.LoadLabelerTagSets(args...)
	case labelerDir != "":
		sets, err = tableio.LoadLabelerDir(labelerDir)
	default:
		return fmt.Errorf("no tag tables: pass files or --dir")
	}
	if err != nil {
		return fmt.Errorf("failed to load tag tables: %w", err)
	}

	cfg := surveylens.NewConfigFromSettings(env.cfg)
	if cmd.Flags().Changed("threshold") {
		cfg.ConsensusThreshold = threshold
	}

	ctx, cancel := signalContext()
	defer cancel()

	client := surveylens.NewClient(nil, cfg, env.logger)
	report, err := client.Agreement(ctx, sets, !dryRun)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d questions, %d labelers %v\n", report.RunID, len(report.Records), len(report.Labelers), report.Labelers)
	fmt.Fprintf(out, "Mean pairwise Jaccard: %.4f\n", report.MeanAgreement())
	for _, kind := range []string{"agreement", "spectrum"} {
		if path, ok := report.Files[kind]; ok {
			fmt.Fprintf(out, "Wrote %s table: %s\n", kind, path)
		}
	}
	return nil
}
