package surveylens

import (
	"fmt"

	"github.com/soundprediction/surveylens/pkg/tableio"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var dimensionsCmd = &cobra.Command{
	Use:   "dimensions <definitions.csv>",
	Short: "Print dimension definitions grouped by labeler",
	Long: `Read a dimension definition table (model_name,dim_name,dim_text) and print
the definitions of each labeler as "name: description" lines, in YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: runDimensions,
}

func init() {
	rootCmd.AddCommand(dimensionsCmd)
}

func runDimensions(cmd *cobra.Command, args []string) error {
	sets, err := tableio.LoadDimensionSets(args[0])
	if err != nil {
		return fmt.Errorf("failed to load dimensions: %w", err)
	}

	doc := make(map[string][]string, len(sets))
	for _, s := range sets {
		doc[s.Labeler] = s.Definitions
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
