package surveylens

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/soundprediction/surveylens/pkg/config"
	"github.com/soundprediction/surveylens/pkg/logger"
	"github.com/soundprediction/surveylens/pkg/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "surveylens",
		Short: "SurveyLens: survey question clustering and labeler agreement",
		Long: `SurveyLens groups survey questions into semantic clusters over sentence
embeddings and measures how far independent labelers agree on the
dimensions they assign to each question.

Results are written as flat CSV or parquet tables and can be browsed
through a read-only HTTP API with the serve command.`,
		SilenceUsage: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.surveylens.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "directory for result tables")
	rootCmd.PersistentFlags().String("format", "", "format of agreement tables (csv, parquet)")

	// Bind flags to viper
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("output.dir", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".surveylens" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".surveylens")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// runtimeEnv is what every command needs: settings and a logger. Close
// flushes buffered telemetry.
type runtimeEnv struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *telemetry.ParquetHandler
}

func loadRuntime() (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	base := logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	env := &runtimeEnv{cfg: cfg, logger: base}

	if path := cfg.Telemetry.ParquetPath; path != "" {
		handler, err := telemetry.NewParquetHandler(base.Handler(), path)
		if err != nil {
			base.Warn("Failed to initialize error tracking", "error", err)
			return env, nil
		}
		env.telemetry = handler
		env.logger = slog.New(handler)
	}
	return env, nil
}

func (e *runtimeEnv) Close() {
	if e.telemetry == nil {
		return
	}
	if err := e.telemetry.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to flush telemetry:", err)
	}
}
