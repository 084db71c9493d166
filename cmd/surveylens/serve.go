package surveylens

import (
	"context"
	"fmt"
	"time"

	"github.com/soundprediction/surveylens/pkg/config"
	"github.com/soundprediction/surveylens/pkg/server"
	"github.com/soundprediction/surveylens/pkg/tableio"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve result tables over HTTP",
	Long: `Start a read-only HTTP API over the tables in the output directory.

The server provides endpoints for:
- Clusters and their members
- Representatives
- Cross-labeler agreement, optionally filtered by max_jaccard
- The consensus spectrum
- Health checks

Tables are re-read on each request, so rerunning cluster or agreement
needs no restart.`,
	RunE: runServe,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serveCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serverMode, "mode", "release", "Server mode (debug, release, test)")
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime()
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.cfg
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	source := server.NewDirSource(cfg.Output.Dir, tableio.Format(cfg.Output.Format))
	if err := source.Ping(); err != nil {
		env.logger.Warn("Output directory not readable yet", "dir", cfg.Output.Dir, "error", err)
	}

	srv := server.New(cfg, source, env.logger)
	srv.Setup()

	ctx, cancel := signalContext()
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Start()
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		env.logger.Info("Server stopped gracefully")
		return nil
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	if cfg.Output.Dir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}
