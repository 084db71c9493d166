package surveylens

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/surveylens/pkg/agreement"
	"github.com/soundprediction/surveylens/pkg/cluster"
	"github.com/soundprediction/surveylens/pkg/config"
	"github.com/soundprediction/surveylens/pkg/embedder"
	"github.com/soundprediction/surveylens/pkg/tableio"
	"github.com/soundprediction/surveylens/pkg/telemetry"
	"github.com/soundprediction/surveylens/pkg/types"
)

// Output file names, relative to Config.OutputDir.
const (
	RepresentativesFile = "representatives.csv"
	ClusterTableFile    = "clusters.csv"
	LabeledTableFile    = "clusters_labeled.csv"
	AgreementFile       = "cross_labeler_agreement"
	SpectrumFile        = "consensus_spectrum"
)

// Config holds configuration for the surveylens client.
type Config struct {
	K             int
	Seed          int64
	Restarts      int
	MaxIterations int
	Tolerance     float64
	Parallelism   int
	// TopN is the number of representatives kept per cluster.
	TopN int
	// TopK is the default neighbour count for Similar.
	TopK int

	ConsensusThreshold int

	OutputDir string
	// Format applies to the agreement and spectrum tables. Cluster tables
	// are always CSV.
	Format tableio.Format
}

// NewDefaultConfig returns the settings used when no configuration is loaded.
func NewDefaultConfig() *Config {
	return &Config{
		K:                  8,
		Seed:               42,
		Restarts:           cluster.DefaultRestarts,
		MaxIterations:      cluster.DefaultMaxIterations,
		Tolerance:          cluster.DefaultTolerance,
		Parallelism:        1,
		TopN:               10,
		TopK:               6,
		ConsensusThreshold: agreement.DefaultConsensusThreshold,
		OutputDir:          "./temp_result",
		Format:             tableio.FormatCSV,
	}
}

// NewConfigFromSettings maps loaded application settings onto a client Config.
func NewConfigFromSettings(cfg *config.Config) *Config {
	out := NewDefaultConfig()
	if cfg == nil {
		return out
	}
	out.K = cfg.Cluster.K
	out.Seed = cfg.Cluster.Seed
	out.Restarts = cfg.Cluster.Restarts
	out.MaxIterations = cfg.Cluster.MaxIterations
	out.Tolerance = cfg.Cluster.Tolerance
	out.Parallelism = cfg.Cluster.Parallelism
	out.TopN = cfg.Cluster.TopN
	out.TopK = cfg.Cluster.TopK
	out.ConsensusThreshold = cfg.Agreement.ConsensusThreshold
	out.OutputDir = cfg.Output.Dir
	if cfg.Output.Format == string(tableio.FormatParquet) {
		out.Format = tableio.FormatParquet
	}
	return out
}

// Client is the main implementation of Clusterer and AgreementAnalyzer.
type Client struct {
	encoder embedder.Encoder
	config  *Config
	logger  *slog.Logger
}

// NewClient creates a client. The encoder may be nil when only agreement
// analysis is used.
func NewClient(encoder embedder.Encoder, config *Config, logger *slog.Logger) *Client {
	if config == nil {
		config = NewDefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{encoder: encoder, config: config, logger: logger}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *Config {
	return c.config
}

// ClusterOptions adjusts a single Cluster call.
type ClusterOptions struct {
	// K overrides Config.K when positive.
	K int
	// Labels names clusters by id; when set a labeled table is produced.
	Labels []string
	// Write persists the representatives, full and labeled tables.
	Write bool
}

// ClusterReport is the outcome of Cluster.
type ClusterReport struct {
	RunID           string
	Result          *cluster.Result
	Representatives []cluster.ClusterMembers
	Rows            []types.ClusterRow
	// Files maps table kind (representatives, clusters, labeled) to path.
	Files    map[string]string
	Duration time.Duration
}

type clusterOutput struct {
	kind string
	file string
	rows []types.ClusterRow
	// full writes every column; otherwise Persist picks the schema.
	full bool
}

// Cluster fits the questions, ranks representatives and joins the cluster
// table. With opts.Write the tables are written under Config.OutputDir.
func (c *Client) Cluster(ctx context.Context, questions []types.Question, opts *ClusterOptions) (*ClusterReport, error) {
	if opts == nil {
		opts = &ClusterOptions{}
	}
	runID := uuid.New().String()
	ctx = telemetry.WithRun(ctx, runID, "cluster")
	log := c.logger.With("run_id", runID)
	start := time.Now()

	k := c.config.K
	if opts.K > 0 {
		k = opts.K
	}
	res, err := cluster.Fit(ctx, questions, c.encoder, cluster.Options{
		K:             k,
		Seed:          c.config.Seed,
		Restarts:      c.config.Restarts,
		MaxIterations: c.config.MaxIterations,
		Tolerance:     c.config.Tolerance,
		Parallelism:   c.config.Parallelism,
		Logger:        log,
	})
	if err != nil {
		log.ErrorContext(ctx, "Clustering failed", "error", err)
		return nil, err
	}

	reps, err := cluster.Representatives(res, c.config.TopN)
	if err != nil {
		return nil, err
	}
	rows, err := cluster.Rows(res)
	if opts.Labels != nil {
		rows, err = cluster.ApplyClusterLabels(res, opts.Labels)
	}
	if err != nil {
		return nil, err
	}

	report := &ClusterReport{
		RunID:           runID,
		Result:          res,
		Representatives: reps,
		Rows:            rows,
		Files:           map[string]string{},
	}

	if opts.Write {
		outputs := []clusterOutput{
			{"representatives", RepresentativesFile, cluster.RepresentativeRows(reps), false},
			{"clusters", ClusterTableFile, rows, true},
		}
		if opts.Labels != nil {
			outputs = append(outputs, clusterOutput{"labeled", LabeledTableFile, rows, false})
		}
		for _, out := range outputs {
			path := filepath.Join(c.config.OutputDir, out.file)
			var err error
			if out.full {
				err = tableio.WriteClusterTable(path, out.rows, tableio.SchemaFull)
			} else {
				_, err = tableio.Persist(path, out.rows)
			}
			if err != nil {
				log.ErrorContext(ctx, "Failed to persist cluster table", "path", path, "error", err)
				return nil, err
			}
			report.Files[out.kind] = path
			log.Info("Persisted cluster table", "kind", out.kind, "path", path, "rows", len(out.rows))
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

// Similar returns the topK nearest questions to index; topK <= 0 uses Config.TopK.
func (c *Client) Similar(res *cluster.Result, index, topK int) ([]types.ScoredQuestion, error) {
	if topK <= 0 {
		topK = c.config.TopK
	}
	return cluster.QuerySimilar(res, index, topK)
}

// AgreementReport is the outcome of Agreement.
type AgreementReport struct {
	RunID    string
	Labelers []string
	Records  []types.AgreementRecord
	Spectrum []types.ConsensusBucketRecord
	// Files maps table kind (agreement, spectrum) to path.
	Files map[string]string
}

// MeanAgreement averages MeanPairwiseJaccard over all questions; 1.0 when
// there are none.
func (r *AgreementReport) MeanAgreement() float64 {
	if len(r.Records) == 0 {
		return 1.0
	}
	sum := 0.0
	for _, rec := range r.Records {
		sum += rec.MeanPairwiseJaccard
	}
	return sum / float64(len(r.Records))
}

// Agreement computes both aggregation tables, cross-validates them and,
// when write is set, writes them under Config.OutputDir.
func (c *Client) Agreement(ctx context.Context, sets *agreement.LabelerTagSets, write bool) (*AgreementReport, error) {
	runID := uuid.New().String()
	ctx = telemetry.WithRun(ctx, runID, "agreement")
	log := c.logger.With("run_id", runID)

	records, err := agreement.ComputeCrossLabelerAgreement(sets, c.config.ConsensusThreshold)
	if err != nil {
		log.ErrorContext(ctx, "Agreement failed", "error", err)
		return nil, err
	}
	spectrum, err := agreement.ComputeConsensusSpectrum(sets)
	if err != nil {
		log.ErrorContext(ctx, "Consensus spectrum failed", "error", err)
		return nil, err
	}
	if err := agreement.CrossValidate(records, spectrum, c.config.ConsensusThreshold); err != nil {
		log.ErrorContext(ctx, "Agreement tables failed cross-validation", "error", err)
		return nil, err
	}

	report := &AgreementReport{
		RunID:    runID,
		Labelers: sets.Labelers(),
		Records:  records,
		Spectrum: spectrum,
		Files:    map[string]string{},
	}
	log.Info("Agreement computed",
		"labelers", len(report.Labelers),
		"questions", len(records),
		"threshold", c.config.ConsensusThreshold,
		"mean_jaccard", report.MeanAgreement())

	if !write {
		return report, nil
	}

	ext := c.config.Format.Ext()
	agreementPath := filepath.Join(c.config.OutputDir, AgreementFile+ext)
	if err := tableio.WriteAgreementTable(agreementPath, records); err != nil {
		return nil, fmt.Errorf("failed to write agreement table: %w", err)
	}
	report.Files["agreement"] = agreementPath
	log.Info("Wrote agreement table", "path", agreementPath)

	spectrumPath := filepath.Join(c.config.OutputDir, SpectrumFile+ext)
	if err := tableio.WriteSpectrumTable(spectrumPath, spectrum); err != nil {
		return nil, fmt.Errorf("failed to write spectrum table: %w", err)
	}
	report.Files["spectrum"] = spectrumPath
	log.Info("Wrote spectrum table", "path", spectrumPath)

	return report, nil
}
