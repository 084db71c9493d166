package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Embedding provider configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Retry configuration for the embedding provider
	Retry RetryConfig `mapstructure:"retry"`

	// CircuitBreaker configuration for the embedding provider
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`

	// Cluster configuration
	Cluster ClusterConfig `mapstructure:"cluster"`

	// Agreement configuration
	Agreement AgreementConfig `mapstructure:"agreement"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // openai, embedeverything
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	BatchSize  int    `mapstructure:"batch_size"`
	Dimensions int    `mapstructure:"dimensions"`
	CacheDir   string `mapstructure:"cache_dir"` // empty disables the on-disk cache
}

// RetryConfig holds retry settings for embedding calls
type RetryConfig struct {
	MaxRetries        int     `mapstructure:"max_retries"`
	InitialDelayMS    int     `mapstructure:"initial_delay_ms"`
	MaxDelayMS        int     `mapstructure:"max_delay_ms"`
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// ClusterConfig holds k-means settings
type ClusterConfig struct {
	K             int     `mapstructure:"k"`
	Seed          int64   `mapstructure:"seed"`
	Restarts      int     `mapstructure:"restarts"`
	MaxIterations int     `mapstructure:"max_iterations"`
	Tolerance     float64 `mapstructure:"tolerance"`
	Parallelism   int     `mapstructure:"parallelism"`
	TopN          int     `mapstructure:"top_n"`
	TopK          int     `mapstructure:"top_k"`
}

// AgreementConfig holds cross-labeler aggregation settings
type AgreementConfig struct {
	ConsensusThreshold int `mapstructure:"consensus_threshold"`
}

// OutputConfig controls where result tables are written
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"` // csv, parquet
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Embedding defaults
	viper.SetDefault("embedding.provider", "openai")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.batch_size", 100)

	// Retry defaults
	viper.SetDefault("retry.max_retries", 3)
	viper.SetDefault("retry.initial_delay_ms", 1000)
	viper.SetDefault("retry.max_delay_ms", 60000)
	viper.SetDefault("retry.backoff_multiplier", 2.0)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", false)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Cluster defaults
	viper.SetDefault("cluster.k", 8)
	viper.SetDefault("cluster.seed", 42)
	viper.SetDefault("cluster.restarts", 10)
	viper.SetDefault("cluster.max_iterations", 300)
	viper.SetDefault("cluster.tolerance", 1e-4)
	viper.SetDefault("cluster.parallelism", 1)
	viper.SetDefault("cluster.top_n", 10)
	viper.SetDefault("cluster.top_k", 6)

	// Agreement defaults
	viper.SetDefault("agreement.consensus_threshold", 3)

	// Output defaults
	viper.SetDefault("output.dir", "./temp_result")
	viper.SetDefault("output.format", "csv")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		defaultPath := fmt.Sprintf("%s/.surveylens/telemetry", home)
		viper.SetDefault("telemetry.parquet_path", defaultPath)
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.Embedding.APIKey == "" {
		config.Embedding.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" && config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = baseURL
	}
	if provider := os.Getenv("EMBEDDING_PROVIDER"); provider != "" {
		config.Embedding.Provider = provider
	}
	if model := os.Getenv("EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}
	if dir := os.Getenv("EMBEDDING_CACHE_DIR"); dir != "" {
		config.Embedding.CacheDir = dir
	}

	// Output settings
	if dir := os.Getenv("SURVEYLENS_OUTPUT_DIR"); dir != "" {
		config.Output.Dir = dir
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
