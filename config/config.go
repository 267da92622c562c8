package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Insights InsightsConfig `yaml:"insights"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Loader   LoaderConfig   `yaml:"loader"`
	Output   OutputConfig   `yaml:"output"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type InsightsConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type AnalysisConfig struct {
	// PlacementCohorts keys cohorts as country|domain|device|placement
	// instead of the coarse country|domain|device aggregation.
	PlacementCohorts bool `yaml:"placement_cohorts"`
	// TrackReorders classifies pure bidder-list reordering as its own
	// change kind instead of ignoring it.
	TrackReorders bool `yaml:"track_reorders"`
	// WindowDays is the trailing ranking window; 0 means the full observed
	// period.
	WindowDays   int `yaml:"window_days"`
	TopN         int `yaml:"top_n"`
	ExampleLimit int `yaml:"example_limit"`
	RecentPairs  int `yaml:"recent_pairs"`
}

type LoaderConfig struct {
	MaxWorkers int `yaml:"max_workers"`
}

type OutputConfig struct {
	Dir      string        `yaml:"dir"`
	Manifest bool          `yaml:"manifest"`
	Parquet  ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Output        string `yaml:"output"`
	MaxAge        int    `yaml:"max_age"`
	CloudWatch    bool   `yaml:"cloudwatch"`
	DashboardName string `yaml:"dashboard_name"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(resolveEnvSpecificPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Analysis: AnalysisConfig{
			TopN:         10,
			ExampleLimit: 5,
			RecentPairs:  5,
		},
		Loader: LoaderConfig{MaxWorkers: 4},
		Output: OutputConfig{Dir: "reports", Manifest: true},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Insights.Name == "" {
		return fmt.Errorf("insights.name is required")
	}

	if cfg.Insights.Version == "" {
		return fmt.Errorf("insights.version is required")
	}

	if cfg.Analysis.WindowDays < 0 {
		return fmt.Errorf("analysis.window_days must not be negative")
	}
	if cfg.Analysis.TopN <= 0 {
		return fmt.Errorf("analysis.top_n must be greater than 0")
	}
	if cfg.Analysis.ExampleLimit <= 0 {
		return fmt.Errorf("analysis.example_limit must be greater than 0")
	}
	if cfg.Analysis.RecentPairs <= 0 {
		return fmt.Errorf("analysis.recent_pairs must be greater than 0")
	}

	if cfg.Loader.MaxWorkers <= 0 {
		return fmt.Errorf("loader.max_workers must be greater than 0")
	}

	if cfg.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
