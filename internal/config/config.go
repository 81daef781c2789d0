package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// Config represents the complete run configuration. It is built once at
// startup and passed by value into every component.
type Config struct {
	Query     QueryConfig     `yaml:"query" envconfig:"QUERY"`
	Batch     BatchConfig     `yaml:"batch" envconfig:"BATCH"`
	Retry     RetryConfig     `yaml:"retry" envconfig:"RETRY"`
	Pacing    PacingConfig    `yaml:"pacing" envconfig:"PACING"`
	Client    ClientConfig    `yaml:"client" envconfig:"CLIENT"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// QueryConfig contains the filters sent with every batch.
// GEO and TF are also read without the TRENDS_ prefix.
type QueryConfig struct {
	Geo       string `yaml:"geo" envconfig:"GEO"`
	Timeframe string `yaml:"timeframe" envconfig:"TF" validate:"required"`
	Category  int    `yaml:"category" split_words:"true" validate:"min=0"`
	Property  string `yaml:"property" split_words:"true" validate:"omitempty,oneof=images news youtube froogle"`
}

// Params converts the query configuration into request parameters
func (q QueryConfig) Params() domain.QueryParams {
	return domain.QueryParams{
		Geo:       q.Geo,
		Timeframe: q.Timeframe,
		Category:  q.Category,
		Property:  q.Property,
	}
}

// BatchConfig contains keyword batching configuration
type BatchConfig struct {
	Size int `yaml:"size" split_words:"true" validate:"min=1,max=5"`
}

// RetryConfig contains the per-batch retry and backoff policy
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries" split_words:"true" validate:"min=1"`
	BaseDelay  time.Duration `yaml:"base_delay" split_words:"true" validate:"min=0"`
	Multiplier float64       `yaml:"multiplier" split_words:"true" validate:"gt=1"`
	Jitter     time.Duration `yaml:"jitter" split_words:"true" validate:"min=0"`
}

// PacingConfig contains the pause applied between batch fetches
type PacingConfig struct {
	BaseDelay      time.Duration `yaml:"base_delay" split_words:"true" validate:"min=0"`
	Jitter         time.Duration `yaml:"jitter" split_words:"true" validate:"min=0"`
	PauseAfterLast bool          `yaml:"pause_after_last" split_words:"true"`
}

// ClientConfig contains trends gateway client configuration
type ClientConfig struct {
	Endpoint string        `yaml:"endpoint" split_words:"true" validate:"required,url"`
	Timeout  time.Duration `yaml:"timeout" split_words:"true" validate:"gt=0"`
	RPS      float64       `yaml:"rps" split_words:"true" validate:"gt=0"`
	Burst    int           `yaml:"burst" split_words:"true" validate:"min=1"`
	Language string        `yaml:"language" split_words:"true" validate:"required"`
	TZ       int           `yaml:"tz" split_words:"true"`
}

// OutputConfig contains input and output file locations
type OutputConfig struct {
	KeywordsFile string `yaml:"keywords_file" split_words:"true" validate:"required"`
	Dir          string `yaml:"dir" split_words:"true" validate:"required"`
	File         string `yaml:"file" split_words:"true" validate:"required"`
	BOMPrefix    bool   `yaml:"bom_prefix" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"omitempty,oneof=debug info warn warning error"`
	Format   string `yaml:"format" split_words:"true"`
	Output   string `yaml:"output" split_words:"true" validate:"omitempty,oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// TelemetryConfig contains tracing and metrics sinks. Empty paths disable the sink.
type TelemetryConfig struct {
	TraceFile   string `yaml:"trace_file" split_words:"true"`
	MetricsFile string `yaml:"metrics_file" split_words:"true"`
}

// ErrInvalid is wrapped by every validation failure returned from Load
var ErrInvalid = errors.New("invalid configuration")

var validate = validator.New()

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
func Load(configFile string) (Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG_FILE")
	}
	if configFile != "" {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg. Keys absent from the file keep
// their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s=%s)", fe.Namespace(), fe.Tag(), fe.Param()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Default returns default configuration
func Default() Config {
	return Config{
		Query: QueryConfig{
			Geo:       DefaultGeo,
			Timeframe: DefaultTimeframe,
		},
		Batch: BatchConfig{
			Size: DefaultBatchSize,
		},
		Retry: RetryConfig{
			MaxRetries: DefaultMaxRetries,
			BaseDelay:  DefaultRetryBaseDelay,
			Multiplier: DefaultBackoffMultiplier,
			Jitter:     DefaultRetryJitter,
		},
		Pacing: PacingConfig{
			BaseDelay: DefaultPacingBaseDelay,
			Jitter:    DefaultPacingJitter,
		},
		Client: ClientConfig{
			Endpoint: DefaultClientEndpoint,
			Timeout:  DefaultHTTPTimeout,
			RPS:      DefaultClientRPS,
			Burst:    DefaultClientBurst,
			Language: DefaultLanguage,
		},
		Output: OutputConfig{
			KeywordsFile: DefaultKeywordsFile,
			Dir:          DefaultOutputDir,
			File:         DefaultOutputFile,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: "logs/fetchtrends.log",
		},
	}
}
