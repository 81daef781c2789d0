package config

import (
	"time"

	"github.com/saucepet/product-research/pkg/contracts"
)

// Application constants
const (
	AppName    = "fetchtrends"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable (TRENDS_BATCH_SIZE, ...)
	EnvPrefix = "TRENDS"
)

// Query defaults
const (
	DefaultGeo       = "US"
	DefaultTimeframe = "today 12-m"
	DefaultLanguage  = "en-US"
)

// Batching and retry defaults. The upstream source accepts at most five
// keywords per request.
const (
	MaxKeywordsPerRequest    = 5
	DefaultBatchSize         = MaxKeywordsPerRequest
	DefaultMaxRetries        = 6
	DefaultRetryBaseDelay    = 8 * time.Second
	DefaultBackoffMultiplier = 1.7
	DefaultRetryJitter       = 3 * time.Second
	DefaultPacingBaseDelay   = 8 * time.Second
	DefaultPacingJitter      = 4 * time.Second
)

// Network defaults
const (
	DefaultClientEndpoint = "http://127.0.0.1:8787"
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultClientRPS      = 0.5
	DefaultClientBurst    = 1
)

// File defaults (relative to the working directory)
const (
	DefaultKeywordsFile = "keywords.txt"
	DefaultOutputDir    = "data"
	DefaultOutputFile   = "trends.csv"
)

// Log defaults
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
