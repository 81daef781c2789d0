// Package config loads the run configuration for the trends fetcher.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (-config flag or TRENDS_CONFIG_FILE)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// Variables are namespaced with TRENDS_ and follow the struct layout:
//
//	TRENDS_BATCH_SIZE=5
//	TRENDS_RETRY_MAX_RETRIES=6
//	TRENDS_RETRY_BASE_DELAY=8s
//	TRENDS_RETRY_MULTIPLIER=1.7
//	TRENDS_PACING_BASE_DELAY=8s
//	TRENDS_CLIENT_ENDPOINT=http://127.0.0.1:8787
//
// The region and timeframe are also honoured under their short names:
//
//	GEO=GB
//	TF="today 3-m"
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	paths, err := config.GetPaths(cfg)
package config
