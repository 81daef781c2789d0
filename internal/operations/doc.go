// Package operations runs the trends fetch pipeline.
//
// A run loads keywords, splits them into batches no larger than the upstream
// per-request limit and fetches each batch in order. Every fetch is wrapped in
// bounded retry with exponential backoff and jitter, and successful fetches
// are followed by a pacing pause. The per-batch tables are then outer-joined
// on their date axis and handed to a TableWriter.
//
// Core Components:
//
// Split: partitions the keyword list into contiguous batches.
//
// Fetcher: drives one batch through an explicit state machine
// (attempting, backoff, succeeded, exhausted). Delays come from a Schedule,
// which implements backoff.BackOff on top of the pure NextDelay function.
//
// Pacer: sleeps a base delay plus jitter between batch fetches.
//
// Merge: reduces the ordered per-batch tables into one wide table sorted by date.
//
// Manager: wires the above together and reports a Result.
//
// Example usage:
//
//	client := trends.NewHTTPClient(cfg.Client, logger)
//	writer := exporter.NewWriter(cfg.Output, logger)
//	manager := operations.NewManager(cfg, client, writer, paths.OutputFile,
//		operations.WithLogger(logger),
//		operations.WithTelemetry(telemetry))
//
//	result, err := manager.RunFile(ctx, paths.KeywordsFile)
//
// Sleeping and jitter are injectable so that tests run without real delays.
// Batches are never fetched concurrently.
package operations
