package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucepet/product-research/internal/trends"
	"github.com/saucepet/product-research/pkg/contracts/domain"
)

func stubClient(calls *int) trends.Client {
	return trends.ClientFunc(func(ctx context.Context, batch domain.Batch, params domain.QueryParams) (*domain.Table, error) {
		*calls++
		values := make([]domain.Cell, len(batch))
		for i := range batch {
			values[i] = domain.Score(10 * (i + 1))
		}
		return &domain.Table{
			Columns: batch,
			Rows: []domain.Row{
				{Date: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), Values: values},
			},
		}, nil
	})
}

func setupRun(t *testing.T, keywords string) (dir string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keywords.txt"), []byte(keywords), 0o644))

	t.Setenv("TRENDS_CONFIG_FILE", "")
	t.Setenv("TRENDS_PACING_BASE_DELAY", "0s")
	t.Setenv("TRENDS_PACING_JITTER", "0s")
	t.Setenv("TRENDS_RETRY_BASE_DELAY", "0s")
	t.Setenv("TRENDS_RETRY_JITTER", "0s")
	t.Setenv("TRENDS_LOGGING_LEVEL", "error")
	return dir
}

func TestRun_Success(t *testing.T) {
	dir := setupRun(t, "a\nb\n")
	out := filepath.Join(dir, "out", "trends.csv")

	var stdout, stderr bytes.Buffer
	calls := 0
	code := run(context.Background(), []string{
		"-keywords", filepath.Join(dir, "keywords.txt"),
		"-out", out,
		"-geo", "GB",
	}, &stdout, &stderr, stubClient(&calls))

	require.Equal(t, exitOK, code, stderr.String())
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Trends saved -> "+out+" (1 rows)\n", stdout.String())

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "date,a,b\n2024-01-07,10,20\n", string(content))
}

func TestRun_Preview(t *testing.T) {
	dir := setupRun(t, "a\n")

	var stdout, stderr bytes.Buffer
	calls := 0
	code := run(context.Background(), []string{
		"-keywords", filepath.Join(dir, "keywords.txt"),
		"-out", filepath.Join(dir, "trends.tsv"),
		"-preview", "5",
	}, &stdout, &stderr, stubClient(&calls))

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stderr.String(), "2024-01-07")
}

func TestRun_EmptyKeywordFile(t *testing.T) {
	dir := setupRun(t, "\n\n")

	var stdout, stderr bytes.Buffer
	calls := 0
	code := run(context.Background(), []string{
		"-keywords", filepath.Join(dir, "keywords.txt"),
		"-out", filepath.Join(dir, "trends.csv"),
	}, &stdout, &stderr, stubClient(&calls))

	assert.Equal(t, exitConfigError, code)
	assert.Zero(t, calls)
	assert.Empty(t, stdout.String())
	assert.True(t, strings.HasPrefix(stderr.String(), "config error:"), stderr.String())
	assert.NoFileExists(t, filepath.Join(dir, "trends.csv"))
}

func TestRun_FetchFailure(t *testing.T) {
	dir := setupRun(t, "a\n")
	t.Setenv("TRENDS_RETRY_MAX_RETRIES", "2")

	failing := trends.ClientFunc(func(ctx context.Context, batch domain.Batch, params domain.QueryParams) (*domain.Table, error) {
		return nil, trends.ErrRateLimited
	})

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-keywords", filepath.Join(dir, "keywords.txt"),
		"-out", filepath.Join(dir, "trends.csv"),
	}, &stdout, &stderr, failing)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "fetch error:")
	assert.Contains(t, stderr.String(), "rate limited")
	assert.NoFileExists(t, filepath.Join(dir, "trends.csv"))
}

func TestRun_InvalidConfig(t *testing.T) {
	setupRun(t, "a\n")
	t.Setenv("TRENDS_BATCH_SIZE", "9")

	var stdout, stderr bytes.Buffer
	calls := 0
	code := run(context.Background(), nil, &stdout, &stderr, stubClient(&calls))

	assert.Equal(t, exitConfigError, code)
	assert.Zero(t, calls)
	assert.Contains(t, stderr.String(), "config error:")
}

func TestRun_MissingKeywordFile(t *testing.T) {
	dir := setupRun(t, "a\n")

	var stdout, stderr bytes.Buffer
	calls := 0
	code := run(context.Background(), []string{
		"-keywords", filepath.Join(dir, "missing.txt"),
		"-out", filepath.Join(dir, "trends.csv"),
	}, &stdout, &stderr, stubClient(&calls))

	assert.Equal(t, exitConfigError, code)
	assert.Zero(t, calls)
	assert.Contains(t, stderr.String(), "config error:")
	assert.Contains(t, stderr.String(), "missing.txt")
}

func TestRun_UnsupportedOutputExtension(t *testing.T) {
	dir := setupRun(t, "a\n")

	var stdout, stderr bytes.Buffer
	calls := 0
	code := run(context.Background(), []string{
		"-keywords", filepath.Join(dir, "keywords.txt"),
		"-out", filepath.Join(dir, "trends.json"),
	}, &stdout, &stderr, stubClient(&calls))

	assert.Equal(t, exitConfigError, code)
	assert.Zero(t, calls, "no request before the output is known to be writable")
	assert.Contains(t, stderr.String(), "unsupported output extension")
}

func TestRun_BadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-nope"}, &stdout, &stderr, nil)
	assert.Equal(t, exitConfigError, code)
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-version"}, &stdout, &stderr, nil)

	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(stdout.String(), "fetchtrends v"))
}

func TestRun_PanicRecovered(t *testing.T) {
	dir := setupRun(t, "a\n")

	panicking := trends.ClientFunc(func(ctx context.Context, batch domain.Batch, params domain.QueryParams) (*domain.Table, error) {
		panic("boom")
	})

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-keywords", filepath.Join(dir, "keywords.txt"),
		"-out", filepath.Join(dir, "trends.csv"),
	}, &stdout, &stderr, panicking)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "PANIC RECOVERED: boom")
}
