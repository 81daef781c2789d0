package operations_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucepet/product-research/internal/config"
	"github.com/saucepet/product-research/internal/operations"
	tu "github.com/saucepet/product-research/internal/operations/testutil"
	"github.com/saucepet/product-research/internal/trends"
	"github.com/saucepet/product-research/pkg/contracts/domain"
)

var testParams = domain.QueryParams{Geo: "US", Timeframe: "today 12-m"}

func retryConfig(maxRetries int) config.RetryConfig {
	return config.RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  8 * time.Second,
		Multiplier: 1.7,
		Jitter:     3 * time.Second,
	}
}

func failures(n int, err error, success *domain.Table) []tu.Response {
	responses := make([]tu.Response, 0, n+1)
	for range n {
		responses = append(responses, tu.Response{Err: err})
	}
	return append(responses, tu.Response{Table: success})
}

func TestFetcher_SucceedsAfterFailures(t *testing.T) {
	for n := 1; n <= 6; n++ {
		success := tu.Table([]string{"a"}, tu.Row("2024-01-07", 50))
		client := &tu.StubClient{Responses: failures(n-1, trends.ErrRateLimited, success)}
		sleeper := &tu.RecordingSleeper{}

		f := operations.NewFetcher(client, retryConfig(n),
			operations.WithSleeper(sleeper),
			operations.WithJitter(tu.FixedJitter(time.Second)))

		got, err := f.Fetch(context.Background(), domain.Batch{"a"}, testParams)
		require.NoError(t, err, "n=%d", n)
		requireTableEqual(t, success, got)

		assert.Equal(t, n, client.CallCount())
		sleeps := sleeper.Sleeps()
		require.Len(t, sleeps, n-1)
		base := 8 * time.Second
		for i, s := range sleeps {
			assert.GreaterOrEqual(t, s, base, "sleep %d must be at least its base delay", i)
			if i > 0 {
				assert.GreaterOrEqual(t, s, sleeps[i-1], "sleeps must not decrease")
			}
			base = operations.NextDelay(base, 1.7)
		}
	}
}

func TestFetcher_DelaysGrowByMultiplier(t *testing.T) {
	client := &tu.StubClient{Responses: failures(3, trends.ErrUpstream, tu.Table([]string{"a"}))}
	sleeper := &tu.RecordingSleeper{}
	cfg := config.RetryConfig{MaxRetries: 4, BaseDelay: time.Second, Multiplier: 2, Jitter: 500 * time.Millisecond}

	f := operations.NewFetcher(client, cfg,
		operations.WithSleeper(sleeper),
		operations.WithJitter(tu.FixedJitter(100*time.Millisecond)))

	_, err := f.Fetch(context.Background(), domain.Batch{"a"}, testParams)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{
		1100 * time.Millisecond,
		2100 * time.Millisecond,
		4100 * time.Millisecond,
	}, sleeper.Sleeps())
}

func TestFetcher_ExhaustsRetries(t *testing.T) {
	cause := errors.New("connection reset")
	client := &tu.StubClient{Responses: []tu.Response{{Err: cause}}}
	sleeper := &tu.RecordingSleeper{}

	f := operations.NewFetcher(client, retryConfig(6), operations.WithSleeper(sleeper))

	got, err := f.Fetch(context.Background(), domain.Batch{"a", "b"}, testParams)
	require.Error(t, err)
	assert.Nil(t, got)

	assert.Equal(t, 6, client.CallCount())
	assert.Len(t, sleeper.Sleeps(), 5, "no sleep after the final attempt")

	var opErr *operations.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, operations.ErrorTypeFetch, opErr.Type)
	assert.Equal(t, domain.Batch{"a", "b"}, opErr.Batch)
	assert.Equal(t, 6, opErr.Attempts)
	assert.ErrorIs(t, err, cause)
}

func TestFetcher_SingleAttempt(t *testing.T) {
	client := &tu.StubClient{Responses: []tu.Response{{Err: trends.ErrRateLimited}}}
	sleeper := &tu.RecordingSleeper{}

	f := operations.NewFetcher(client, retryConfig(1), operations.WithSleeper(sleeper))

	_, err := f.Fetch(context.Background(), domain.Batch{"a"}, testParams)
	require.Error(t, err)
	assert.Equal(t, 1, client.CallCount())
	assert.Empty(t, sleeper.Sleeps())
}

func TestFetcher_PermanentErrorNotRetried(t *testing.T) {
	client := &tu.StubClient{Responses: []tu.Response{{Err: backoff.Permanent(trends.ErrBadRequest)}}}
	sleeper := &tu.RecordingSleeper{}

	f := operations.NewFetcher(client, retryConfig(6), operations.WithSleeper(sleeper))

	_, err := f.Fetch(context.Background(), domain.Batch{"a"}, testParams)
	require.Error(t, err)
	assert.True(t, operations.IsType(err, operations.ErrorTypeFetch))
	assert.ErrorIs(t, err, trends.ErrBadRequest)
	assert.Equal(t, 1, client.CallCount())
	assert.Empty(t, sleeper.Sleeps())
}

func TestFetcher_CancelledDuringBackoff(t *testing.T) {
	client := &tu.StubClient{Responses: []tu.Response{{Err: trends.ErrRateLimited}}}
	sleeper := &tu.RecordingSleeper{Err: context.Canceled}

	f := operations.NewFetcher(client, retryConfig(6), operations.WithSleeper(sleeper))

	_, err := f.Fetch(context.Background(), domain.Batch{"a"}, testParams)
	require.Error(t, err)
	assert.True(t, operations.IsType(err, operations.ErrorTypeFetch))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, trends.ErrRateLimited)
	assert.Equal(t, 1, client.CallCount())
	assert.Len(t, sleeper.Sleeps(), 1)
}

func TestFetcher_CancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &tu.StubClient{}
	sleeper := &tu.RecordingSleeper{}
	f := operations.NewFetcher(client, retryConfig(6), operations.WithSleeper(sleeper))

	_, err := f.Fetch(ctx, domain.Batch{"a"}, testParams)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, client.CallCount())
	assert.Empty(t, sleeper.Sleeps())
}

func TestFetcher_DropsPartialColumn(t *testing.T) {
	raw := tu.Table([]string{"a", "b", domain.PartialColumn},
		tu.Row("2024-01-07", 10, 20, 0),
		tu.Row("2024-01-14", 11, 21, 1),
	)
	client := &tu.StubClient{Responses: []tu.Response{{Table: raw}}}

	f := operations.NewFetcher(client, retryConfig(3), operations.WithSleeper(&tu.RecordingSleeper{}))

	got, err := f.Fetch(context.Background(), domain.Batch{"a", "b"}, testParams)
	require.NoError(t, err)

	want := tu.Table([]string{"a", "b"},
		tu.Row("2024-01-07", 10, 20),
		tu.Row("2024-01-14", 11, 21),
	)
	requireTableEqual(t, want, got)
}

func TestFetcher_NilTableBecomesEmpty(t *testing.T) {
	client := trends.ClientFunc(func(ctx context.Context, batch domain.Batch, params domain.QueryParams) (*domain.Table, error) {
		return nil, nil
	})

	f := operations.NewFetcher(client, retryConfig(3))
	got, err := f.Fetch(context.Background(), domain.Batch{"a", "b"}, testParams)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Columns)
	assert.Empty(t, got.Rows)
}

func TestFetcher_PassesParams(t *testing.T) {
	client := &tu.StubClient{}
	f := operations.NewFetcher(client, retryConfig(1))

	params := domain.QueryParams{Geo: "GB", Timeframe: "today 5-y", Category: 71, Property: "news"}
	_, err := f.Fetch(context.Background(), domain.Batch{"a"}, params)
	require.NoError(t, err)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, params, calls[0].Params)
	assert.Equal(t, domain.Batch{"a"}, calls[0].Batch)
}

func TestFetcher_LogsEachRetry(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	client := &tu.StubClient{Responses: failures(2, trends.ErrRateLimited, tu.Table([]string{"a"}))}
	f := operations.NewFetcher(client, retryConfig(3),
		operations.WithSleeper(&tu.RecordingSleeper{}),
		operations.WithLogger(logger))

	_, err := f.Fetch(context.Background(), domain.Batch{"a"}, testParams)
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, `"msg":"fetch_retry"`))
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"attempt":1`)
	assert.Contains(t, out, `"attempt":2`)
	assert.Contains(t, out, "rate limited")
}

func TestFetcher_MaxWait(t *testing.T) {
	cfg := config.RetryConfig{MaxRetries: 3, BaseDelay: time.Second, Multiplier: 2, Jitter: time.Second}
	f := operations.NewFetcher(&tu.StubClient{}, cfg)

	// (1s+1s) + (2s+1s)
	assert.Equal(t, 5*time.Second, f.MaxWait())
}
