package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/saucepet/product-research/internal/config"
	"github.com/saucepet/product-research/internal/infrastructure"
	"github.com/saucepet/product-research/pkg/contracts/domain"
)

const (
	interestOverTimePath = "/interest_over_time"
	maxErrorBody         = 512
)

// dateLayouts are the index formats pandas emits with date_format="iso"
// plus the plain forms a hand-written gateway might use.
var dateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05.000Z",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// HTTPClient calls a trends gateway over HTTP. Requests are throttled by a
// client-side token bucket in addition to any pacing done by the caller.
type HTTPClient struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	language string
	tz       int
	logger   *slog.Logger
}

// NewHTTPClient creates a gateway client from cfg
func NewHTTPClient(cfg config.ClientConfig, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		language: cfg.Language,
		tz:       cfg.TZ,
		logger:   infrastructure.WithComponent(logger, "trends_client"),
	}
}

type interestRequest struct {
	Keywords  []string `json:"keywords"`
	Geo       string   `json:"geo"`
	Timeframe string   `json:"timeframe"`
	Category  int      `json:"cat"`
	Property  string   `json:"gprop"`
	Language  string   `json:"hl"`
	TZ        int      `json:"tz"`
}

// splitFrame is a DataFrame serialized with orient="split"
type splitFrame struct {
	Columns []string            `json:"columns"`
	Index   []json.RawMessage   `json:"index"`
	Data    [][]json.RawMessage `json:"data"`
}

// InterestOverTime implements Client
func (c *HTTPClient) InterestOverTime(ctx context.Context, batch domain.Batch, params domain.QueryParams) (*domain.Table, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	body, err := json.Marshal(interestRequest{
		Keywords:  batch,
		Geo:       params.Geo,
		Timeframe: params.Timeframe,
		Category:  params.Category,
		Property:  params.Property,
		Language:  c.language,
		TZ:        c.tz,
	})
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+interestOverTimePath, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", config.AppName+"/"+config.AppVersion)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "Gateway responded",
		slog.Any("keywords", []string(batch)),
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	infrastructure.SetSpanAttributes(ctx, attribute.Int("http.status_code", resp.StatusCode))
	if err := checkStatus(resp); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	var frame splitFrame
	if err := json.NewDecoder(resp.Body).Decode(&frame); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrDecode, err))
	}

	table, err := frame.table(batch)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return table, nil
}

// checkStatus maps non-2xx answers onto the package errors. Only 429 and 5xx
// are left retryable.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(snippet))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, resp.Status)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s: %s", ErrUpstream, resp.Status, msg)
	default:
		return backoff.Permanent(fmt.Errorf("%w: %s: %s", ErrBadRequest, resp.Status, msg))
	}
}

// table converts the frame into a domain table. An empty frame still carries
// the batch keywords as columns so they appear in the merged output.
func (f splitFrame) table(batch domain.Batch) (*domain.Table, error) {
	if len(f.Columns) == 0 && len(f.Data) == 0 {
		return &domain.Table{Columns: append([]string(nil), batch...)}, nil
	}
	if len(f.Index) != len(f.Data) {
		return nil, fmt.Errorf("%w: %d index entries for %d data rows", ErrDecode, len(f.Index), len(f.Data))
	}

	table := &domain.Table{
		Columns: f.Columns,
		Rows:    make([]domain.Row, 0, len(f.Data)),
	}
	for i, raw := range f.Data {
		if len(raw) != len(f.Columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells for %d columns", ErrDecode, i, len(raw), len(f.Columns))
		}
		date, err := parseDate(f.Index[i])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrDecode, i, err)
		}
		values := make([]domain.Cell, len(raw))
		for j, cell := range raw {
			if values[j], err = parseCell(cell); err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %v", ErrDecode, i, f.Columns[j], err)
			}
		}
		table.Rows = append(table.Rows, domain.Row{Date: date, Values: values})
	}
	return table, nil
}

// parseDate accepts an ISO string or epoch milliseconds
func parseDate(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised date %q", s)
	}

	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised date %s", raw)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// parseCell reads a score, a null or a boolean partial flag
func parseCell(raw json.RawMessage) (domain.Cell, error) {
	switch s := strings.TrimSpace(string(raw)); s {
	case "", "null":
		return domain.Cell{}, nil
	case "true":
		return domain.Score(1), nil
	case "false":
		return domain.Score(0), nil
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Cell{}, err
		}
		if math.IsNaN(v) {
			return domain.Cell{}, nil
		}
		return domain.Score(int(math.Round(v))), nil
	}
}
