package trends

import (
	"context"
	"errors"

	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// Client fetches a dated time series for one batch of keywords
type Client interface {
	InterestOverTime(ctx context.Context, batch domain.Batch, params domain.QueryParams) (*domain.Table, error)
}

// ClientFunc adapts a function to the Client interface
type ClientFunc func(ctx context.Context, batch domain.Batch, params domain.QueryParams) (*domain.Table, error)

// InterestOverTime calls f
func (f ClientFunc) InterestOverTime(ctx context.Context, batch domain.Batch, params domain.QueryParams) (*domain.Table, error) {
	return f(ctx, batch, params)
}

var (
	// ErrRateLimited is returned when the gateway answers 429
	ErrRateLimited = errors.New("trends: rate limited")
	// ErrUpstream is returned for 5xx answers
	ErrUpstream = errors.New("trends: upstream error")
	// ErrBadRequest is returned for other 4xx answers
	ErrBadRequest = errors.New("trends: bad request")
	// ErrDecode is returned when the response body cannot be parsed
	ErrDecode = errors.New("trends: malformed response")
)
