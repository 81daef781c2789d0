package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// ClientCall records one InterestOverTime call
type ClientCall struct {
	Batch  domain.Batch
	Params domain.QueryParams
}

// Response is one scripted client answer
type Response struct {
	Table *domain.Table
	Err   error
}

// StubClient answers InterestOverTime from a script. Responses are consumed
// in order; once the script runs out the last response repeats. When
// ByKeyword is set it takes precedence and is keyed by the first keyword of
// the batch.
type StubClient struct {
	Responses []Response
	ByKeyword map[string]*domain.Table

	mu    sync.Mutex
	calls []ClientCall
}

// InterestOverTime implements trends.Client
func (s *StubClient) InterestOverTime(ctx context.Context, batch domain.Batch, params domain.QueryParams) (*domain.Table, error) {
	s.mu.Lock()
	n := len(s.calls)
	s.calls = append(s.calls, ClientCall{Batch: append(domain.Batch(nil), batch...), Params: params})
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.ByKeyword != nil {
		if t, ok := s.ByKeyword[batch[0]]; ok {
			return t.Clone(), nil
		}
		return &domain.Table{Columns: append([]string(nil), batch...)}, nil
	}

	if len(s.Responses) == 0 {
		return &domain.Table{Columns: append([]string(nil), batch...)}, nil
	}
	r := s.Responses[min(n, len(s.Responses)-1)]
	if r.Err != nil || r.Table == nil {
		return nil, r.Err
	}
	return r.Table.Clone(), nil
}

// Calls returns a copy of the recorded calls
func (s *StubClient) Calls() []ClientCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ClientCall(nil), s.calls...)
}

// CallCount returns the number of recorded calls
func (s *StubClient) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// RecordingSleeper records requested waits without sleeping
type RecordingSleeper struct {
	// Err, when set, is returned from every Sleep
	Err error

	mu     sync.Mutex
	sleeps []time.Duration
}

// Sleep records d and returns immediately
func (r *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	return ctx.Err()
}

// Sleeps returns a copy of the recorded waits
func (r *RecordingSleeper) Sleeps() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.sleeps...)
}

// FixedJitter returns a jitter function that always yields d, capped at the limit
func FixedJitter(d time.Duration) func(time.Duration) time.Duration {
	return func(limit time.Duration) time.Duration {
		if limit <= 0 {
			return 0
		}
		return min(d, limit)
	}
}

// MemoryWriter keeps written tables in memory
type MemoryWriter struct {
	Err error

	mu     sync.Mutex
	writes map[string]*domain.Table
}

// Write stores a copy of table under path
func (w *MemoryWriter) Write(path string, table *domain.Table) error {
	if w.Err != nil {
		return w.Err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writes == nil {
		w.writes = make(map[string]*domain.Table)
	}
	w.writes[path] = table.Clone()
	return nil
}

// Written returns the table stored for path, or nil
func (w *MemoryWriter) Written(path string) *domain.Table {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes[path]
}

// WriteCount returns how many paths were written
func (w *MemoryWriter) WriteCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}
