package operations

import (
	"fmt"

	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// Split partitions keywords into consecutive batches of size elements. Only
// the last batch may be shorter. Order and duplicates are preserved and each
// batch is a copy, so callers cannot alias the input.
func Split(keywords []string, size int) ([]domain.Batch, error) {
	if size < 1 {
		return nil, NewConfigError(fmt.Sprintf("batch size must be at least 1, got %d", size), nil)
	}
	if len(keywords) == 0 {
		return nil, nil
	}

	batches := make([]domain.Batch, 0, (len(keywords)+size-1)/size)
	for start := 0; start < len(keywords); start += size {
		end := min(start+size, len(keywords))
		batch := make(domain.Batch, end-start)
		copy(batch, keywords[start:end])
		batches = append(batches, batch)
	}
	return batches, nil
}
