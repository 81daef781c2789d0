package operations

// FetchState is the state of a single batch fetch
type FetchState string

const (
	// StateAttempting calls the client
	StateAttempting FetchState = "attempting"
	// StateBackoff waits before the next attempt
	StateBackoff FetchState = "backoff"
	// StateSucceeded holds a normalized table
	StateSucceeded FetchState = "succeeded"
	// StateExhausted holds the last error
	StateExhausted FetchState = "exhausted"
)

// IsTerminal returns true if the fetch has finished
func (s FetchState) IsTerminal() bool {
	return s == StateSucceeded || s == StateExhausted
}

// String returns the state name
func (s FetchState) String() string {
	return string(s)
}
