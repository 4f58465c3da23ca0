package collector

import (
	"fmt"
	"strings"
)

// UpstreamError wraps a failure from a single data source after its
// retry budget is exhausted. The cause distinguishes network/timeout
// failures from malformed responses.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// CollectionError aborts a run: one or more required counters could not
// be derived. It carries the full set of affected counters so a single
// failure report covers everything that went wrong.
type CollectionError struct {
	Counters []string
	Err      error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collect: required counters unavailable [%s]: %v",
		strings.Join(e.Counters, ", "), e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }
