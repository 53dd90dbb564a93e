package gtrends

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited is wrapped when the provider answers 429.
	ErrRateLimited = errors.New("rate limited by trends provider")

	ErrNoTimeseriesWidget = errors.New("explore response has no TIMESERIES widget")
)

// ProviderError reports a transport or protocol failure talking to the provider.
// It is never used for "no data", which is an empty table.
type ProviderError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("trends %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("trends %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
