package soundcloud

import (
	"errors"
	"fmt"
)

var (
	ErrArtistNotFound = errors.New("artist not found")
	ErrTrackNotFound  = errors.New("track not found")

	// ErrBatchTooLarge is returned, together with a
	// *data.InvalidArgumentError, for batches over MaxBatchSize.
	ErrBatchTooLarge = errors.New("batch too large")
)

// ScrapeError wraps a lower-level failure with what was being scraped.
type ScrapeError struct {
	Op     string
	Target string
	Err    error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("error scraping %s '%s': %s", e.Op, e.Target, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }
