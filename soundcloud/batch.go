package soundcloud

import (
	"context"
	"fmt"

	"github.com/amonks/soundscout/data"
	"golang.org/x/sync/errgroup"
)

const MaxBatchSize = 50

// ValidateBatch checks a batch's size without doing any work.
func ValidateBatch(usernames []string) error {
	if len(usernames) == 0 {
		return &data.InvalidArgumentError{Field: "usernames", Reason: "must not be empty"}
	}
	if len(usernames) > MaxBatchSize {
		return fmt.Errorf("%w: %w", ErrBatchTooLarge, &data.InvalidArgumentError{
			Field:  "usernames",
			Value:  len(usernames),
			Reason: fmt.Sprintf("at most %d per batch", MaxBatchSize),
		})
	}
	return nil
}

// ScrapeBatch scrapes every username independently and returns one item per
// username, in input order. A failed item never stops the others. onItem, if
// given, is called as each item finishes; calls may be concurrent.
//
// Concurrency is bounded by the Fetcher: every item shares its limiter.
func (s *Scraper) ScrapeBatch(ctx context.Context, usernames []string, includeTracks bool, maxTracks int, onItem func(int, data.BatchItem)) ([]data.BatchItem, error) {
	if err := ValidateBatch(usernames); err != nil {
		return nil, err
	}

	items := make([]data.BatchItem, len(usernames))

	// The functions never return errors, so one failure can't cancel its
	// siblings.
	var g errgroup.Group
	for i, username := range usernames {
		g.Go(func() error {
			item := data.BatchItem{Username: username}
			artist, err := s.ScrapeArtist(ctx, username, includeTracks, maxTracks)
			if err != nil {
				item.Status = data.BatchItemFailed
				item.Error = err.Error()
			} else {
				item.Status = data.BatchItemSuccess
				item.Artist = artist
			}
			items[i] = item
			if onItem != nil {
				onItem(i, item)
			}
			return nil
		})
	}
	g.Wait()

	return items, nil
}
