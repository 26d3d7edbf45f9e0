package news

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Aggregator merges the items of several feeds.
//
// The items are kept in memory and replaced on every successful Refresh.
// It is safe for concurrent use.
type Aggregator struct {
	fetcher  Fetcher
	feeds    []string
	maxItems int
	log      zerolog.Logger

	mu      sync.RWMutex
	items   []Item
	updated time.Time
}

// NewAggregator creates an aggregator of feeds keeping at most maxItems items.
func NewAggregator(fetcher Fetcher, feeds []string, maxItems int, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		fetcher:  fetcher,
		feeds:    slices.Clone(feeds),
		maxItems: maxItems,
		log:      log.With().Str("component", "news").Logger(),
	}
}

// Refresh fetches every feed and replaces the items.
//
// Items are deduplicated by link, or guid when there is no link, and sorted
// most recent first. A feed that fails is skipped and its error is part of
// the returned error. When every feed fails the previous items are kept.
func (a *Aggregator) Refresh(ctx context.Context) error {
	var (
		errs   []error
		merged []Item
		ok     int
	)
	for _, url := range a.feeds {
		items, err := a.fetcher.Fetch(ctx, url)
		if err != nil {
			a.log.Warn().Err(err).Str("feed", url).Msg("Feed refresh failed")
			errs = append(errs, fmt.Errorf("feed %s: %w", url, err))
			continue
		}
		ok++
		merged = append(merged, items...)
	}

	if ok == 0 && len(a.feeds) > 0 {
		return errors.Join(errs...)
	}

	seen := make(map[string]bool, len(merged))
	unique := merged[:0]
	for _, it := range merged {
		if seen[it.id()] {
			continue
		}
		seen[it.id()] = true
		unique = append(unique, it)
	}
	slices.SortStableFunc(unique, func(x, y Item) int {
		return cmp.Or(y.Published.Compare(x.Published), cmp.Compare(x.Title, y.Title))
	})
	if a.maxItems > 0 && len(unique) > a.maxItems {
		unique = unique[:a.maxItems]
	}

	a.mu.Lock()
	a.items = slices.Clip(unique)
	a.updated = time.Now()
	a.mu.Unlock()

	a.log.Debug().Int("items", len(unique)).Int("feeds", ok).Msg("News refreshed")
	return errors.Join(errs...)
}

// Items returns a copy of at most limit items, all of them if limit <= 0.
func (a *Aggregator) Items(limit int) []Item {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := len(a.items)
	if limit > 0 && limit < n {
		n = limit
	}
	return slices.Clone(a.items[:n])
}

// Updated returns the time of the last successful refresh.
func (a *Aggregator) Updated() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.updated
}
