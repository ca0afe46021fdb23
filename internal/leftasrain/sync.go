package leftasrain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
)

// ErrTotalUnavailable is returned by Sync when the catalog size is unknown.
var ErrTotalUnavailable = errors.New("leftasrain catalog size unavailable")

// SyncOptions controls Sync.
type SyncOptions struct {
	// SaveEvery saves the cache after this many newly fetched songs. 0 saves only at the end.
	SaveEvery int
	// OnProgress is called after each ID with the number of IDs processed.
	OnProgress func(done, total int)
	// Locker, if set, is held around each fetch and save so other callers
	// can use the client between songs.
	Locker sync.Locker
}

// SyncStats summarizes a Sync run.
type SyncStats struct {
	Total   int
	Cached  int
	Fetched int
	Failed  int
}

// Sync fetches every song of the catalog that is not cached yet, one request
// at a time, and saves the cache. Songs that fail are skipped.
func (c *Client) Sync(ctx context.Context, opts SyncOptions) (SyncStats, error) {
	lock := opts.Locker
	if lock == nil {
		lock = noopLocker{}
	}

	lock.Lock()
	total := c.Total(ctx)
	lock.Unlock()

	stats := SyncStats{Total: total}
	if total == 0 {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		return stats, ErrTotalUnavailable
	}

	unsaved := 0
	save := func() error {
		if unsaved == 0 {
			return nil
		}
		unsaved = 0
		lock.Lock()
		defer lock.Unlock()
		return c.SaveDB()
	}

	for id := 0; id < total; id++ {
		if err := ctx.Err(); err != nil {
			if saveErr := save(); saveErr != nil {
				return stats, fmt.Errorf("%w (save failed: %v)", err, saveErr)
			}
			return stats, err
		}

		lock.Lock()
		if _, cached := c.db[strconv.Itoa(id)]; cached {
			stats.Cached++
		} else if _, ok := c.fetchSong(ctx, id, true); ok {
			stats.Fetched++
			unsaved++
		} else {
			stats.Failed++
		}
		lock.Unlock()

		if opts.SaveEvery > 0 && unsaved >= opts.SaveEvery {
			if err := save(); err != nil {
				return stats, err
			}
		}
		if opts.OnProgress != nil {
			opts.OnProgress(id+1, total)
		}
	}

	if err := save(); err != nil {
		return stats, err
	}
	c.logger.Info("leftasrain: sync done, %d fetched, %d cached, %d failed", stats.Fetched, stats.Cached, stats.Failed)
	return stats, nil
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}
