package engine

import (
	"sync"

	"github.com/happyfish100/fdfs-batch/model"
)

// StatsAggregator collects run counters from all workers. Each update
// is one short lock hold; workers never read totals mid-run, only the
// coordinator's progress display and the post-join report stage do.
type StatsAggregator struct {
	mu    sync.Mutex
	stats model.RunStats
}

// NewStatsAggregator creates an empty aggregator.
func NewStatsAggregator() *StatsAggregator {
	return &StatsAggregator{}
}

// Record counts one finished item. Exactly one of the outcome counters
// is incremented per item; bytes accumulate only on success.
func (a *StatsAggregator) Record(status model.ItemStatus, matched bool, bytes int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.Scanned++
	if matched {
		a.stats.Matched++
	}
	switch status {
	case model.StatusSucceeded:
		a.stats.Succeeded++
		a.stats.BytesAffected += bytes
	case model.StatusFailed:
		a.stats.Failed++
	case model.StatusSkipped:
		a.stats.Skipped++
	case model.StatusFetchError:
		a.stats.FetchErrors++
	}
}

// Snapshot returns a copy of the counters.
func (a *StatsAggregator) Snapshot() model.RunStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
