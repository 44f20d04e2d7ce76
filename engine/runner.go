// Package engine is the criteria-driven parallel batch engine every
// tool shares: a fixed worker pool pulls items from one shared cursor
// and runs each through fetch → evaluate → act → record, treating
// per-item failure as non-fatal to the batch.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/happyfish100/fdfs-batch/action"
	"github.com/happyfish100/fdfs-batch/cluster"
	"github.com/happyfish100/fdfs-batch/config"
	"github.com/happyfish100/fdfs-batch/criteria"
	"github.com/happyfish100/fdfs-batch/journal"
	"github.com/happyfish100/fdfs-batch/logger"
	"github.com/happyfish100/fdfs-batch/model"
)

// MaxWorkers mirrors config.MaxWorkers for callers of NewRunner.
const MaxWorkers = config.MaxWorkers

const progressInterval = 2 * time.Second

// Runner executes one batch run. Criteria may be nil for tools that
// act on every listed item; the action is always required.
type Runner struct {
	provider cluster.Provider
	crit     *criteria.Criteria
	act      action.Executor
	logger   logger.Logger
	workers  int

	jrnl   *journal.Journal
	resume bool
}

// NewRunner wires a runner. workers is clamped to [1, MaxWorkers].
func NewRunner(provider cluster.Provider, crit *criteria.Criteria, act action.Executor, log logger.Logger, workers int) (*Runner, error) {
	if provider == nil {
		return nil, fmt.Errorf("runner needs a cluster provider")
	}
	if act == nil {
		return nil, fmt.Errorf("runner needs an action executor")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if workers < 1 {
		workers = 1
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	return &Runner{
		provider: provider,
		crit:     crit,
		act:      act,
		logger:   log,
		workers:  workers,
	}, nil
}

// WithJournal attaches an outcome journal. With resume enabled, items
// journaled as succeeded are skipped without fetching.
func (r *Runner) WithJournal(jrnl *journal.Journal, resume bool) *Runner {
	r.jrnl = jrnl
	r.resume = resume
	return r
}

// Run processes the items and returns the aggregated report. Item
// errors never abort the run; the returned error is reserved for the
// pool itself. Cancelling ctx stops new claims; in-flight actions
// always finish.
func (r *Runner) Run(ctx context.Context, items []*model.WorkItem) (*model.Report, error) {
	workers := r.workers
	if workers > len(items) {
		workers = len(items)
	}

	cur := newCursor(len(items))
	agg := NewStatsAggregator()

	r.logger.Info("starting %s run: %d items, %d workers", r.act.Name(), len(items), workers)

	progressCtx, stopProgress := context.WithCancel(context.Background())
	go r.reportProgress(progressCtx, agg, len(items))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			log := r.logger.With("worker", workerID)
			for {
				// A cancelled context stops new claims; the item in
				// flight was allowed to finish.
				if ctx.Err() != nil {
					return
				}
				idx, ok := cur.claim()
				if !ok {
					return
				}
				item := items[idx]
				bytes := r.processItem(ctx, log, item)
				agg.Record(item.Status, item.Matched, bytes)
				if r.jrnl != nil {
					if err := r.jrnl.Record(item); err != nil {
						log.Warn("failed to journal %s: %v", item.ID, err)
					}
				}
			}
		}(w)
	}
	wg.Wait()
	stopProgress()

	stats := agg.Snapshot()
	r.logger.Info("run finished: %s", stats.String())

	return &model.Report{Stats: stats, Items: items}, nil
}

// processItem runs one item's pipeline to completion and returns the
// byte total its action affected (zero unless it succeeded). All
// remote calls happen outside any lock, on the item's own connection.
func (r *Runner) processItem(ctx context.Context, log logger.Logger, item *model.WorkItem) int64 {
	if r.resume && r.jrnl != nil && r.jrnl.Succeeded(item.Index, item.ID) {
		item.Status = model.StatusSkipped
		item.Detail = "already completed"
		log.Verbose("skip %s: journaled as succeeded", item.ID)
		return 0
	}

	conn, err := r.provider.Connect(ctx)
	if err != nil {
		item.Status = model.StatusFetchError
		item.Err = err.Error()
		log.Error("connect for %s: %v", item.ID, err)
		return 0
	}
	defer conn.Close()

	attrs, err := conn.FetchAttributes(ctx, item.ID)
	if err != nil {
		item.Status = model.StatusFetchError
		item.Err = err.Error()
		log.Verbose("fetch %s: %v", item.ID, err)
		return 0
	}
	if r.crit != nil && r.crit.NeedsMetadata() {
		meta, err := conn.FetchMetadata(ctx, item.ID)
		if err != nil {
			item.Status = model.StatusFetchError
			item.Err = err.Error()
			return 0
		}
		attrs.Metadata = meta
	}
	item.Attrs = attrs

	if r.crit != nil {
		matched, reason := r.crit.Evaluate(item.ID, attrs)
		if !matched {
			item.Status = model.StatusSkipped
			log.Verbose("skip %s: criteria not met", item.ID)
			return 0
		}
		item.Matched = true
		item.Reason = reason
	} else {
		item.Matched = true
		item.Reason = "unconditional"
	}

	// A signal between claim and act must not interrupt the mutation.
	detail, bytes, err := r.act.Apply(context.WithoutCancel(ctx), conn, item)
	if err != nil {
		item.Status = model.StatusFailed
		item.Err = err.Error()
		log.Warn("%s %s failed: %v", r.act.Name(), item.ID, err)
		return 0
	}
	item.Status = model.StatusSucceeded
	item.Detail = detail
	log.Verbose("%s %s: %s", r.act.Name(), item.ID, detail)
	return bytes
}

// reportProgress logs a coarse progress line while the pool drains.
func (r *Runner) reportProgress(ctx context.Context, agg *StatsAggregator, total int) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := agg.Snapshot()
			if s.Scanned > 0 && s.Scanned < int64(total) {
				r.logger.Info("progress: %d/%d items (%.1f%%)", s.Scanned, total, float64(s.Scanned)/float64(total)*100)
			}
		}
	}
}
