package cli

import (
	"context"
	"fmt"

	"github.com/happyfish100/fdfs-batch/action"
	"github.com/happyfish100/fdfs-batch/cluster"
	"github.com/happyfish100/fdfs-batch/config"
	"github.com/happyfish100/fdfs-batch/criteria"
	"github.com/happyfish100/fdfs-batch/engine"
	"github.com/happyfish100/fdfs-batch/journal"
	"github.com/happyfish100/fdfs-batch/logger"
	"github.com/happyfish100/fdfs-batch/report"
)

// loadConfig assembles the effective configuration: env, then config
// file, then flags, then defaults.
func loadConfig() (*config.AppConfig, error) {
	cfg := config.LoadFromEnv()

	if opts.configPath != "" {
		if err := config.LoadFromFile(opts.configPath, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Run.ListFile = opts.listFile
	if opts.workers > 0 {
		cfg.Run.Workers = opts.workers
	}
	if opts.dryRun {
		cfg.Run.DryRun = true
	}
	cfg.Run.Output = opts.output
	cfg.Run.JSON = opts.jsonOut
	if opts.journalPath != "" {
		cfg.Run.JournalPath = opts.journalPath
	}
	cfg.Run.Resume = opts.resume
	if opts.maxRPS > 0 {
		cfg.Cluster.MaxRPS = opts.maxRPS
	}
	if opts.reuseConn {
		cfg.Cluster.ReuseConn = true
	}
	if opts.verbose {
		cfg.Logger.Level = config.LogLevelVerbose
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runOptions are the per-tool knobs of executeRun.
type runOptions struct {
	tool string
	// perItem includes the per-item result list in the report.
	perItem bool
	// requireMatches makes a zero-match run exit 1 (search contract).
	requireMatches bool
}

// executeRun is the shared tool body: load items, build the pool, run,
// render, map the outcome onto the exit-code contract.
func executeRun(ctx context.Context, cfg *config.AppConfig, crit *criteria.Criteria, exec action.Executor, ro runOptions) error {
	log := logger.NewLogger(&cfg.Logger)
	if cfg.Run.DryRun {
		log.Info("dry-run mode: no cluster state will be modified")
	}

	// Everything up to Run is a configuration failure: surface it
	// before any worker starts.
	items, err := engine.LoadItems(cfg.Run.ListFile)
	if err != nil {
		return err
	}

	provider, err := cluster.CreateProvider(&cfg.Cluster)
	if err != nil {
		return err
	}
	defer provider.Close()

	runner, err := engine.NewRunner(provider, crit, exec, log, cfg.Run.Workers)
	if err != nil {
		return err
	}

	if cfg.Run.JournalPath != "" {
		jrnl, err := journal.Open(cfg.Run.JournalPath)
		if err != nil {
			return err
		}
		defer jrnl.Close()
		runner.WithJournal(jrnl, cfg.Run.Resume)
	}

	rep, err := runner.Run(ctx, items)
	if err != nil {
		return err
	}

	out := report.OpenOutput(cfg.Run.Output, log)
	defer out.Close()
	if err := report.Render(out, rep, report.Options{
		Tool:    ro.tool,
		JSON:    cfg.Run.JSON,
		PerItem: ro.perItem,
	}); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if rep.Stats.Failed > 0 || rep.Stats.FetchErrors > 0 {
		return errPartialFailure
	}
	if ro.requireMatches && rep.Stats.Matched == 0 {
		return errPartialFailure
	}
	return nil
}
