// Package cli wires the batch tools into one cobra command tree and
// maps run results onto the shared exit-code contract: 0 clean, 1
// completed with item-level failures (or zero search matches), 2
// configuration or fatal pre-run error.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/happyfish100/fdfs-batch/config"
)

// errPartialFailure marks a run that completed but had item-level
// failures; the report was already written, so it is not printed
// again.
var errPartialFailure = errors.New("completed with failures")

type globalOptions struct {
	configPath  string
	listFile    string
	workers     int
	dryRun      bool
	output      string
	jsonOut     bool
	verbose     bool
	maxRPS      int
	reuseConn   bool
	resume      bool
	journalPath string
}

var opts globalOptions

// rootCmd is the base command holding the flags every tool shares.
var rootCmd = &cobra.Command{
	Use:   "fdfsbatch",
	Short: "Bulk maintenance tools for a distributed object-storage cluster",
	Long: `fdfsbatch runs criteria-driven bulk operations (cleanup, search,
tag, delete, backup, repair, replicate, rebalance) over a list of
object identifiers stored in a tracker/storage-group cluster.`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "cluster config file (YAML)")
	pf.StringVarP(&opts.listFile, "file", "f", "", "newline-delimited identifier list (required)")
	pf.IntVarP(&opts.workers, "threads", "j", 0, fmt.Sprintf("worker pool size (1-%d)", config.MaxWorkers))
	pf.BoolVarP(&opts.dryRun, "dry-run", "n", false, "evaluate without mutating the cluster")
	pf.StringVarP(&opts.output, "output", "o", "", "report destination (default stdout)")
	pf.BoolVarP(&opts.jsonOut, "json", "J", false, "render the report as JSON")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")
	pf.IntVar(&opts.maxRPS, "max-rps", 0, "limit cluster requests per second (0 = no limit)")
	pf.BoolVar(&opts.reuseConn, "reuse-conn", false, "share one cluster connection across items")
	pf.BoolVar(&opts.resume, "resume", false, "skip items journaled as succeeded in a previous run")
	pf.StringVar(&opts.journalPath, "journal", "", "outcome journal file (bbolt)")
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errPartialFailure) {
			return 1
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	return 0
}
