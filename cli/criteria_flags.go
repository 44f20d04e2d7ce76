package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyfish100/fdfs-batch/criteria"
)

// criteriaFlags binds the shared criteria options of one subcommand.
// Each command carries its own instance so flag state never bleeds
// between tools.
type criteriaFlags struct {
	olderThan time.Duration
	idleFor   time.Duration
	minSize   int64
	maxSize   int64
	meta      string
	metaLoose bool
	name      string
	anyMode   bool
}

func addCriteriaFlags(cmd *cobra.Command, cf *criteriaFlags) {
	fl := cmd.Flags()
	fl.DurationVar(&cf.olderThan, "older-than", 0, "match objects created at least this long ago (e.g. 720h)")
	fl.DurationVar(&cf.idleFor, "idle-for", 0, "match objects not accessed for at least this long")
	fl.Int64Var(&cf.minSize, "min-size", 0, "match objects of at least this many bytes")
	fl.Int64Var(&cf.maxSize, "max-size", 0, "match objects of at most this many bytes")
	fl.StringVar(&cf.meta, "meta", "", "match a metadata entry, key=value")
	fl.BoolVar(&cf.metaLoose, "meta-substr", false, "treat the metadata value as a substring match")
	fl.StringVar(&cf.name, "name", "", "shell glob applied to the identifier's file name")
	fl.BoolVar(&cf.anyMode, "any", false, "match when any clause holds (default: all clauses)")
}

// configured reports whether at least one clause flag was given.
func (cf *criteriaFlags) configured() bool {
	return cf.olderThan > 0 || cf.idleFor > 0 || cf.minSize > 0 || cf.maxSize > 0 ||
		cf.meta != "" || cf.name != ""
}

// build compiles the flags into a Criteria.
func (cf *criteriaFlags) build() (*criteria.Criteria, error) {
	cfg := criteria.Config{
		MinAge:      cf.olderThan,
		MinIdle:     cf.idleFor,
		MinSize:     cf.minSize,
		MaxSize:     cf.maxSize,
		NamePattern: cf.name,
	}
	if cf.anyMode {
		cfg.Mode = criteria.ModeAny
	}
	if cf.meta != "" {
		key, value, ok := strings.Cut(cf.meta, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--meta wants key=value, got %q", cf.meta)
		}
		cfg.MetaKey = key
		cfg.MetaValue = value
		cfg.MetaSubstring = cf.metaLoose
	}
	return criteria.New(cfg)
}

// buildRequired is for tools whose criteria is mandatory.
func (cf *criteriaFlags) buildRequired(tool string) (*criteria.Criteria, error) {
	if !cf.configured() {
		return nil, fmt.Errorf("%s requires at least one criteria flag (--older-than, --idle-for, --min-size, --max-size, --meta, --name)", tool)
	}
	return cf.build()
}

// buildOptional is for tools that act on every item when no criteria
// flags are given; they pass a nil Criteria to the engine.
func (cf *criteriaFlags) buildOptional() (*criteria.Criteria, error) {
	if !cf.configured() {
		return nil, nil
	}
	return cf.build()
}
