package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/happyfish100/fdfs-batch/action"
)

var (
	tagCriteria criteriaFlags
	tagSet      []string
	tagStrip    []string
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Merge or strip metadata entries on the listed objects",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		crit, err := tagCriteria.buildOptional()
		if err != nil {
			return err
		}

		set := make(map[string]string, len(tagSet))
		for _, kv := range tagSet {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || key == "" {
				return fmt.Errorf("--set wants key=value, got %q", kv)
			}
			set[key] = value
		}
		exec, err := action.NewTag(set, tagStrip, cfg.Run.DryRun)
		if err != nil {
			return err
		}
		return executeRun(cmd.Context(), cfg, crit, exec, runOptions{tool: "tag"})
	},
}

func init() {
	addCriteriaFlags(tagCmd, &tagCriteria)
	tagCmd.Flags().StringArrayVar(&tagSet, "set", nil, "metadata entry to merge in, key=value (repeatable)")
	tagCmd.Flags().StringArrayVar(&tagStrip, "strip", nil, "metadata key to remove (repeatable)")
	rootCmd.AddCommand(tagCmd)
}
