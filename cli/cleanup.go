package cli

import (
	"github.com/spf13/cobra"

	"github.com/happyfish100/fdfs-batch/action"
)

var cleanupCriteria criteriaFlags

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete objects that match the given criteria",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		crit, err := cleanupCriteria.buildRequired("cleanup")
		if err != nil {
			return err
		}
		exec := action.NewDelete(cfg.Run.DryRun)
		return executeRun(cmd.Context(), cfg, crit, exec, runOptions{tool: "cleanup"})
	},
}

func init() {
	addCriteriaFlags(cleanupCmd, &cleanupCriteria)
	rootCmd.AddCommand(cleanupCmd)
}
