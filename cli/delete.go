package cli

import (
	"github.com/spf13/cobra"

	"github.com/happyfish100/fdfs-batch/action"
)

var deleteCriteria criteriaFlags

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the listed objects (optionally filtered by criteria)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// No criteria means every listed identifier is deleted.
		crit, err := deleteCriteria.buildOptional()
		if err != nil {
			return err
		}
		exec := action.NewDelete(cfg.Run.DryRun)
		return executeRun(cmd.Context(), cfg, crit, exec, runOptions{tool: "delete", perItem: true})
	},
}

func init() {
	addCriteriaFlags(deleteCmd, &deleteCriteria)
	rootCmd.AddCommand(deleteCmd)
}
