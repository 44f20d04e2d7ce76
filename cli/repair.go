package cli

import (
	"github.com/spf13/cobra"

	"github.com/happyfish100/fdfs-batch/action"
)

var repairCriteria criteriaFlags

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Verify checksums of matching objects and re-upload mismatches",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		crit, err := repairCriteria.buildRequired("repair")
		if err != nil {
			return err
		}
		exec := action.NewRepair(cfg.Run.DryRun)
		return executeRun(cmd.Context(), cfg, crit, exec, runOptions{tool: "repair", perItem: true})
	},
}

func init() {
	addCriteriaFlags(repairCmd, &repairCriteria)
	rootCmd.AddCommand(repairCmd)
}
