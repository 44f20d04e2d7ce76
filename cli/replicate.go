package cli

import (
	"github.com/spf13/cobra"

	"github.com/happyfish100/fdfs-batch/action"
)

var (
	replicateCriteria criteriaFlags
	replicateGroup    string
)

var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Ensure matching objects have a copy in the target storage group",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		crit, err := replicateCriteria.buildRequired("replicate")
		if err != nil {
			return err
		}
		exec, err := action.NewReplicate(replicateGroup, cfg.Run.DryRun)
		if err != nil {
			return err
		}
		return executeRun(cmd.Context(), cfg, crit, exec, runOptions{tool: "replicate", perItem: true})
	},
}

func init() {
	addCriteriaFlags(replicateCmd, &replicateCriteria)
	replicateCmd.Flags().StringVar(&replicateGroup, "group", "", "target storage group")
	replicateCmd.MarkFlagRequired("group")
	rootCmd.AddCommand(replicateCmd)
}
