package cli

import (
	"github.com/spf13/cobra"

	"github.com/happyfish100/fdfs-batch/action"
)

var (
	rebalanceCriteria criteriaFlags
	rebalanceGroup    string
)

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Move the listed objects to another storage group",
	Long: `rebalance moves each object to the target group: upload there,
confirm, then delete the source copy. Objects already in the target
group are left in place. Criteria are optional; without them every
listed identifier is moved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		crit, err := rebalanceCriteria.buildOptional()
		if err != nil {
			return err
		}
		exec, err := action.NewRebalance(rebalanceGroup, cfg.Run.DryRun)
		if err != nil {
			return err
		}
		return executeRun(cmd.Context(), cfg, crit, exec, runOptions{tool: "rebalance", perItem: true})
	},
}

func init() {
	addCriteriaFlags(rebalanceCmd, &rebalanceCriteria)
	rebalanceCmd.Flags().StringVar(&rebalanceGroup, "group", "", "target storage group")
	rebalanceCmd.MarkFlagRequired("group")
	rootCmd.AddCommand(rebalanceCmd)
}
