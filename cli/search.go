package cli

import (
	"github.com/spf13/cobra"

	"github.com/happyfish100/fdfs-batch/action"
)

var searchCriteria criteriaFlags

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "List objects that match the given criteria",
	Long: `search evaluates the criteria against every listed identifier and
reports the matches without touching cluster state. The run exits 1
when nothing matched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		crit, err := searchCriteria.buildRequired("search")
		if err != nil {
			return err
		}
		return executeRun(cmd.Context(), cfg, crit, action.NewMatch(), runOptions{
			tool:           "search",
			perItem:        true,
			requireMatches: true,
		})
	},
}

func init() {
	addCriteriaFlags(searchCmd, &searchCriteria)
	rootCmd.AddCommand(searchCmd)
}
