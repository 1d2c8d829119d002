package cmd

import (
	"github.com/crewhq/crew/internal/tui"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Watch a team in the terminal",
	Long: `Open a live read-only view of one team: the roster with health and
colors, the task board, and recent mailbox traffic.

The view refreshes when the team's files change and on a steady tick,
so it tracks work done by agents in other processes. Press q to quit.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

var dashboardTeam string

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().StringVarP(&dashboardTeam, "team", "t", "", "Team to watch")
	_ = dashboardCmd.MarkFlagRequired("team")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	if _, err := env.crew.Teams().ReadConfig(dashboardTeam); err != nil {
		return err
	}

	app := tui.New(env.crew, dashboardTeam)
	return app.Run()
}
