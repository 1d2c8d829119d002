package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Force-kill a teammate",
	Long: `Terminate a teammate's process immediately, remove it from the
roster, and return its claimed tasks to the pool. Prefer a shutdown
request when the member can be asked to finish cleanly.`,
	Args: cobra.NoArgs,
	RunE: runKill,
}

var (
	killTeam  string
	killAgent string
)

func init() {
	rootCmd.AddCommand(killCmd)

	killCmd.Flags().StringVarP(&killTeam, "team", "t", "", "Team the member belongs to")
	_ = killCmd.MarkFlagRequired("team")
	killCmd.Flags().StringVarP(&killAgent, "agent", "a", "", "Member to kill")
	_ = killCmd.MarkFlagRequired("agent")
}

func runKill(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.crew.ForceKill(cmd.Context(), killTeam, killAgent); err != nil {
		return err
	}
	fmt.Printf("Killed %s\n", killAgent)
	return nil
}
