package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Finish a teammate's shutdown",
	Long: `Stop a teammate's process gracefully, drop it from the roster, and
release its claimed tasks.

This is the completion half of the shutdown handshake: send a shutdown
request first and run this once the member approves. With --all every
teammate is shut down, leaving only the lead on the roster.`,
	Args: cobra.NoArgs,
	RunE: runShutdown,
}

var (
	shutdownTeam  string
	shutdownAgent string
	shutdownAll   bool
)

func init() {
	rootCmd.AddCommand(shutdownCmd)

	shutdownCmd.Flags().StringVarP(&shutdownTeam, "team", "t", "", "Team the member belongs to")
	_ = shutdownCmd.MarkFlagRequired("team")
	shutdownCmd.Flags().StringVarP(&shutdownAgent, "agent", "a", "", "Member to shut down")
	shutdownCmd.Flags().BoolVar(&shutdownAll, "all", false, "Shut down every teammate")
}

func runShutdown(cmd *cobra.Command, args []string) error {
	if shutdownAll == (shutdownAgent != "") {
		return errors.New("pass exactly one of --agent or --all")
	}

	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	if shutdownAll {
		if err := env.crew.ShutdownAll(cmd.Context(), shutdownTeam); err != nil {
			return err
		}
		fmt.Printf("Shut down all teammates of %s\n", shutdownTeam)
		return nil
	}

	if err := env.crew.CompleteShutdown(cmd.Context(), shutdownTeam, shutdownAgent); err != nil {
		return err
	}
	fmt.Printf("Shut down %s\n", shutdownAgent)
	return nil
}
