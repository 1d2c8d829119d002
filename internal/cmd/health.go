package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe teammate processes",
	Long: `Probe teammate processes and persist the observed status.

Each member's backend is asked about the recorded process handle. A
member whose process cannot be observed either way reports unknown
rather than dead. The lead runs no backend process and is skipped.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

var (
	healthTeam  string
	healthAgent string
	healthJSON  bool
)

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().StringVarP(&healthTeam, "team", "t", "", "Team to probe")
	_ = healthCmd.MarkFlagRequired("team")
	healthCmd.Flags().StringVarP(&healthAgent, "agent", "a", "", "Probe only this member")
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "Print the roster as JSON")
}

func runHealth(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	if healthAgent != "" {
		m, err := env.crew.HealthCheck(cmd.Context(), healthTeam, healthAgent)
		if err != nil {
			return err
		}
		if healthJSON {
			return printJSON(cmd, m)
		}
		fmt.Printf("%s: %s\n", m.Name, m.Status)
		return nil
	}

	members, err := env.crew.HealthCheckAll(cmd.Context(), healthTeam)
	if err != nil {
		return err
	}
	if healthJSON {
		return printJSON(cmd, members)
	}

	fmt.Printf("%-16s %-8s %-12s %-20s %s\n", "NAME", "STATUS", "BACKEND", "MODEL", "HANDLE")
	for _, m := range members {
		backend := m.Backend
		if backend == "" {
			backend = "-"
		}
		handle := m.ProcessHandle
		if handle == "" {
			handle = "-"
		}
		fmt.Printf("%-16s %-8s %-12s %-20s %s\n", m.Name, m.Status, backend, m.Model, handle)
	}
	return nil
}
