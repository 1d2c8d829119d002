package cmd

import (
	"fmt"

	"github.com/crewhq/crew/internal/roster"
	"github.com/spf13/cobra"
)

var spawnCmd = &cobra.Command{
	Use:   "spawn",
	Short: "Spawn a teammate onto a team",
	Long: `Spawn a new agent process and add it to a team's roster.

The member is recorded in the roster before its process starts, so the
store is always the authority on who belongs to the team. The prompt is
seeded into the member's inbox before launch and the process handle is
recorded once the backend reports it.

Model accepts a capability tier (fast, balanced, powerful) or a backend
native model name.`,
	Args: cobra.NoArgs,
	RunE: runSpawn,
}

var (
	spawnTeam     string
	spawnName     string
	spawnPrompt   string
	spawnBackend  string
	spawnModel    string
	spawnCwd      string
	spawnPlanMode bool
)

func init() {
	rootCmd.AddCommand(spawnCmd)

	spawnCmd.Flags().StringVarP(&spawnTeam, "team", "t", "", "Team to spawn into")
	spawnCmd.Flags().StringVarP(&spawnName, "name", "n", "", "Member name, unique within the team")
	spawnCmd.Flags().StringVarP(&spawnPrompt, "prompt", "p", "", "Task prompt seeded into the member's inbox")
	spawnCmd.Flags().StringVarP(&spawnBackend, "backend", "b", "", "Backend to spawn with (default: configured or registry default)")
	spawnCmd.Flags().StringVarP(&spawnModel, "model", "m", "", "Model tier or native model name (default: backend default)")
	spawnCmd.Flags().StringVar(&spawnCwd, "cwd", "", "Working directory for the agent (default: team lead's)")
	spawnCmd.Flags().BoolVar(&spawnPlanMode, "plan-mode", false, "Require plan approval before the agent acts")
	_ = spawnCmd.MarkFlagRequired("team")
	_ = spawnCmd.MarkFlagRequired("name")
}

func runSpawn(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	backendName := spawnBackend
	if backendName == "" {
		backendName = env.cfg.Backend.Default
	}
	cwd := spawnCwd
	if cwd == "" {
		cwd = env.cfg.Spawn.Cwd
	}

	member, err := env.crew.Spawn(cmd.Context(), roster.SpawnRequest{
		Team:             spawnTeam,
		Name:             spawnName,
		Prompt:           spawnPrompt,
		Backend:          backendName,
		Model:            spawnModel,
		Cwd:              cwd,
		PlanModeRequired: spawnPlanMode,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Spawned %s\n", member.AgentID)
	fmt.Printf("Backend: %s\n", member.Backend)
	fmt.Printf("Model: %s\n", member.Model)
	fmt.Printf("Color: %s\n", member.Color)
	fmt.Printf("Handle: %s\n", member.ProcessHandle)
	return nil
}
