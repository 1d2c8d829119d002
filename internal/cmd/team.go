package cmd

import (
	"fmt"
	"time"

	"github.com/crewhq/crew/internal/team"
	"github.com/crewhq/crew/internal/util"
	"github.com/spf13/cobra"
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage teams",
	Long: `Create, inspect, and delete teams.

A team is a named roster of agents sharing a task board and mailboxes.
Every team is seeded with a reserved team-lead member representing the
process that created it.`,
}

var teamCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new team",
	Args:  cobra.ExactArgs(1),
	RunE:  runTeamCreate,
}

var teamListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all teams",
	Args:  cobra.NoArgs,
	RunE:  runTeamList,
}

var teamShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a team's roster",
	Args:  cobra.ExactArgs(1),
	RunE:  runTeamShow,
}

var teamDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a team",
	Long: `Delete a team and all of its state: roster, tasks, and mailboxes.

Deletion is refused while any teammate process is still alive. Shut the
teammates down first ('crew shutdown --all') or force-kill them.`,
	Args: cobra.ExactArgs(1),
	RunE: runTeamDelete,
}

var (
	teamDescription string
	teamSessionID   string
	teamLeadModel   string
	teamCwd         string
	teamShowJSON    bool
)

func init() {
	rootCmd.AddCommand(teamCmd)
	teamCmd.AddCommand(teamCreateCmd)
	teamCmd.AddCommand(teamListCmd)
	teamCmd.AddCommand(teamShowCmd)
	teamCmd.AddCommand(teamDeleteCmd)

	teamCreateCmd.Flags().StringVarP(&teamDescription, "description", "d", "", "What the team is for")
	teamCreateCmd.Flags().StringVar(&teamSessionID, "session-id", "", "Session handle of the creating lead (generated if empty)")
	teamCreateCmd.Flags().StringVar(&teamLeadModel, "model", "", "Model identifier recorded for the lead")
	teamCreateCmd.Flags().StringVar(&teamCwd, "cwd", "", "Working directory recorded for the lead (default: current directory)")

	teamShowCmd.Flags().BoolVar(&teamShowJSON, "json", false, "Print the team config as JSON")
}

func runTeamCreate(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	cwd := teamCwd
	if cwd == "" {
		cwd = workingDir()
	}

	cfg, err := env.crew.Teams().Create(cmd.Context(), args[0], team.CreateOptions{
		Description:   teamDescription,
		LeadSessionID: teamSessionID,
		LeadModel:     teamLeadModel,
		Cwd:           cwd,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created team %s\n", cfg.Name)
	fmt.Printf("Lead: %s\n", cfg.LeadAgentID)
	fmt.Printf("Session: %s\n", cfg.LeadSessionID)
	return nil
}

func runTeamList(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	names, err := env.crew.Teams().List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No teams")
		return nil
	}

	for _, name := range names {
		cfg, err := env.crew.Teams().ReadConfig(name)
		if err != nil {
			fmt.Printf("%s (unreadable: %v)\n", name, err)
			continue
		}
		created := util.FormatTimeAgo(time.UnixMilli(cfg.CreatedAt))
		fmt.Printf("%s  %d members  created %s\n", cfg.Name, len(cfg.Members), created)
	}
	return nil
}

func runTeamShow(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	cfg, err := env.crew.Teams().ReadConfig(args[0])
	if err != nil {
		return err
	}

	if teamShowJSON {
		return printJSON(cmd, cfg)
	}

	fmt.Printf("Team: %s\n", cfg.Name)
	if cfg.Description != "" {
		fmt.Printf("Description: %s\n", cfg.Description)
	}
	fmt.Printf("Created: %s\n", time.UnixMilli(cfg.CreatedAt).Format("2006-01-02 15:04:05"))
	fmt.Printf("Lead session: %s\n", cfg.LeadSessionID)
	fmt.Printf("Members: %d\n\n", len(cfg.Members))

	for i, m := range cfg.Members {
		fmt.Printf("[%d] %s (%s)\n", i+1, m.Name, m.Status)
		if m.Backend != "" {
			fmt.Printf("    Backend: %s\n", m.Backend)
		}
		if m.Model != "" {
			fmt.Printf("    Model: %s\n", m.Model)
		}
		if m.Color != "" {
			fmt.Printf("    Color: %s\n", m.Color)
		}
		if m.ProcessHandle != "" {
			fmt.Printf("    Handle: %s\n", m.ProcessHandle)
		}
		if m.Prompt != "" {
			fmt.Printf("    Prompt: %s\n", util.Preview(m.Prompt, 60))
		}
		fmt.Printf("    Joined: %s\n", util.FormatTimeAgo(time.UnixMilli(m.JoinedAt)))
		fmt.Println()
	}
	return nil
}

func runTeamDelete(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.crew.DeleteTeam(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Printf("Deleted team %s\n", args[0])
	return nil
}
