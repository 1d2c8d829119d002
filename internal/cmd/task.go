package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crewhq/crew/internal/task"
	"github.com/crewhq/crew/internal/util"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage a team's task board",
	Long: `Create, update, and inspect tasks on a team's board.

Tasks form a dependency graph: a task with incomplete blockers cannot be
claimed, and dependency edits that would create a cycle are rejected.
Status moves strictly forward (pending, in_progress, completed); any
task can be deleted.`,
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCreate,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a task",
	Long: `Update a task's fields, status, owner, or dependencies.

Only flags that are set change anything; passing an empty value clears
the field. Dependency edits are additive: edges are never removed, the
blocked task is deleted instead when a dependency was wrong.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskUpdate,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a team's tasks",
	Args:  cobra.NoArgs,
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var (
	taskTeam string

	taskCreateDescription string
	taskCreateActiveForm  string
	taskCreateOwner       string
	taskCreateBlocks      []int
	taskCreateBlockedBy   []int
	taskCreateMeta        []string

	taskUpdateTitle       string
	taskUpdateDescription string
	taskUpdateActiveForm  string
	taskUpdateStatus      string
	taskUpdateOwner       string
	taskUpdateAddBlocks   []int
	taskUpdateAddBlockers []int
	taskUpdateMeta        []string
	taskUpdateUnsetMeta   []string

	taskListStatus string
	taskListOwner  string
	taskListJSON   bool
	taskShowJSON   bool
)

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)

	taskCmd.PersistentFlags().StringVarP(&taskTeam, "team", "t", "", "Team whose board to operate on")
	_ = taskCmd.MarkPersistentFlagRequired("team")

	taskCreateCmd.Flags().StringVarP(&taskCreateDescription, "description", "d", "", "Longer task description")
	taskCreateCmd.Flags().StringVar(&taskCreateActiveForm, "active-form", "", "Present-tense form shown while in progress")
	taskCreateCmd.Flags().StringVar(&taskCreateOwner, "owner", "", "Member the task starts assigned to")
	taskCreateCmd.Flags().IntSliceVar(&taskCreateBlocks, "blocks", nil, "Existing task ids this task gates")
	taskCreateCmd.Flags().IntSliceVar(&taskCreateBlockedBy, "blocked-by", nil, "Existing task ids that must complete first")
	taskCreateCmd.Flags().StringArrayVar(&taskCreateMeta, "meta", nil, "Metadata entry key=value (repeatable)")

	taskUpdateCmd.Flags().StringVar(&taskUpdateTitle, "title", "", "New title")
	taskUpdateCmd.Flags().StringVarP(&taskUpdateDescription, "description", "d", "", "New description")
	taskUpdateCmd.Flags().StringVar(&taskUpdateActiveForm, "active-form", "", "New active form")
	taskUpdateCmd.Flags().StringVar(&taskUpdateStatus, "status", "", "New status (pending, in_progress, completed, deleted)")
	taskUpdateCmd.Flags().StringVar(&taskUpdateOwner, "owner", "", "New owner (empty clears)")
	taskUpdateCmd.Flags().IntSliceVar(&taskUpdateAddBlocks, "add-blocks", nil, "Task ids to add as blocked by this one")
	taskUpdateCmd.Flags().IntSliceVar(&taskUpdateAddBlockers, "add-blocked-by", nil, "Task ids to add as blockers of this one")
	taskUpdateCmd.Flags().StringArrayVar(&taskUpdateMeta, "meta", nil, "Metadata entry key=value to set (repeatable)")
	taskUpdateCmd.Flags().StringArrayVar(&taskUpdateUnsetMeta, "unset-meta", nil, "Metadata key to delete (repeatable)")

	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", "Only tasks with this status")
	taskListCmd.Flags().StringVar(&taskListOwner, "owner", "", "Only tasks owned by this member")
	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "Print tasks as JSON")

	taskShowCmd.Flags().BoolVar(&taskShowJSON, "json", false, "Print the task as JSON")
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	meta, err := parseMeta(taskCreateMeta, nil)
	if err != nil {
		return err
	}

	t, err := env.crew.Tasks().Create(cmd.Context(), taskTeam, task.CreateRequest{
		Title:       args[0],
		Description: taskCreateDescription,
		ActiveForm:  taskCreateActiveForm,
		Owner:       taskCreateOwner,
		Blocks:      taskCreateBlocks,
		BlockedBy:   taskCreateBlockedBy,
		Metadata:    meta,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created task %d: %s\n", t.ID, t.Title)
	return nil
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	req := task.UpdateRequest{
		AddBlocks:    taskUpdateAddBlocks,
		AddBlockedBy: taskUpdateAddBlockers,
	}
	flags := cmd.Flags()
	if flags.Changed("title") {
		req.Title = &taskUpdateTitle
	}
	if flags.Changed("description") {
		req.Description = &taskUpdateDescription
	}
	if flags.Changed("active-form") {
		req.ActiveForm = &taskUpdateActiveForm
	}
	if flags.Changed("owner") {
		req.Owner = &taskUpdateOwner
	}
	if flags.Changed("status") {
		status := task.Status(strings.ToLower(taskUpdateStatus))
		if !status.IsValid() {
			return fmt.Errorf("invalid status %q (valid: pending, in_progress, completed, deleted)", taskUpdateStatus)
		}
		req.Status = &status
	}

	req.Metadata, err = parseMeta(taskUpdateMeta, taskUpdateUnsetMeta)
	if err != nil {
		return err
	}

	t, err := env.crew.Tasks().Update(cmd.Context(), taskTeam, id, req)
	if err != nil {
		return err
	}

	if t.Status == task.StatusDeleted {
		fmt.Printf("Deleted task %d\n", t.ID)
		return nil
	}
	fmt.Printf("Updated task %d: %s (%s)\n", t.ID, t.Title, t.Status)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	tasks, err := env.crew.Tasks().List(taskTeam)
	if err != nil {
		return err
	}

	filtered := tasks[:0]
	for _, t := range tasks {
		if taskListStatus != "" && t.Status != task.Status(taskListStatus) {
			continue
		}
		if taskListOwner != "" && t.Owner != taskListOwner {
			continue
		}
		filtered = append(filtered, t)
	}

	if taskListJSON {
		return printJSON(cmd, filtered)
	}

	if len(filtered) == 0 {
		fmt.Println("No tasks")
		return nil
	}
	for _, t := range filtered {
		line := fmt.Sprintf("[%d] %s (%s)", t.ID, util.TruncateString(t.Title, 60), t.Status)
		if t.Owner != "" {
			line += " owner=" + t.Owner
		}
		if len(t.BlockedBy) > 0 {
			line += " blocked-by=" + joinIDs(t.BlockedBy)
		}
		fmt.Println(line)
	}
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.crew.Tasks().Get(taskTeam, id)
	if err != nil {
		return err
	}

	if taskShowJSON {
		return printJSON(cmd, t)
	}

	fmt.Printf("Task %d: %s\n", t.ID, t.Title)
	fmt.Printf("Status: %s\n", t.Status)
	if t.Owner != "" {
		fmt.Printf("Owner: %s\n", t.Owner)
	}
	if t.ActiveForm != "" {
		fmt.Printf("Active form: %s\n", t.ActiveForm)
	}
	if len(t.Blocks) > 0 {
		fmt.Printf("Blocks: %s\n", joinIDs(t.Blocks))
	}
	if len(t.BlockedBy) > 0 {
		fmt.Printf("Blocked by: %s\n", joinIDs(t.BlockedBy))
	}
	if len(t.Metadata) > 0 {
		fmt.Println("Metadata:")
		for k, v := range t.Metadata {
			fmt.Printf("  %s: %v\n", k, v)
		}
	}
	if t.Description != "" {
		fmt.Printf("\n%s\n", t.Description)
	}
	return nil
}

// parseTaskID parses a task id argument.
func parseTaskID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q: expected an integer", arg)
	}
	return id, nil
}

// parseMeta builds a metadata map from key=value pairs; unset keys map
// to nil, which the engine treats as deletion.
func parseMeta(pairs, unset []string) (map[string]any, error) {
	if len(pairs) == 0 && len(unset) == 0 {
		return nil, nil
	}
	meta := make(map[string]any, len(pairs)+len(unset))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q: expected key=value", pair)
		}
		meta[key] = value
	}
	for _, key := range unset {
		meta[key] = nil
	}
	return meta, nil
}

// joinIDs renders task ids as a comma list.
func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
