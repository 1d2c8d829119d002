package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/crewhq/crew/internal/mailbox"
	"github.com/crewhq/crew/internal/util"
	"github.com/spf13/cobra"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Read a member's mailbox",
}

var inboxReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Read a member's messages",
	Long: `Read a member's messages in delivery order.

With --unread-only, messages already seen are skipped. With --mark-read,
the returned messages are flagged read in the stored mailbox, so the
next --unread-only read starts after them.`,
	Args: cobra.NoArgs,
	RunE: runInboxRead,
}

var inboxPollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Wait for messages after a known id",
	Long: `Wait until the mailbox holds a message with an id greater than
--since, then print everything after it. Returns empty after --wait
elapses with nothing new.`,
	Args: cobra.NoArgs,
	RunE: runInboxPoll,
}

var (
	inboxTeam       string
	inboxAgent      string
	inboxUnreadOnly bool
	inboxMarkRead   bool
	inboxJSON       bool
	inboxSince      int
	inboxWait       time.Duration
)

func init() {
	rootCmd.AddCommand(inboxCmd)
	inboxCmd.AddCommand(inboxReadCmd)
	inboxCmd.AddCommand(inboxPollCmd)

	inboxCmd.PersistentFlags().StringVarP(&inboxTeam, "team", "t", "", "Team the mailbox belongs to")
	_ = inboxCmd.MarkPersistentFlagRequired("team")
	inboxCmd.PersistentFlags().StringVarP(&inboxAgent, "agent", "a", "", "Member whose mailbox to read")
	_ = inboxCmd.MarkPersistentFlagRequired("agent")
	inboxCmd.PersistentFlags().BoolVar(&inboxJSON, "json", false, "Print messages as JSON")

	inboxReadCmd.Flags().BoolVar(&inboxUnreadOnly, "unread-only", false, "Only messages not yet read")
	inboxReadCmd.Flags().BoolVar(&inboxMarkRead, "mark-read", false, "Flag returned messages as read")

	inboxPollCmd.Flags().IntVar(&inboxSince, "since", 0, "Last message id already seen")
	inboxPollCmd.Flags().DurationVar(&inboxWait, "wait", mailbox.DefaultPollWait, "How long to wait for new messages")
}

func runInboxRead(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	msgs, err := env.crew.Mail().Read(cmd.Context(), inboxTeam, inboxAgent, mailbox.ReadOptions{
		UnreadOnly: inboxUnreadOnly,
		MarkRead:   inboxMarkRead,
	})
	if err != nil {
		return err
	}

	if inboxJSON {
		return printJSON(cmd, msgs)
	}
	if len(msgs) == 0 {
		fmt.Println("No messages")
		return nil
	}
	for _, m := range msgs {
		printMessage(m)
	}
	return nil
}

func runInboxPoll(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	msgs, err := env.crew.Mail().Poll(cmd.Context(), inboxTeam, inboxAgent, inboxSince, inboxWait)
	if err != nil {
		return err
	}

	if inboxJSON {
		return printJSON(cmd, msgs)
	}
	if len(msgs) == 0 {
		fmt.Println("No new messages")
		return nil
	}
	for _, m := range msgs {
		printMessage(m)
	}
	return nil
}

func printMessage(m mailbox.Message) {
	header := fmt.Sprintf("[%d] %s", m.ID, m.From)
	if m.Type != mailbox.MessageDirect {
		header += " (" + string(m.Type) + ")"
	}
	if ago := util.FormatTimeAgo(parseTimestamp(m.Timestamp)); ago != "" {
		header += "  " + ago
	}
	if !m.Read {
		header += "  unread"
	}
	fmt.Println(header)
	if m.Summary != "" {
		fmt.Printf("    summary: %s\n", m.Summary)
	}
	if m.RequestID != "" {
		fmt.Printf("    request: %s\n", m.RequestID)
	}
	for _, line := range strings.Split(m.Text, "\n") {
		fmt.Printf("    %s\n", line)
	}
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
