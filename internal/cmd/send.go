package cmd

import (
	"errors"
	"fmt"

	"github.com/crewhq/crew/internal/mailbox"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Send a message to a teammate",
	Long: `Send a message into a teammate's mailbox.

The default is a direct message to --to. With --broadcast the message
fans out to every member except the sender. The remaining modes drive
the shutdown and plan approval handshakes: --shutdown-request asks a
member to wind down and prints the request id, --shutdown-response
answers such a request on a member's behalf, and --plan-response
answers a member's plan approval request.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

var (
	sendTeam             string
	sendFrom             string
	sendTo               string
	sendSummary          string
	sendBroadcast        bool
	sendShutdownRequest  bool
	sendShutdownResponse string
	sendPlanResponse     string
	sendApprove          bool
	sendDeny             bool
	sendReason           string
)

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendTeam, "team", "t", "", "Team to send within")
	_ = sendCmd.MarkFlagRequired("team")
	sendCmd.Flags().StringVar(&sendFrom, "from", "", "Sending member (default: the team lead)")
	sendCmd.Flags().StringVar(&sendTo, "to", "", "Recipient member")
	sendCmd.Flags().StringVar(&sendSummary, "summary", "", "One-line summary stored with the message")
	sendCmd.Flags().BoolVar(&sendBroadcast, "broadcast", false, "Send to every member except the sender")
	sendCmd.Flags().BoolVar(&sendShutdownRequest, "shutdown-request", false, "Ask --to to shut down")
	sendCmd.Flags().StringVar(&sendShutdownResponse, "shutdown-response", "", "Answer the shutdown request with this id")
	sendCmd.Flags().StringVar(&sendPlanResponse, "plan-response", "", "Answer the plan approval request with this id")
	sendCmd.Flags().BoolVar(&sendApprove, "approve", false, "Approve the request being answered")
	sendCmd.Flags().BoolVar(&sendDeny, "deny", false, "Deny the request being answered")
	sendCmd.Flags().StringVar(&sendReason, "reason", "", "Reason attached to a request or denial")
}

func runSend(cmd *cobra.Command, args []string) error {
	modes := 0
	for _, on := range []bool{sendBroadcast, sendShutdownRequest, sendShutdownResponse != "", sendPlanResponse != ""} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return errors.New("--broadcast, --shutdown-request, --shutdown-response, and --plan-response are mutually exclusive")
	}

	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()

	switch {
	case sendShutdownRequest:
		if sendTo == "" {
			return errors.New("--shutdown-request requires --to")
		}
		requestID, err := env.crew.RequestShutdown(ctx, sendTeam, sendTo, sendReason)
		if err != nil {
			return err
		}
		fmt.Printf("Shutdown requested for %s (request %s)\n", sendTo, requestID)
		return nil

	case sendShutdownResponse != "":
		approve, err := resolveApproval()
		if err != nil {
			return err
		}
		if sendFrom == "" {
			return errors.New("--shutdown-response requires --from")
		}
		if err := env.crew.Mail().SendShutdownResponse(ctx, sendTeam, sendFrom, sendShutdownResponse, approve, sendReason); err != nil {
			return err
		}
		fmt.Printf("Shutdown %s (request %s)\n", approvalWord(approve), sendShutdownResponse)
		return nil

	case sendPlanResponse != "":
		approve, err := resolveApproval()
		if err != nil {
			return err
		}
		if sendTo == "" {
			return errors.New("--plan-response requires --to")
		}
		if err := env.crew.Mail().SendPlanApprovalResponse(ctx, sendTeam, sendFrom, sendTo, sendPlanResponse, approve, sendReason); err != nil {
			return err
		}
		fmt.Printf("Plan %s for %s\n", approvalWord(approve), sendTo)
		return nil

	case sendBroadcast:
		if len(args) == 0 {
			return errors.New("message text is required")
		}
		delivered, err := env.crew.Mail().Send(ctx, sendTeam, mailbox.SendRequest{
			Type:    mailbox.MessageBroadcast,
			From:    sendFrom,
			Text:    args[0],
			Summary: sendSummary,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Broadcast to %d members\n", len(delivered))
		return nil

	default:
		if sendTo == "" {
			return errors.New("--to is required (or use --broadcast)")
		}
		if len(args) == 0 {
			return errors.New("message text is required")
		}
		delivered, err := env.crew.Mail().Send(ctx, sendTeam, mailbox.SendRequest{
			Type:    mailbox.MessageDirect,
			From:    sendFrom,
			To:      sendTo,
			Text:    args[0],
			Summary: sendSummary,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Sent to %s (id %d)\n", sendTo, delivered[0].ID)
		return nil
	}
}

func resolveApproval() (bool, error) {
	if sendApprove == sendDeny {
		return false, errors.New("pass exactly one of --approve or --deny")
	}
	return sendApprove, nil
}

func approvalWord(approve bool) string {
	if approve {
		return "approved"
	}
	return "denied"
}
