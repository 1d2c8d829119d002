package mailbox

import (
	"context"
	"fmt"
	"time"

	"github.com/crewhq/crew/internal/docstore"
	"github.com/crewhq/crew/internal/errors"
	"github.com/crewhq/crew/internal/logging"
	"github.com/crewhq/crew/internal/team"
)

// Poll timing. Both values are part of the engine's contract: callers
// build their own timeouts against them, so changing either changes
// observable behavior.
const (
	// PollInterval is the fixed delay between mailbox checks inside Poll.
	PollInterval = 50 * time.Millisecond

	// DefaultPollWait caps Poll when the caller passes no bound of its own.
	DefaultPollWait = 30 * time.Second
)

// Engine delivers messages through per-member mailbox documents under
// teams/<team>/inboxes. Appends run under the team's inbox lock; reads
// are lock-free.
//
// An Engine is stateless apart from its configuration; any number of
// Engine values across any number of processes may work on the same root
// concurrently.
type Engine struct {
	root    string
	timeout time.Duration
	logger  *logging.Logger
}

// NewEngine creates an Engine rooted at the given store directory.
func NewEngine(root string, opts ...Option) (*Engine, error) {
	if root == "" {
		return nil, errors.New("mailbox: root directory is required")
	}

	e := &Engine{
		root:    root,
		timeout: docstore.DefaultLockTimeout,
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Root returns the store root this engine operates on.
func (e *Engine) Root() string {
	return e.root
}

// Send delivers a direct or broadcast message and returns the appended
// copies, each carrying its per-mailbox id.
//
// A direct send validates the recipient against the team's member list
// and stamps the recipient's display color. A broadcast appends to every
// member's mailbox except the sender's, one locked append at a time; the
// fan-out is not atomic, so a crash mid-broadcast leaves the message
// delivered to a prefix of the team.
func (e *Engine) Send(ctx context.Context, teamName string, req SendRequest) ([]Message, error) {
	cfg, err := e.readConfig(teamName)
	if err != nil {
		return nil, err
	}
	from := req.From
	if from == "" {
		from = team.LeadName
	}

	switch req.Type {
	case MessageDirect:
		if req.To == "" {
			return nil, errors.New("mailbox: message recipient is required")
		}
		member, ok := cfg.Member(req.To)
		if !ok {
			return nil, errors.NewNotFoundError("member", req.To)
		}

		msg, err := e.append(ctx, teamName, req.To, Message{
			Type:    MessageDirect,
			From:    from,
			To:      req.To,
			Text:    req.Text,
			Summary: req.Summary,
			Color:   member.Color,
		})
		if err != nil {
			return nil, err
		}
		e.logger.WithTeam(teamName).WithOp("message.send").Info("message sent",
			"from", from, "to", req.To, "id", msg.ID)
		return []Message{msg}, nil

	case MessageBroadcast:
		var delivered []Message
		for _, member := range cfg.Members {
			if member.Name == from {
				continue
			}
			msg, err := e.append(ctx, teamName, member.Name, Message{
				Type:    MessageBroadcast,
				From:    from,
				Text:    req.Text,
				Summary: req.Summary,
			})
			if err != nil {
				// Earlier appends stand; the fan-out is not transactional.
				return delivered, err
			}
			delivered = append(delivered, msg)
		}
		e.logger.WithTeam(teamName).WithOp("message.broadcast").Info("broadcast sent",
			"from", from, "recipients", len(delivered))
		return delivered, nil
	}

	return nil, fmt.Errorf("mailbox: cannot send message type %q", req.Type)
}

// Read returns a member's messages in delivery order. A missing mailbox
// reads as empty. With MarkRead set, the returned messages are flagged
// read in the stored mailbox in the same critical section that selected
// them, and the returned copies reflect the flag.
func (e *Engine) Read(ctx context.Context, teamName, agent string, opts ReadOptions) ([]Message, error) {
	all, err := e.readAll(teamName, agent)
	if err != nil {
		return nil, err
	}
	if !opts.MarkRead {
		return filterMessages(all, opts.UnreadOnly), nil
	}
	if len(all) == 0 {
		return nil, nil
	}

	var result []Message
	err = docstore.WithLock(ctx, LockPath(e.root, teamName), e.timeout, func() error {
		cur, err := e.readAll(teamName, agent)
		if err != nil {
			return err
		}
		result = filterMessages(cur, opts.UnreadOnly)
		if len(result) == 0 {
			return nil
		}

		marked := make(map[int]bool, len(result))
		for _, m := range result {
			marked[m.ID] = true
		}
		for i := range cur {
			if marked[cur[i].ID] {
				cur[i].Read = true
			}
		}
		for i := range result {
			result[i].Read = true
		}
		return docstore.WriteAtomic(InboxPath(e.root, teamName, agent), cur)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Poll waits until the mailbox holds at least one message with an id
// greater than sinceID and returns every such message. It returns an
// empty result once maxWait elapses (DefaultPollWait when maxWait is not
// positive), or ctx's error if the caller gives up first.
//
// The wait is a bounded loop of lock-free reads on the PollInterval
// cadence. No filesystem notification primitive is involved, so a fresh
// message is observed at most one interval after it lands.
func (e *Engine) Poll(ctx context.Context, teamName, agent string, sinceID int, maxWait time.Duration) ([]Message, error) {
	if maxWait <= 0 {
		maxWait = DefaultPollWait
	}
	deadline := time.Now().Add(maxWait)

	for {
		all, err := e.readAll(teamName, agent)
		if err != nil {
			return nil, err
		}
		var fresh []Message
		for _, m := range all {
			if m.ID > sinceID {
				fresh = append(fresh, m)
			}
		}
		if len(fresh) > 0 {
			return fresh, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		wait := PollInterval
		if remaining < wait {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// EnsureInbox creates a member's empty mailbox and its parent directory.
// An existing mailbox is left untouched.
func (e *Engine) EnsureInbox(ctx context.Context, teamName, agent string) error {
	if err := docstore.EnsureDir(Dir(e.root, teamName)); err != nil {
		return err
	}
	path := InboxPath(e.root, teamName, agent)
	return docstore.WithLock(ctx, LockPath(e.root, teamName), e.timeout, func() error {
		ok, err := docstore.Exists(path)
		if err != nil || ok {
			return err
		}
		return docstore.WriteAtomic(path, []Message{})
	})
}

// SendShutdownRequest asks a member to finish up and respond. It returns
// the request id the eventual response must carry. The team lead cannot
// be a target.
func (e *Engine) SendShutdownRequest(ctx context.Context, teamName, from, to, reason string) (string, error) {
	cfg, err := e.readConfig(teamName)
	if err != nil {
		return "", err
	}
	if to == team.LeadName {
		return "", errors.New("mailbox: the team lead cannot be asked to shut down")
	}
	member, ok := cfg.Member(to)
	if !ok {
		return "", errors.NewNotFoundError("member", to)
	}
	if from == "" {
		from = team.LeadName
	}

	requestID := fmt.Sprintf("shutdown-%d@%s", time.Now().UnixMilli(), to)
	if _, err := e.append(ctx, teamName, to, Message{
		Type:      MessageShutdownRequest,
		From:      from,
		To:        to,
		Text:      reason,
		RequestID: requestID,
		Color:     member.Color,
	}); err != nil {
		return "", err
	}

	e.logger.WithTeam(teamName).WithAgent(to).WithOp("message.shutdown_request").Info(
		"shutdown requested", "requestId", requestID)
	return requestID, nil
}

// SendShutdownResponse answers a shutdown request on behalf of the member
// named by from. Approval delivers a shutdown_response to the team lead
// carrying the request id; rejection delivers a direct message with
// summary "shutdown_rejected" so the lead sees why the member stayed up.
func (e *Engine) SendShutdownResponse(ctx context.Context, teamName, from, requestID string, approve bool, reason string) error {
	if from == "" {
		return errors.New("mailbox: message sender is required")
	}
	if _, err := e.readConfig(teamName); err != nil {
		return err
	}

	msg := Message{
		Type:      MessageShutdownResponse,
		From:      from,
		To:        team.LeadName,
		Text:      "Shutdown approved",
		RequestID: requestID,
	}
	if !approve {
		text := reason
		if text == "" {
			text = "Shutdown rejected"
		}
		msg = Message{
			Type:    MessageDirect,
			From:    from,
			To:      team.LeadName,
			Text:    text,
			Summary: "shutdown_rejected",
		}
	}
	if _, err := e.append(ctx, teamName, team.LeadName, msg); err != nil {
		return err
	}

	e.logger.WithTeam(teamName).WithAgent(from).WithOp("message.shutdown_response").Info(
		"shutdown answered", "requestId", requestID, "approve", approve)
	return nil
}

// SendPlanApprovalResponse answers a plan approval request from the member
// named by to. Approval delivers a plan_approval_response carrying the
// request id; rejection delivers a direct message with summary
// "plan_rejected" and the objection as its text.
func (e *Engine) SendPlanApprovalResponse(ctx context.Context, teamName, from, to, requestID string, approve bool, reason string) error {
	cfg, err := e.readConfig(teamName)
	if err != nil {
		return err
	}
	member, ok := cfg.Member(to)
	if !ok {
		return errors.NewNotFoundError("member", to)
	}
	if from == "" {
		from = team.LeadName
	}

	msg := Message{
		Type:      MessagePlanApprovalResponse,
		From:      from,
		To:        to,
		Text:      "Plan approved",
		Summary:   "plan_approved",
		RequestID: requestID,
		Color:     member.Color,
	}
	if !approve {
		text := reason
		if text == "" {
			text = "Plan rejected"
		}
		msg = Message{
			Type:    MessageDirect,
			From:    from,
			To:      to,
			Text:    text,
			Summary: "plan_rejected",
			Color:   member.Color,
		}
	}
	if _, err := e.append(ctx, teamName, to, msg); err != nil {
		return err
	}

	e.logger.WithTeam(teamName).WithAgent(to).WithOp("message.plan_response").Info(
		"plan answered", "requestId", requestID, "approve", approve)
	return nil
}

// --- Internals ---

// append assigns the next id and timestamp to msg and writes it to one
// mailbox. The id comes from the last message under the inbox lock, so
// concurrent senders to the same mailbox never collide.
func (e *Engine) append(ctx context.Context, teamName, agent string, msg Message) (Message, error) {
	if err := docstore.EnsureDir(Dir(e.root, teamName)); err != nil {
		return Message{}, err
	}

	var appended Message
	_, err := docstore.Modify(ctx, InboxPath(e.root, teamName, agent), LockPath(e.root, teamName), e.timeout,
		func(cur []Message, exists bool) ([]Message, error) {
			msg.ID = 1
			if len(cur) > 0 {
				msg.ID = cur[len(cur)-1].ID + 1
			}
			msg.Timestamp = nowISO()
			appended = msg
			return append(cur, msg), nil
		})
	if err != nil {
		return Message{}, err
	}
	return appended, nil
}

// readAll loads a mailbox without taking the lock. A missing document is
// an empty mailbox.
func (e *Engine) readAll(teamName, agent string) ([]Message, error) {
	msgs, err := docstore.Read[[]Message](InboxPath(e.root, teamName, agent))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return msgs, nil
}

// readConfig loads the team document; message routing is validated
// against the member list it carries.
func (e *Engine) readConfig(teamName string) (team.Config, error) {
	cfg, err := docstore.Read[team.Config](team.ConfigPath(e.root, teamName))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return team.Config{}, errors.NewNotFoundError("team", teamName).WithCause(err)
		}
		return team.Config{}, err
	}
	return cfg, nil
}

func filterMessages(msgs []Message, unreadOnly bool) []Message {
	if !unreadOnly {
		return msgs
	}
	var out []Message
	for _, m := range msgs {
		if !m.Read {
			out = append(out, m)
		}
	}
	return out
}
