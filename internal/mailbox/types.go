package mailbox

import "time"

// MessageType identifies the kind of mailbox message.
type MessageType string

const (
	// MessageDirect is an ordinary message from one member to another.
	MessageDirect MessageType = "direct"

	// MessageBroadcast is a message fanned out to every member except the
	// sender. Each recipient's copy carries its own per-mailbox id.
	MessageBroadcast MessageType = "broadcast"

	// MessageShutdownRequest asks the recipient to finish up and respond.
	MessageShutdownRequest MessageType = "shutdown_request"

	// MessageShutdownResponse approves a shutdown request; it is addressed
	// to the team lead and carries the originating request id.
	MessageShutdownResponse MessageType = "shutdown_response"

	// MessagePlanApprovalResponse approves a plan the recipient proposed,
	// carrying the originating request id.
	MessagePlanApprovalResponse MessageType = "plan_approval_response"
)

// Valid message types for validation.
var validMessageTypes = map[MessageType]bool{
	MessageDirect:               true,
	MessageBroadcast:            true,
	MessageShutdownRequest:      true,
	MessageShutdownResponse:     true,
	MessagePlanApprovalResponse: true,
}

// ValidateMessageType returns true if the given type is a known message type.
func ValidateMessageType(t MessageType) bool {
	return validMessageTypes[t]
}

// Message is one entry in a member's mailbox.
//
// Messages are immutable after delivery except for the Read flag. The ID
// is monotonic within its mailbox, dense from 1, and never reused.
type Message struct {
	ID   int         `json:"id"`
	Type MessageType `json:"type"`
	From string      `json:"from"`

	// To names the recipient. Broadcast copies leave it empty.
	To string `json:"to,omitempty"`

	Text    string `json:"text"`
	Summary string `json:"summary,omitempty"`

	// RequestID correlates protocol responses with the request they answer.
	RequestID string `json:"requestId,omitempty"`

	// Color is the recipient's display color, stamped at send time so
	// renderers need no config lookup.
	Color string `json:"color,omitempty"`

	Read bool `json:"read"`

	// Timestamp is UTC ISO 8601 with millisecond precision, e.g.
	// "2024-01-15T14:30:45.123Z".
	Timestamp string `json:"timestamp"`
}

// IsBroadcast returns true if the message was fanned out to the whole team.
func (m Message) IsBroadcast() bool {
	return m.Type == MessageBroadcast
}

// timestampLayout renders UTC instants with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

func nowISO() string {
	return time.Now().UTC().Format(timestampLayout)
}

// SendRequest describes one direct or broadcast send.
type SendRequest struct {
	// Type must be MessageDirect or MessageBroadcast; protocol messages
	// go through their dedicated helpers.
	Type MessageType

	// From defaults to the team lead.
	From string

	// To names the recipient. Required for direct, ignored for broadcast.
	To string

	Text    string
	Summary string
}

// ReadOptions controls Engine.Read.
type ReadOptions struct {
	// UnreadOnly drops messages already marked read.
	UnreadOnly bool

	// MarkRead marks the returned messages read in the stored mailbox.
	MarkRead bool
}
