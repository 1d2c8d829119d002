// Package mailbox delivers messages between the members of a team.
//
// Every member owns one mailbox: a JSON array of [Message] values at
// teams/<team>/inboxes/<name>.json under the store root, in delivery
// order. Mailboxes are append-only; after delivery only the read flag
// ever changes, and the log never shrinks.
//
// # Architecture
//
// Message ids are monotonic within one mailbox, dense from 1, and
// assigned inside the locked append transform, so senders racing on the
// same mailbox never collide. All mailboxes of a team share one lock
// marker, teams/<team>/inboxes/.lock. Reads never take it: atomic
// rename-based writes mean any read observes a complete, valid array.
//
//   - [Engine.Send] routes direct and broadcast messages. A broadcast is
//     a sequence of independent per-mailbox appends, one per member
//     except the sender; a sender that dies mid-broadcast leaves the
//     message delivered to a prefix of the team. That gap is documented,
//     not repaired.
//   - [Engine.Read] returns a mailbox's messages, optionally unread-only,
//     optionally marking the returned ones read.
//   - [Engine.Poll] waits for messages newer than a given id by checking
//     the mailbox on a fixed cadence. No change-notification primitive is
//     involved; the interval and the default cap are exported constants
//     because callers time out against them.
//
// # Shutdown and plan approval
//
// The protocol helpers wrap the message types agents exchange around
// lifecycle decisions. A shutdown request carries a request id shaped
// shutdown-<ms>@<recipient>; the approval travels back to the team lead
// as a shutdown_response bearing the same id, while a rejection is an
// ordinary direct message so the lead sees why the member stayed up.
// Plan approvals work the same way toward the member that proposed the
// plan.
package mailbox
