// Package backend abstracts the agent CLIs crew can spawn teammates with.
//
// A [Backend] knows how to render a spawn command for one CLI tool
// (claude-code, codex, or a user-declared custom tool), start it, and
// manage the resulting process through an opaque handle. Tmux-hosted
// backends run the agent in a pane on the crew server and use the pane
// id as the handle; the pty-hosted variants attach the agent to a local
// pseudo-terminal and use "pty:<pid>", for machines without tmux.
//
// # Model tiers
//
// Callers usually name a tier (fast, balanced, powerful) rather than a
// concrete model; each backend maps tiers onto its own model names.
// Backends with an open model space also pass unrecognized names
// through, while closed ones reject them naming the supported set.
//
// # Registry
//
// The [Registry] holds every backend this process can use, keyed by
// name. Builtins register at load time when their binary is on PATH;
// custom backends come from a backends.yaml declaration. The default
// backend prefers claude-code.
package backend
