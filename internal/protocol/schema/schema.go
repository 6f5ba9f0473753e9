// Package schema fixes the wire message taxonomy: one entry per command,
// pairing the request name with the response name the sender commits to
// awaiting. Routing is keyed by this table, never by string switches, so a
// new command cannot ship without a complete entry.
package schema

import (
	"fmt"
	"strings"

	"github.com/gamectl/gamectl/internal/protocol/variant"
)

// Command enumerates every request the driver can issue.
type Command int

const (
	CmdQueryNode Command = iota
	CmdQueryProperty
	CmdQueryExists
	CmdQueryTree
	CmdQueryNodes
	CmdMutateProperty
	CmdInvokeMethod
	CmdInputInject
	CmdCaptureScreenshot
	CmdSceneCurrent
	CmdSceneChange
	CmdSceneReload
	CmdControlPause
	CmdControlTimeScale
	CmdControlFrames
	CmdControlSeconds

	numCommands // sentinel, keep last
)

// entry pairs the wire names and the argument count for one command.
type entry struct {
	request  string
	response string
	argc     int
}

var table = [numCommands]entry{
	CmdQueryNode:         {"query.node", "node.info", 1},
	CmdQueryProperty:     {"query.property", "property.value", 2},
	CmdQueryExists:       {"query.exists", "exists.result", 1},
	CmdQueryTree:         {"query.tree", "tree.data", 1},
	CmdQueryNodes:        {"query.nodes", "nodes.result", 1},
	CmdMutateProperty:    {"mutate.property", "property.result", 3},
	CmdInvokeMethod:      {"invoke.method", "method.result", 3},
	CmdInputInject:       {"input.inject", "input.result", -1},
	CmdCaptureScreenshot: {"capture.screenshot", "screenshot.data", 1},
	CmdSceneCurrent:      {"scene.current", "scene.info", 0},
	CmdSceneChange:       {"scene.change", "scene.result", 1},
	CmdSceneReload:       {"scene.reload", "scene.result", 0},
	CmdControlPause:      {"control.pause", "control.result", 1},
	CmdControlTimeScale:  {"control.timescale", "control.result", 1},
	CmdControlFrames:     {"control.frames", "control.result", 1},
	CmdControlSeconds:    {"control.seconds", "control.result", 1},
}

type ValidationError struct {
	Command Command
	Reason  string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("schema: command=%d: %s", int(e.Command), e.Reason)
}

func (c Command) Valid() bool {
	return c >= 0 && c < numCommands
}

// RequestName is the wire name the command is sent under.
func (c Command) RequestName() string {
	if !c.Valid() {
		return ""
	}
	return table[c].request
}

// ResponseName is the message name the sender awaits after issuing c.
func (c Command) ResponseName() string {
	if !c.Valid() {
		return ""
	}
	return table[c].response
}

func (c Command) String() string {
	if !c.Valid() {
		return fmt.Sprintf("command(%d)", int(c))
	}
	return table[c].request
}

// ValidateArgs enforces the fixed payload arity. Commands with variable
// payloads (input.inject) declare argc -1 and accept any non-empty payload.
func ValidateArgs(c Command, args []variant.Value) error {
	if !c.Valid() {
		return ValidationError{Command: c, Reason: "unknown command"}
	}
	want := table[c].argc
	if want < 0 {
		if len(args) == 0 {
			return ValidationError{Command: c, Reason: "empty payload"}
		}
		return nil
	}
	if len(args) != want {
		return ValidationError{Command: c, Reason: fmt.Sprintf("payload arity %d, want %d", len(args), want)}
	}
	return nil
}

// EventPrefix marks unsolicited messages from the remote executor.
const EventPrefix = "event."

// IsEvent reports whether a wire message name is an unsolicited event.
func IsEvent(name string) bool {
	return strings.HasPrefix(name, EventPrefix)
}

// EventName strips the wire prefix from an event message name.
func EventName(wire string) string {
	return strings.TrimPrefix(wire, EventPrefix)
}

// EventWireName builds the wire name for a logical event name.
func EventWireName(event string) string {
	return EventPrefix + event
}
