package gamectl

import (
	"context"
	"fmt"
	"strings"

	"github.com/gamectl/gamectl/internal/protocol/schema"
)

// Node is a handle to one object in the remote scene tree, addressed by
// absolute path. Handles stay valid across scene changes; each call
// resolves the path fresh on the remote side.
type Node struct {
	game *Game
	path string
}

// Path returns the absolute scene path this handle addresses.
func (n *Node) Path() string { return n.path }

// Child returns a handle for a node below this one.
func (n *Node) Child(rel string) *Node {
	return n.game.Node(strings.TrimSuffix(n.path, "/") + "/" + strings.TrimPrefix(rel, "/"))
}

// Exists reports whether the remote scene currently has a node at this
// path.
func (n *Node) Exists(ctx context.Context) (bool, error) {
	payload, err := n.game.invoke(ctx, schema.CmdQueryExists, Text(n.path))
	if err != nil {
		return false, err
	}
	if len(payload) < 1 || payload[0].Kind() != KindBool {
		return false, &RemoteError{Op: "query.exists", Path: n.path, Reason: "malformed reply"}
	}
	return payload[0].Bool(), nil
}

// Info fetches the node's descriptor map (class, child names, script).
// Returns ErrNodeNotFound when the path resolves to nothing.
func (n *Node) Info(ctx context.Context) (Value, error) {
	payload, err := n.game.invoke(ctx, schema.CmdQueryNode, Text(n.path))
	if err != nil {
		return Nil(), err
	}
	if len(payload) < 1 {
		return Nil(), &RemoteError{Op: "query.node", Path: n.path, Reason: "empty reply"}
	}
	if payload[0].IsNil() {
		return Nil(), fmt.Errorf("%w: %s", ErrNodeNotFound, n.path)
	}
	return payload[0], nil
}

// Property reads one property. A Nil result means the node or the
// property does not exist; it maps to ErrNodeNotFound so callers can
// distinguish "absent" from a property that is legitimately null.
func (n *Node) Property(ctx context.Context, name string) (Value, error) {
	payload, err := n.game.invoke(ctx, schema.CmdQueryProperty, Text(n.path), Text(name))
	if err != nil {
		return Nil(), err
	}
	// Reply echoes [path, property, value].
	if len(payload) < 3 {
		return Nil(), &RemoteError{Op: "query.property", Path: n.path, Reason: fmt.Sprintf("malformed reply (%d values)", len(payload))}
	}
	if payload[2].IsNil() {
		return Nil(), fmt.Errorf("%w: %s.%s", ErrNodeNotFound, n.path, name)
	}
	return payload[2], nil
}

// SetProperty writes one property.
func (n *Node) SetProperty(ctx context.Context, name string, v Value) error {
	payload, err := n.game.invoke(ctx, schema.CmdMutateProperty, Text(n.path), Text(name), v)
	if err != nil {
		return err
	}
	return expectBool(payload, "mutate.property "+name, n.path)
}

// Call invokes a method on the node and returns its result, which may be
// Nil for void methods.
func (n *Node) Call(ctx context.Context, method string, args ...Value) (Value, error) {
	payload, err := n.game.invoke(ctx, schema.CmdInvokeMethod, Text(n.path), Text(method), List(args...))
	if err != nil {
		return Nil(), err
	}
	// Reply echoes [path, method, value-or-Nil].
	if len(payload) < 3 {
		return Nil(), &RemoteError{Op: "invoke.method " + method, Path: n.path, Reason: fmt.Sprintf("malformed reply (%d values)", len(payload))}
	}
	return payload[2], nil
}

// QueryNodes returns handles for every node whose path matches pattern.
// Patterns follow the remote's matching rules: a name matches nodes of
// that name anywhere, path wildcards like "/root/Enemies/*" match one
// level.
func (g *Game) QueryNodes(ctx context.Context, pattern string) ([]*Node, error) {
	payload, err := g.invoke(ctx, schema.CmdQueryNodes, Text(pattern))
	if err != nil {
		return nil, err
	}
	if len(payload) < 1 || payload[0].Kind() != KindList {
		return nil, &RemoteError{Op: "query.nodes", Path: pattern, Reason: "malformed reply"}
	}
	paths := payload[0].List()
	nodes := make([]*Node, 0, len(paths))
	for _, p := range paths {
		if p.Kind() != KindText {
			return nil, &RemoteError{Op: "query.nodes", Path: pattern, Reason: "non-text path in reply"}
		}
		nodes = append(nodes, g.Node(p.Text()))
	}
	return nodes, nil
}

// CountNodes reports how many nodes currently match pattern. Zero with a
// nil error means no matches, not a failure.
func (g *Game) CountNodes(ctx context.Context, pattern string) (int, error) {
	nodes, err := g.QueryNodes(ctx, pattern)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// Visible reads the node's "visible" property.
func (n *Node) Visible(ctx context.Context) (bool, error) {
	v, err := n.Property(ctx, "visible")
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}
