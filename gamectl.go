package gamectl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gamectl/gamectl/internal/launch"
	"github.com/gamectl/gamectl/internal/protocol/schema"
	"github.com/gamectl/gamectl/internal/session"
)

// Game is one automation session against a running process. All methods
// are safe for concurrent use; they share the single underlying
// connection.
type Game struct {
	conn *session.Conn
	proc *launch.Process
	log  zerolog.Logger
}

// Connect attaches to the automation listener of an already-running
// process. addr is host:port for the default binary TCP protocol; with
// WithWebSocket it may also be a full ws:// URL.
func Connect(ctx context.Context, addr string, opts ...Option) (*Game, error) {
	s := newSettings(opts)
	if s.useWS {
		url := addr
		if !strings.Contains(url, "://") {
			url = "ws://" + url
		}
		t, err := session.DialWebSocket(ctx, url, s.session)
		if err != nil {
			return nil, err
		}
		return newGame(ctx, t, s)
	}
	conn, err := session.Dial(ctx, addr, s.session, s.log)
	if err != nil {
		return nil, err
	}
	return &Game{conn: conn, log: s.log}, nil
}

// Launch starts the process described by the profile, waits for its
// automation listener to come up, and connects. Close stops the process
// again.
func Launch(ctx context.Context, profile launch.Profile, opts ...Option) (*Game, error) {
	s := newSettings(opts)
	if profile.Transport == launch.TransportWS {
		s.useWS = true
	}
	proc, err := launch.Start(ctx, profile)
	if err != nil {
		return nil, err
	}
	conn, err := proc.Connect(ctx, s.session)
	if err != nil {
		_ = proc.Stop(2 * time.Second)
		return nil, err
	}
	return &Game{conn: conn, proc: proc, log: s.log}, nil
}

// newGame wraps an established transport. Shared by Connect and the
// in-process test harness.
func newGame(ctx context.Context, t session.Transport, s settings) (*Game, error) {
	conn, err := session.NewConn(ctx, t, s.session, s.log)
	if err != nil {
		return nil, err
	}
	return &Game{conn: conn, log: s.log}, nil
}

// Close tears down the connection and, for launched sessions, stops the
// process. Pending calls resolve with ErrConnectionClosed.
func (g *Game) Close() error {
	err := g.conn.Close()
	if g.proc != nil {
		if serr := g.proc.Stop(5 * time.Second); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

// Done is closed when the connection has gone away, whether by Close or
// by the remote process exiting.
func (g *Game) Done() <-chan struct{} { return g.conn.Done() }

// Node returns a handle for the object at an absolute scene path, e.g.
// "/root/Main/Player". The handle is cheap; no round trip happens until
// a method is called on it.
func (g *Game) Node(path string) *Node {
	return &Node{game: g, path: path}
}

// Root returns the handle for the scene root.
func (g *Game) Root() *Node { return g.Node("/root") }

func (g *Game) invoke(ctx context.Context, cmd schema.Command, args ...Value) ([]Value, error) {
	return g.conn.Invoke(ctx, cmd, args)
}

// expectBool reads the single-boolean reply shape shared by mutation,
// input and control commands. A false means the remote refused the
// operation.
func expectBool(payload []Value, op, path string) error {
	if len(payload) < 1 || payload[0].Kind() != KindBool {
		return &RemoteError{Op: op, Path: path, Reason: fmt.Sprintf("malformed reply (%d values)", len(payload))}
	}
	if !payload[0].Bool() {
		return &RemoteError{Op: op, Path: path, Reason: "refused"}
	}
	return nil
}
