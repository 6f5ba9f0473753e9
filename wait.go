package gamectl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gamectl/gamectl/internal/session"
)

// Event is one unsolicited notification emitted by the remote process,
// e.g. a signal fired by a game object.
type Event = session.Event

// Condition is a poll step for WaitFor. It may perform round trips; an
// error aborts the wait immediately.
type Condition func(ctx context.Context) (bool, error)

type waitSettings struct {
	timeout  time.Duration
	interval time.Duration
}

// WaitOption adjusts polling behavior for the WaitFor family.
type WaitOption func(*waitSettings)

// WaitTimeout caps the whole wait. Default 10s.
func WaitTimeout(d time.Duration) WaitOption {
	return func(w *waitSettings) { w.timeout = d }
}

// WaitInterval sets the pause between polls. Default 100ms.
func WaitInterval(d time.Duration) WaitOption {
	return func(w *waitSettings) { w.interval = d }
}

func newWaitSettings(opts []WaitOption) waitSettings {
	w := waitSettings{timeout: 10 * time.Second, interval: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(&w)
	}
	return w
}

// WaitFor polls cond until it reports true. The first check runs
// immediately, before any interval elapses, so an already-true condition
// never waits. Returns ErrTimeout when the deadline passes with the
// condition still false.
func (g *Game) WaitFor(ctx context.Context, cond Condition, opts ...WaitOption) error {
	w := newWaitSettings(opts)

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()

	for {
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: condition not met within %v", ErrTimeout, w.timeout)
		case <-time.After(w.interval):
		}
	}
}

// WaitForNode waits until a node exists at path and returns its handle.
func (g *Game) WaitForNode(ctx context.Context, path string, opts ...WaitOption) (*Node, error) {
	n := g.Node(path)
	err := g.WaitFor(ctx, func(ctx context.Context) (bool, error) {
		return n.Exists(ctx)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// WaitForVisible waits until the node at path exists and reports itself
// visible. A not-yet-existing node counts as not visible, not as an
// error.
func (g *Game) WaitForVisible(ctx context.Context, path string, opts ...WaitOption) error {
	n := g.Node(path)
	return g.WaitFor(ctx, func(ctx context.Context) (bool, error) {
		visible, err := n.Visible(ctx)
		if errors.Is(err, ErrNodeNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return visible, nil
	}, opts...)
}

// WaitForProperty waits until the node's property equals want.
func (g *Game) WaitForProperty(ctx context.Context, path, name string, want Value, opts ...WaitOption) error {
	n := g.Node(path)
	return g.WaitFor(ctx, func(ctx context.Context) (bool, error) {
		got, err := n.Property(ctx, name)
		if errors.Is(err, ErrNodeNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return got.Equal(want), nil
	}, opts...)
}

// WaitForEvent suspends until the remote emits the named event. An empty
// source matches events from any emitter. The registered subscription is
// removed on every exit path, fulfilled or not, so an expired wait can
// never swallow a later unrelated event.
func (g *Game) WaitForEvent(ctx context.Context, event, source string, opts ...WaitOption) (Event, error) {
	w := newWaitSettings(opts)

	sub, err := g.conn.Subscribe(event, source)
	if err != nil {
		return Event{}, err
	}
	defer sub.Cancel()

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()

	select {
	case ev, ok := <-sub.Events():
		if !ok {
			return Event{}, ErrConnectionClosed
		}
		return ev, nil
	case <-deadline.C:
		return Event{}, fmt.Errorf("%w: no %q event within %v", ErrTimeout, event, w.timeout)
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}
