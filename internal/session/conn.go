package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gamectl/gamectl/internal/protocol/schema"
	"github.com/gamectl/gamectl/internal/protocol/variant"
)

var (
	// ErrConnectionClosed is the terminal result of every request and
	// subscription still pending when the connection goes away.
	ErrConnectionClosed = errors.New("session: connection closed")
	// ErrTimeout is raised to the caller of Invoke only; dispatcher state is
	// cleaned up so a late reply is discarded, not misdelivered.
	ErrTimeout = errors.New("session: request timed out")
	// ErrHandshake is returned when the remote never supplies its
	// correlation tag.
	ErrHandshake = errors.New("session: handshake failed")
)

// Event is one unsolicited message from the remote executor.
type Event struct {
	Name   string
	Source string
	Args   []variant.Value
}

type result struct {
	payload []variant.Value
	err     error
}

// pendingRequest is created when a command is sent and consumed exactly once:
// fulfilled by a matching reply, expired by its deadline, or orphaned by
// connection close. A timed-out request stays queued as abandoned so the
// same-name FIFO correlation holds for later callers; its late reply is
// popped and discarded.
type pendingRequest struct {
	responseName string
	ch           chan result
	abandoned    bool // guarded by Conn.mu
}

type eventSub struct {
	id     string
	name   string
	source string // "" matches any source
	ch     chan Event
}

// Conn owns one physical connection to the controlled process: the socket,
// the correlation tag (captured once, immutable thereafter), the per-name
// FIFO queues of pending requests, and the event subscription list. Exactly
// one reader goroutine consumes the transport.
type Conn struct {
	transport Transport
	cfg       Config
	log       zerolog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string][]*pendingRequest
	subs    []*eventSub
	closed  bool

	correlation int64

	done chan struct{}
}

// Dial connects to the automation listener at addr (TCP, binary protocol),
// performs the handshake, and starts the reader loop.
func Dial(ctx context.Context, addr string, cfg Config, log zerolog.Logger) (*Conn, error) {
	t, err := dialStream(addr, cfg)
	if err != nil {
		return nil, err
	}
	return NewConn(ctx, t, cfg, log)
}

// NewConn performs the handshake over an established transport and starts
// the reader loop. The first inbound message supplies the correlation tag.
func NewConn(ctx context.Context, t Transport, cfg Config, log zerolog.Logger) (*Conn, error) {
	c := &Conn{
		transport: t,
		cfg:       cfg,
		log:       log,
		pending:   make(map[string][]*pendingRequest),
		done:      make(chan struct{}),
	}

	type helloResult struct {
		msg Message
		err error
	}
	helloCh := make(chan helloResult, 1)
	go func() {
		msg, err := t.ReadMessage()
		helloCh <- helloResult{msg: msg, err: err}
	}()

	timer := time.NewTimer(cfg.HandshakeTimeout)
	defer timer.Stop()
	select {
	case hr := <-helloCh:
		if hr.err != nil {
			t.Close()
			return nil, fmt.Errorf("%w: %v", ErrHandshake, hr.err)
		}
		c.correlation = hr.msg.Correlation
		c.log.Debug().
			Str("hello", hr.msg.Name).
			Int64("correlation", c.correlation).
			Msg("session established")
	case <-timer.C:
		t.Close()
		return nil, fmt.Errorf("%w: no hello within %v", ErrHandshake, cfg.HandshakeTimeout)
	case <-ctx.Done():
		t.Close()
		return nil, ctx.Err()
	}

	go c.readLoop()
	return c, nil
}

// Correlation returns the remote endpoint's identity tag.
func (c *Conn) Correlation() int64 { return c.correlation }

// Done is closed when the reader loop has exited and all pending work has
// been resolved.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close tears the connection down. Every still-pending request and
// subscription resolves as ErrConnectionClosed; nothing is left hanging.
func (c *Conn) Close() error {
	c.closeWith(nil)
	<-c.done
	return nil
}

// Invoke sends a command and suspends until the matching response arrives,
// the deadline elapses, the context is cancelled, or the connection closes.
// Distinct commands may be in flight concurrently and do not block each
// other; two commands awaiting the same response name resolve in send order.
func (c *Conn) Invoke(ctx context.Context, cmd schema.Command, args []variant.Value) ([]variant.Value, error) {
	if err := schema.ValidateArgs(cmd, args); err != nil {
		return nil, err
	}

	pr := &pendingRequest{
		responseName: cmd.ResponseName(),
		ch:           make(chan result, 1),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	c.pending[pr.responseName] = append(c.pending[pr.responseName], pr)
	c.mu.Unlock()

	msg := Message{Name: cmd.RequestName(), Correlation: c.correlation, Payload: args}
	c.writeMu.Lock()
	err := c.transport.WriteMessage(msg)
	c.writeMu.Unlock()
	if err != nil {
		// The remote never saw this request, so no reply will come for it;
		// drop it from the queue outright to keep FIFO correlation intact.
		c.remove(pr)
		return nil, fmt.Errorf("send %s: %w", cmd, err)
	}

	timeout := c.cfg.InvokeTimeout
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-pr.ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.payload, nil
	case <-timer.C:
		c.abandonPending(pr)
		if res, ok := c.drain(pr); ok {
			if res.err != nil {
				return nil, res.err
			}
			return res.payload, nil
		}
		return nil, fmt.Errorf("%w: no %s within %v", ErrTimeout, pr.responseName, timeout)
	case <-ctx.Done():
		c.abandonPending(pr)
		if res, ok := c.drain(pr); ok {
			if res.err != nil {
				return nil, res.err
			}
			return res.payload, nil
		}
		return nil, ctx.Err()
	}
}

// Subscribe registers interest in an unsolicited event. An empty source
// matches events from any source. The subscription fulfills at most once;
// cancel it on every exit path or it will match a later unrelated event.
func (c *Conn) Subscribe(event, source string) (*Subscription, error) {
	sub := &eventSub{
		id:     uuid.NewString(),
		name:   event,
		source: source,
		ch:     make(chan Event, 1),
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return &Subscription{conn: c, sub: sub}, nil
}

// Subscription is a handle to one registered event wait.
type Subscription struct {
	conn *Conn
	sub  *eventSub
}

// Events yields at most one Event. The channel is closed without a value
// when the connection closes before the event fires.
func (s *Subscription) Events() <-chan Event { return s.sub.ch }

// Cancel removes the subscription. Safe to call after fulfillment or
// connection close; it never blocks.
func (s *Subscription) Cancel() {
	c := s.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, sub := range c.subs {
		if sub.id == s.sub.id {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// readLoop is the sole consumer of the transport. Only transport errors or
// stream closure may terminate it; protocol errors are logged per-message.
func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		msg, err := c.transport.ReadMessage()
		if err != nil {
			if errors.Is(err, ErrProtocol) {
				c.log.Warn().Err(err).Msg("discarding malformed message")
				continue
			}
			c.closeWith(err)
			return
		}
		c.route(msg)
	}
}

func (c *Conn) route(msg Message) {
	if schema.IsEvent(msg.Name) {
		c.routeEvent(msg)
		return
	}

	c.mu.Lock()
	queue := c.pending[msg.Name]
	if len(queue) == 0 {
		c.mu.Unlock()
		// Legitimate after a timeout: the late reply has nobody waiting.
		c.log.Debug().Str("name", msg.Name).Msg("discarding orphan reply")
		return
	}
	pr := queue[0]
	c.pending[msg.Name] = queue[1:]
	abandoned := pr.abandoned
	c.mu.Unlock()

	if abandoned {
		c.log.Debug().Str("name", msg.Name).Msg("discarding reply for expired request")
		return
	}
	pr.ch <- result{payload: msg.Payload}
}

func (c *Conn) routeEvent(msg Message) {
	ev := Event{Name: schema.EventName(msg.Name)}
	if len(msg.Payload) > 0 {
		ev.Source = msg.Payload[0].Text()
		ev.Args = msg.Payload[1:]
	}

	c.mu.Lock()
	var matched *eventSub
	for i, sub := range c.subs {
		if sub.name != ev.Name {
			continue
		}
		if sub.source != "" && sub.source != ev.Source {
			continue
		}
		matched = sub
		c.subs = append(c.subs[:i], c.subs[i+1:]...)
		break
	}
	c.mu.Unlock()

	if matched == nil {
		c.log.Debug().Str("event", ev.Name).Str("source", ev.Source).Msg("discarding unobserved event")
		return
	}
	matched.ch <- ev
}

// closeWith transitions the connection to closed exactly once and resolves
// all outstanding work. A nil cause means a local Close.
func (c *Conn) closeWith(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pending := c.pending
	c.pending = make(map[string][]*pendingRequest)
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	if cause != nil {
		c.log.Debug().Err(cause).Msg("connection closed")
	}
	c.transport.Close()

	for _, queue := range pending {
		for _, pr := range queue {
			pr.ch <- result{err: ErrConnectionClosed}
		}
	}
	for _, sub := range subs {
		close(sub.ch)
	}
}

func (c *Conn) abandonPending(pr *pendingRequest) {
	c.mu.Lock()
	pr.abandoned = true
	c.mu.Unlock()
}

// remove deletes a request that was never delivered to the remote.
func (c *Conn) remove(pr *pendingRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	queue := c.pending[pr.responseName]
	for i, queued := range queue {
		if queued == pr {
			c.pending[pr.responseName] = append(queue[:i], queue[i+1:]...)
			return
		}
	}
}

// drain collects a result that raced with a timeout or cancellation.
func (c *Conn) drain(pr *pendingRequest) (result, bool) {
	select {
	case res := <-pr.ch:
		return res, true
	default:
		return result{}, false
	}
}
