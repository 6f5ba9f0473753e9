package gamectl

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gamectl/gamectl/internal/logging"
	"github.com/gamectl/gamectl/internal/session"
)

type settings struct {
	session session.Config
	log     zerolog.Logger
	useWS   bool
}

func newSettings(opts []Option) settings {
	logging.ConfigureRuntime()
	s := settings{
		session: session.DefaultConfig(),
		log:     logging.Component("gamectl"),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option adjusts connection behavior.
type Option func(*settings)

// WithInvokeTimeout caps how long a single command waits for its reply.
func WithInvokeTimeout(d time.Duration) Option {
	return func(s *settings) { s.session.InvokeTimeout = d }
}

// WithConnectTimeout caps the initial dial.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *settings) { s.session.ConnectTimeout = d }
}

// WithHandshakeTimeout caps the wait for the remote's hello message.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(s *settings) { s.session.HandshakeTimeout = d }
}

// WithMaxFrameBytes raises or lowers the inbound frame ceiling. Large
// captures need room; the default is 16 MiB.
func WithMaxFrameBytes(n uint32) Option {
	return func(s *settings) { s.session.Limits.MaxPayloadBytes = n }
}

// WithWebSocket connects over the websocket protocol instead of the
// default binary TCP protocol.
func WithWebSocket() Option {
	return func(s *settings) { s.useWS = true }
}

// WithLogger routes the session's logging through the given logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *settings) { s.log = log }
}

// WithBackoff tunes the connect retry schedule used by Launch.
func WithBackoff(b session.BackoffConfig) Option {
	return func(s *settings) { s.session.Backoff = b }
}
