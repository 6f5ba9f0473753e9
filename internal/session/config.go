package session

import (
	"time"

	"github.com/gamectl/gamectl/internal/protocol/frame"
)

// BackoffConfig defines reconnect/retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines transport/session reliability defaults.
type Config struct {
	// ConnectTimeout bounds the TCP/WebSocket dial.
	ConnectTimeout time.Duration
	// HandshakeTimeout bounds the wait for the first inbound message, which
	// supplies the connection's correlation tag.
	HandshakeTimeout time.Duration
	// InvokeTimeout is the per-request deadline used when the caller's
	// context carries none.
	InvokeTimeout time.Duration
	// Limits constrains inbound frame sizes.
	Limits frame.Limits
	// Backoff drives connect retries while the controlled process boots.
	Backoff BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		InvokeTimeout:    30 * time.Second,
		Limits:           frame.DefaultLimits(),
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}
