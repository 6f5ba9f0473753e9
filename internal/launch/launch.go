// Package launch starts a game binary with the automation listener
// enabled and connects to it once the process is ready to accept the
// session handshake.
package launch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/gamectl/gamectl/internal/logging"
	"github.com/gamectl/gamectl/internal/session"
)

// ErrProcessExited is returned when the game process dies before the
// automation listener ever accepted a connection.
var ErrProcessExited = errors.New("launch: process exited before connect")

// Process is a running game instance started from a Profile.
type Process struct {
	profile Profile
	cmd     *exec.Cmd
	log     zerolog.Logger

	// waited closes once cmd.Wait returns; waitErr is valid after that.
	waited  chan struct{}
	waitErr error
}

// Start launches the binary described by p. The process inherits stdout
// and stderr so engine logs interleave with the test run.
func Start(ctx context.Context, p Profile) (*Process, error) {
	p = withDefaults(p)
	if err := ValidateProfile(p); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, p.Binary, p.Args()...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if p.ProjectDir != "" {
		cmd.Dir = p.ProjectDir
	}

	log := logging.Component("launch")
	log.Info().
		Str("binary", p.Binary).
		Strs("args", p.Args()).
		Msg("starting process")

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", p.Binary, err)
	}

	proc := &Process{
		profile: p,
		cmd:     cmd,
		log:     log,
		waited:  make(chan struct{}),
	}
	go func() {
		proc.waitErr = cmd.Wait()
		close(proc.waited)
	}()
	return proc, nil
}

// Connect dials the automation listener, retrying with backoff while the
// engine boots. It fails early if the process dies first.
func (p *Process) Connect(ctx context.Context, cfg session.Config) (*session.Conn, error) {
	deadline := time.Duration(p.profile.BootTimeoutMS) * time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var lastErr error
	for attempt := 1; ; attempt++ {
		conn, err := p.dial(ctx, cfg)
		if err == nil {
			p.log.Info().Int("attempt", attempt).Str("addr", p.profile.Addr()).Msg("connected")
			return conn, nil
		}
		lastErr = err
		p.log.Debug().Int("attempt", attempt).Err(err).Msg("connect retry")

		delay := retryDelay(p.profile.backoff(cfg), attempt, rng)
		select {
		case <-p.waited:
			return nil, fmt.Errorf("%w: %v", ErrProcessExited, p.waitErr)
		case <-ctx.Done():
			return nil, fmt.Errorf("launch connect to %s: %w (last: %v)", p.profile.Addr(), ctx.Err(), lastErr)
		case <-time.After(delay):
		}
	}
}

func (p *Process) dial(ctx context.Context, cfg session.Config) (*session.Conn, error) {
	if p.profile.Transport == TransportWS {
		t, err := session.DialWebSocket(ctx, p.profile.URL(), cfg)
		if err != nil {
			return nil, err
		}
		return session.NewConn(ctx, t, cfg, p.log)
	}
	return session.Dial(ctx, p.profile.Addr(), cfg, p.log)
}

func (p Profile) backoff(cfg session.Config) session.BackoffConfig {
	b := cfg.Backoff
	if b.InitialDelay <= 0 {
		b = session.DefaultConfig().Backoff
	}
	return b
}

// retryDelay computes the sleep before connect attempt N (1-based): the
// initial delay grown by the multiplier per attempt, clamped at MaxDelay.
// Jitter spreads the result across [0.5d, 1.5d) so parallel test runs
// against freshly started processes do not hammer in lockstep.
func retryDelay(b session.BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if b.InitialDelay <= 0 {
		return 0
	}
	d := b.InitialDelay
	for i := 1; i < attempt; i++ {
		if b.Multiplier > 1 {
			d = time.Duration(float64(d) * b.Multiplier)
		}
		if b.MaxDelay > 0 && d >= b.MaxDelay {
			d = b.MaxDelay
			break
		}
	}
	if b.Jitter && rng != nil {
		d = time.Duration(float64(d) * (0.5 + rng.Float64()))
	}
	return d
}

// Stop asks the process to exit and kills it if it has not gone within
// grace. Safe to call after the process already exited.
func (p *Process) Stop(grace time.Duration) error {
	select {
	case <-p.waited:
		return nil
	default:
	}

	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		p.log.Debug().Err(err).Msg("interrupt failed, killing")
		_ = p.cmd.Process.Kill()
	}
	select {
	case <-p.waited:
		return nil
	case <-time.After(grace):
	}

	p.log.Warn().Dur("grace", grace).Msg("process ignored interrupt, killing")
	if err := p.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("kill: %w", err)
	}
	<-p.waited
	return nil
}

// Done closes once the process has exited.
func (p *Process) Done() <-chan struct{} { return p.waited }

// Err reports the process exit status. Only valid after Done.
func (p *Process) Err() error { return p.waitErr }
