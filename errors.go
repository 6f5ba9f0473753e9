package gamectl

import (
	"errors"
	"fmt"

	"github.com/gamectl/gamectl/internal/imagediff"
	"github.com/gamectl/gamectl/internal/session"
)

// Sentinels callers match with errors.Is. Timeout and connection-closed
// conditions originate in the session layer and keep their identity
// through the facade.
var (
	ErrTimeout          = session.ErrTimeout
	ErrConnectionClosed = session.ErrConnectionClosed

	// ErrNodeNotFound is returned when the remote scene has no node at
	// the requested path.
	ErrNodeNotFound = errors.New("gamectl: node not found")

	// ErrDimensionMismatch is returned by screenshot comparison when the
	// capture and the reference differ in size.
	ErrDimensionMismatch = imagediff.ErrDimensionMismatch
)

// RemoteError reports an operation the remote executor received, parsed
// and explicitly refused: unknown method, read-only property, rejected
// input kind. It affects only the one caller.
type RemoteError struct {
	Op     string
	Path   string
	Reason string
}

func (e *RemoteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("gamectl: remote rejected %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("gamectl: remote rejected %s on %s: %s", e.Op, e.Path, e.Reason)
}

// ScreenshotMismatchError reports a visual assertion that scored below
// its threshold. Artifact and DiffArtifact, when non-empty, are the paths
// of the captured frame and the per-pixel difference image written for
// inspection.
type ScreenshotMismatchError struct {
	Score        float64
	Threshold    float64
	Reference    string
	Artifact     string
	DiffArtifact string
}

func (e *ScreenshotMismatchError) Error() string {
	msg := fmt.Sprintf("gamectl: screenshot scored %.4f against %s, want >= %.4f (capture saved to %s)",
		e.Score, e.Reference, e.Threshold, e.Artifact)
	if e.DiffArtifact != "" {
		msg += fmt.Sprintf(" (diff saved to %s)", e.DiffArtifact)
	}
	return msg
}
