package gamectl

import (
	"context"

	"github.com/gamectl/gamectl/internal/protocol/schema"
)

// CurrentScene returns the resource path of the scene currently running.
func (g *Game) CurrentScene(ctx context.Context) (string, error) {
	payload, err := g.invoke(ctx, schema.CmdSceneCurrent)
	if err != nil {
		return "", err
	}
	if len(payload) < 1 || payload[0].Kind() != KindText {
		return "", &RemoteError{Op: "scene.current", Reason: "malformed reply"}
	}
	return payload[0].Text(), nil
}

// ChangeScene switches the running scene to the one at path.
func (g *Game) ChangeScene(ctx context.Context, path string) error {
	payload, err := g.invoke(ctx, schema.CmdSceneChange, Text(path))
	if err != nil {
		return err
	}
	return expectBool(payload, "scene.change", path)
}

// ReloadScene restarts the current scene from its saved state.
func (g *Game) ReloadScene(ctx context.Context) error {
	payload, err := g.invoke(ctx, schema.CmdSceneReload)
	if err != nil {
		return err
	}
	return expectBool(payload, "scene.reload", "")
}

// Tree dumps the scene tree below root as a nested Map. An empty root
// dumps from the top.
func (g *Game) Tree(ctx context.Context, root string) (Value, error) {
	payload, err := g.invoke(ctx, schema.CmdQueryTree, Text(root))
	if err != nil {
		return Nil(), err
	}
	if len(payload) < 1 || payload[0].Kind() != KindMap {
		return Nil(), &RemoteError{Op: "query.tree", Path: root, Reason: "malformed reply"}
	}
	return payload[0], nil
}

// Pause freezes or resumes the remote game loop.
func (g *Game) Pause(ctx context.Context, paused bool) error {
	payload, err := g.invoke(ctx, schema.CmdControlPause, Bool(paused))
	if err != nil {
		return err
	}
	return expectBool(payload, "control.pause", "")
}

// SetTimeScale changes the remote engine's time dilation. 1.0 is real
// time.
func (g *Game) SetTimeScale(ctx context.Context, scale float64) error {
	payload, err := g.invoke(ctx, schema.CmdControlTimeScale, Float(scale))
	if err != nil {
		return err
	}
	return expectBool(payload, "control.timescale", "")
}

// StepFrames blocks until the remote engine has advanced n frames. Most
// useful while paused or under a reduced time scale.
func (g *Game) StepFrames(ctx context.Context, n int) error {
	payload, err := g.invoke(ctx, schema.CmdControlFrames, Int(int64(n)))
	if err != nil {
		return err
	}
	return expectBool(payload, "control.frames", "")
}

// StepSeconds blocks until the remote engine has advanced the given
// amount of game time, which differs from wall time under a time scale.
func (g *Game) StepSeconds(ctx context.Context, seconds float64) error {
	payload, err := g.invoke(ctx, schema.CmdControlSeconds, Float(seconds))
	if err != nil {
		return err
	}
	return expectBool(payload, "control.seconds", "")
}
