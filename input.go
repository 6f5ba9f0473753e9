package gamectl

import (
	"context"
	"time"

	"github.com/gamectl/gamectl/internal/protocol/schema"
)

// MouseButton selects which button a click or drag uses.
type MouseButton int64

const (
	MouseLeft   MouseButton = 1
	MouseRight  MouseButton = 2
	MouseMiddle MouseButton = 3
)

// Modifier names a held modifier key on keyboard input.
type Modifier string

const (
	ModShift Modifier = "shift"
	ModCtrl  Modifier = "ctrl"
	ModAlt   Modifier = "alt"
	ModMeta  Modifier = "meta"
)

// inject sends one input.inject command. The first payload value names
// the input kind; the rest is kind-specific.
func (g *Game) inject(ctx context.Context, kind string, args ...Value) error {
	payload := append([]Value{Text(kind)}, args...)
	reply, err := g.invoke(ctx, schema.CmdInputInject, payload...)
	if err != nil {
		return err
	}
	return expectBool(reply, "input."+kind, "")
}

// Click presses and releases the left mouse button at viewport
// coordinates x,y.
func (g *Game) Click(ctx context.Context, x, y float64) error {
	return g.ClickButton(ctx, x, y, MouseLeft)
}

// ClickButton clicks an arbitrary mouse button at x,y.
func (g *Game) ClickButton(ctx context.Context, x, y float64, b MouseButton) error {
	return g.inject(ctx, "click", Float(x), Float(y), Int(int64(b)))
}

// DoubleClick sends two rapid left clicks at x,y as one input event, so
// the remote sees a genuine double click rather than two singles.
func (g *Game) DoubleClick(ctx context.Context, x, y float64) error {
	return g.inject(ctx, "double_click", Float(x), Float(y), Int(int64(MouseLeft)))
}

// MoveMouse moves the pointer to x,y without pressing anything.
func (g *Game) MoveMouse(ctx context.Context, x, y float64) error {
	return g.inject(ctx, "move", Float(x), Float(y))
}

// Drag presses at the start point, moves to the end point and releases.
func (g *Game) Drag(ctx context.Context, fromX, fromY, toX, toY float64) error {
	return g.inject(ctx, "drag", Float(fromX), Float(fromY), Float(toX), Float(toY), Int(int64(MouseLeft)))
}

// KeyPress taps a named key, e.g. "enter", "escape", "a", with any held
// modifiers.
func (g *Game) KeyPress(ctx context.Context, key string, mods ...Modifier) error {
	args := []Value{Text(key)}
	for _, m := range mods {
		args = append(args, Text(string(m)))
	}
	return g.inject(ctx, "key", args...)
}

// TypeText sends a string as individual character input events, the way
// a text field sees typing.
func (g *Game) TypeText(ctx context.Context, text string) error {
	return g.inject(ctx, "type", Text(text))
}

// ActionPress begins holding a named input-map action, e.g. "move_left".
// Pair with ActionRelease.
func (g *Game) ActionPress(ctx context.Context, action string) error {
	return g.inject(ctx, "action_press", Text(action))
}

// ActionRelease stops holding a named action.
func (g *Game) ActionRelease(ctx context.Context, action string) error {
	return g.inject(ctx, "action_release", Text(action))
}

// ActionTap presses and immediately releases a named action.
func (g *Game) ActionTap(ctx context.Context, action string) error {
	return g.inject(ctx, "action_tap", Text(action))
}

// HoldAction presses a named action, keeps it held for the given
// duration, then releases it. The release still goes out when the
// context is cancelled mid-hold, so the remote is never left with a
// stuck input.
func (g *Game) HoldAction(ctx context.Context, action string, d time.Duration) error {
	if err := g.ActionPress(ctx, action); err != nil {
		return err
	}

	var holdErr error
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		holdErr = ctx.Err()
	}

	releaseCtx := ctx
	if holdErr != nil {
		releaseCtx = context.WithoutCancel(ctx)
	}
	if err := g.ActionRelease(releaseCtx, action); err != nil && holdErr == nil {
		return err
	}
	return holdErr
}

// Tap sends a touch tap at x,y.
func (g *Game) Tap(ctx context.Context, x, y float64) error {
	return g.inject(ctx, "tap", Float(x), Float(y))
}

// Swipe sends a touch drag from the start to the end point spread over
// the given duration.
func (g *Game) Swipe(ctx context.Context, fromX, fromY, toX, toY float64, over time.Duration) error {
	return g.inject(ctx, "swipe",
		Float(fromX), Float(fromY), Float(toX), Float(toY), Float(over.Seconds()))
}

// Pinch sends a two-finger pinch centered on x,y, moving the fingers
// from the start separation to the end separation over the given
// duration. A shrinking separation zooms out, a growing one zooms in.
func (g *Game) Pinch(ctx context.Context, x, y, fromDist, toDist float64, over time.Duration) error {
	return g.inject(ctx, "pinch",
		Float(x), Float(y), Float(fromDist), Float(toDist), Float(over.Seconds()))
}
