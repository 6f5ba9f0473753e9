package gamectl

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gamectl/gamectl/internal/protocol/variant"
	"github.com/gamectl/gamectl/internal/testutil/fakegame"
	"github.com/gamectl/gamectl/internal/testutil/testlog"
)

func newTestGame(t *testing.T, opts ...Option) (*Game, *fakegame.Server) {
	t.Helper()
	testlog.Start(t)

	transport, srv := fakegame.Pipe(1234)
	srv.Start()

	s := newSettings(opts)
	g, err := newGame(context.Background(), transport, s)
	if err != nil {
		t.Fatalf("session setup: %v", err)
	}
	t.Cleanup(func() {
		g.Close()
		srv.Close()
	})
	return g, srv
}

func TestNodePropertyScenario(t *testing.T) {
	g, srv := newTestGame(t)
	srv.Handle("query.property", "property.value", func(args []variant.Value) ([]variant.Value, bool) {
		if len(args) != 2 || args[0].Text() != "/root/Main/Player" || args[1].Text() != "health" {
			t.Errorf("unexpected request payload: %v", args)
		}
		return []variant.Value{args[0], args[1], variant.Int(100)}, true
	})

	hp, err := g.Node("/root/Main/Player").Property(context.Background(), "health")
	if err != nil {
		t.Fatalf("property: %v", err)
	}
	if hp.Int() != 100 {
		t.Fatalf("health = %v, want 100", hp)
	}
}

func TestPropertyNilMapsToNotFound(t *testing.T) {
	g, srv := newTestGame(t)
	srv.Handle("query.property", "property.value", func(args []variant.Value) ([]variant.Value, bool) {
		return []variant.Value{args[0], args[1], variant.Nil()}, true
	})

	_, err := g.Node("/root/Ghost").Property(context.Background(), "health")
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestSetPropertyRefusal(t *testing.T) {
	g, srv := newTestGame(t)
	srv.Handle("mutate.property", "property.result", func(args []variant.Value) ([]variant.Value, bool) {
		return []variant.Value{variant.Bool(false)}, true
	})

	err := g.Node("/root/Player").SetProperty(context.Background(), "position", Vec2(1, 2))
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Path != "/root/Player" {
		t.Fatalf("error path = %q", re.Path)
	}
}

func TestCallShipsArgsAsList(t *testing.T) {
	g, srv := newTestGame(t)
	srv.Handle("invoke.method", "method.result", func(args []variant.Value) ([]variant.Value, bool) {
		if len(args) != 3 {
			t.Errorf("payload arity %d, want 3", len(args))
			return nil, false
		}
		callArgs := args[2].List()
		if len(callArgs) != 2 || callArgs[0].Int() != 25 || callArgs[1].Text() != "fire" {
			t.Errorf("call args = %v", args[2])
		}
		return []variant.Value{args[0], args[1], variant.Float(3.5)}, true
	})

	got, err := g.Node("/root/Player").Call(context.Background(), "take_damage", Int(25), Text("fire"))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got.Float() != 3.5 {
		t.Fatalf("result = %v, want 3.5", got)
	}
}

func TestNodeExistsAndChildPaths(t *testing.T) {
	g, srv := newTestGame(t)
	srv.Handle("query.exists", "exists.result", func(args []variant.Value) ([]variant.Value, bool) {
		exists := args[0].Text() == "/root/Main/Player"
		return []variant.Value{variant.Bool(exists)}, true
	})

	player := g.Node("/root/Main").Child("Player")
	if player.Path() != "/root/Main/Player" {
		t.Fatalf("child path = %q", player.Path())
	}
	ok, err := player.Exists(context.Background())
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v", ok, err)
	}
	ok, err = g.Node("/root/Missing").Exists(context.Background())
	if err != nil || ok {
		t.Fatalf("missing node exists = %v, %v", ok, err)
	}
}

func TestClickPayloadShape(t *testing.T) {
	g, srv := newTestGame(t)
	srv.Handle("input.inject", "input.result", func(args []variant.Value) ([]variant.Value, bool) {
		if len(args) != 4 || args[0].Text() != "click" {
			t.Errorf("payload = %v", args)
		}
		if args[1].Float() != 320 || args[2].Float() != 240 || args[3].Int() != int64(MouseLeft) {
			t.Errorf("click coords = %v", args)
		}
		return []variant.Value{variant.Bool(true)}, true
	})

	if err := g.Click(context.Background(), 320, 240); err != nil {
		t.Fatalf("click: %v", err)
	}
}

func TestKeyPressCarriesModifiers(t *testing.T) {
	g, srv := newTestGame(t)
	srv.Handle("input.inject", "input.result", func(args []variant.Value) ([]variant.Value, bool) {
		if args[0].Text() != "key" || args[1].Text() != "enter" || args[2].Text() != "shift" {
			t.Errorf("payload = %v", args)
		}
		return []variant.Value{variant.Bool(true)}, true
	})

	if err := g.KeyPress(context.Background(), "enter", ModShift); err != nil {
		t.Fatalf("key press: %v", err)
	}
}

func TestSceneOps(t *testing.T) {
	g, srv := newTestGame(t)
	srv.Handle("scene.current", "scene.info", func([]variant.Value) ([]variant.Value, bool) {
		return []variant.Value{variant.Text("res://menu.tscn")}, true
	})
	srv.Handle("scene.change", "scene.result", func(args []variant.Value) ([]variant.Value, bool) {
		return []variant.Value{variant.Bool(args[0].Text() == "res://arena.tscn")}, true
	})

	scene, err := g.CurrentScene(context.Background())
	if err != nil || scene != "res://menu.tscn" {
		t.Fatalf("current scene = %q, %v", scene, err)
	}
	if err := g.ChangeScene(context.Background(), "res://arena.tscn"); err != nil {
		t.Fatalf("change scene: %v", err)
	}
	if err := g.ChangeScene(context.Background(), "res://broken.tscn"); err == nil {
		t.Fatal("expected refusal for unknown scene")
	}
}

func TestTreeReturnsMap(t *testing.T) {
	g, srv := newTestGame(t)
	srv.Handle("query.tree", "tree.data", func([]variant.Value) ([]variant.Value, bool) {
		tree := variant.NewMap(
			variant.Entry("name", variant.Text("Main")),
			variant.Entry("children", variant.List(variant.Text("Player"), variant.Text("HUD"))),
		)
		return []variant.Value{tree}, true
	})

	tree, err := g.Tree(context.Background(), "")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	name, ok := tree.MapIndex("name")
	if !ok || name.Text() != "Main" {
		t.Fatalf("tree name = %v", name)
	}
}

func TestQueryNodesReturnsMatchingHandles(t *testing.T) {
	g, srv := newTestGame(t)
	srv.Handle("query.nodes", "nodes.result", func(args []variant.Value) ([]variant.Value, bool) {
		if args[0].Text() != "/root/Enemies/*" {
			t.Errorf("pattern = %q", args[0].Text())
		}
		matches := variant.List(
			variant.Text("/root/Enemies/Slime1"),
			variant.Text("/root/Enemies/Slime2"),
		)
		return []variant.Value{matches}, true
	})

	nodes, err := g.QueryNodes(context.Background(), "/root/Enemies/*")
	if err != nil {
		t.Fatalf("query nodes: %v", err)
	}
	if len(nodes) != 2 || nodes[1].Path() != "/root/Enemies/Slime2" {
		t.Fatalf("nodes = %v", nodes)
	}

	count, err := g.CountNodes(context.Background(), "/root/Enemies/*")
	if err != nil || count != 2 {
		t.Fatalf("count = %d, %v", count, err)
	}
}

func TestQueryNodesEmptyMatchIsNotAnError(t *testing.T) {
	g, srv := newTestGame(t)
	srv.Handle("query.nodes", "nodes.result", func([]variant.Value) ([]variant.Value, bool) {
		return []variant.Value{variant.List()}, true
	})

	count, err := g.CountNodes(context.Background(), "Ghost")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestHoldActionPressesThenReleases(t *testing.T) {
	g, srv := newTestGame(t)

	var kinds []string
	srv.Handle("input.inject", "input.result", func(args []variant.Value) ([]variant.Value, bool) {
		kinds = append(kinds, args[0].Text())
		return []variant.Value{variant.Bool(true)}, true
	})

	start := time.Now()
	if err := g.HoldAction(context.Background(), "jump", 50*time.Millisecond); err != nil {
		t.Fatalf("hold action: %v", err)
	}
	if held := time.Since(start); held < 50*time.Millisecond {
		t.Fatalf("hold returned after %v, want >= 50ms", held)
	}
	if len(kinds) != 2 || kinds[0] != "action_press" || kinds[1] != "action_release" {
		t.Fatalf("input sequence = %v", kinds)
	}
}

func TestHoldActionReleasesOnCancel(t *testing.T) {
	g, srv := newTestGame(t)

	var kinds []string
	srv.Handle("input.inject", "input.result", func(args []variant.Value) ([]variant.Value, bool) {
		kinds = append(kinds, args[0].Text())
		return []variant.Value{variant.Bool(true)}, true
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	err := g.HoldAction(ctx, "jump", time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The release must have gone out despite the cancelled context.
	time.Sleep(50 * time.Millisecond)
	if len(kinds) != 2 || kinds[1] != "action_release" {
		t.Fatalf("input sequence = %v", kinds)
	}
}

func TestWaitForSatisfiedBeforeFirstInterval(t *testing.T) {
	g, _ := newTestGame(t)

	polls := 0
	start := time.Now()
	err := g.WaitFor(context.Background(), func(context.Context) (bool, error) {
		polls++
		return true, nil
	}, WaitInterval(time.Hour), WaitTimeout(time.Hour))
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if polls != 1 {
		t.Fatalf("polls = %d, want 1", polls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("immediate condition took %v", elapsed)
	}
}

func TestWaitForTimesOut(t *testing.T) {
	g, _ := newTestGame(t)

	err := g.WaitFor(context.Background(), func(context.Context) (bool, error) {
		return false, nil
	}, WaitInterval(10*time.Millisecond), WaitTimeout(80*time.Millisecond))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestWaitForNodePollsUntilPresent(t *testing.T) {
	g, srv := newTestGame(t)

	var calls int
	srv.Handle("query.exists", "exists.result", func([]variant.Value) ([]variant.Value, bool) {
		calls++
		return []variant.Value{variant.Bool(calls >= 3)}, true
	})

	n, err := g.WaitForNode(context.Background(), "/root/Spawned",
		WaitInterval(5*time.Millisecond), WaitTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("wait for node: %v", err)
	}
	if n.Path() != "/root/Spawned" {
		t.Fatalf("node path = %q", n.Path())
	}
	if calls < 3 {
		t.Fatalf("exists polled %d times", calls)
	}
}

func TestWaitForEventDelivers(t *testing.T) {
	g, srv := newTestGame(t)

	time.AfterFunc(50*time.Millisecond, func() {
		srv.SendEvent("enemy_died", "/root/Arena/Enemy3", variant.Int(250))
	})

	ev, err := g.WaitForEvent(context.Background(), "enemy_died", "", WaitTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("wait for event: %v", err)
	}
	if ev.Source != "/root/Arena/Enemy3" || len(ev.Args) != 1 || ev.Args[0].Int() != 250 {
		t.Fatalf("event = %+v", ev)
	}
}

func TestWaitForEventTimeoutRemovesSubscription(t *testing.T) {
	g, srv := newTestGame(t)

	_, err := g.WaitForEvent(context.Background(), "level_loaded", "", WaitTimeout(30*time.Millisecond))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	// The expired wait's subscription must be gone: this event has no
	// observer and is discarded, so a later wait starts from nothing.
	srv.SendEvent("level_loaded", "/root")
	time.Sleep(50 * time.Millisecond)

	_, err = g.WaitForEvent(context.Background(), "level_loaded", "", WaitTimeout(30*time.Millisecond))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("stale event matched a later wait: %v", err)
	}
}

func encodePNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func serveScreenshot(t *testing.T, srv *fakegame.Server, c color.Color) {
	t.Helper()
	data := encodePNG(t, c)
	srv.Handle("capture.screenshot", "screenshot.data", func([]variant.Value) ([]variant.Value, bool) {
		return []variant.Value{variant.Bytes(data)}, true
	})
}

func TestScreenshotDecodes(t *testing.T) {
	g, srv := newTestGame(t)
	serveScreenshot(t, srv, color.RGBA{R: 40, G: 80, B: 120, A: 255})

	img, err := g.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("screenshot: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 4 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
}

func TestCompareScreenshotIdentical(t *testing.T) {
	g, srv := newTestGame(t)
	shade := color.RGBA{R: 40, G: 80, B: 120, A: 255}
	serveScreenshot(t, srv, shade)

	ref := filepath.Join(t.TempDir(), "ref.png")
	if err := os.WriteFile(ref, encodePNG(t, shade), 0o644); err != nil {
		t.Fatalf("write ref: %v", err)
	}

	score, err := g.CompareScreenshot(context.Background(), ref)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if score != 1.0 {
		t.Fatalf("score = %v, want exactly 1.0", score)
	}
}

func TestAssertScreenshotRecordsReference(t *testing.T) {
	g, srv := newTestGame(t)
	serveScreenshot(t, srv, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	t.Setenv(UpdateEnv, "1")

	ref := filepath.Join(t.TempDir(), "menu.png")
	if err := g.AssertScreenshot(context.Background(), ref, 0.99); err != nil {
		t.Fatalf("assert in update mode: %v", err)
	}
	if _, err := os.Stat(ref); err != nil {
		t.Fatalf("reference not written: %v", err)
	}
}

func TestAssertScreenshotMismatchWritesArtifact(t *testing.T) {
	g, srv := newTestGame(t)
	serveScreenshot(t, srv, color.RGBA{R: 250, G: 250, B: 250, A: 255})

	ref := filepath.Join(t.TempDir(), "menu.png")
	if err := os.WriteFile(ref, encodePNG(t, color.RGBA{A: 255}), 0o644); err != nil {
		t.Fatalf("write ref: %v", err)
	}

	err := g.AssertScreenshot(context.Background(), ref, 0.99)
	var mismatch *ScreenshotMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ScreenshotMismatchError, got %v", err)
	}
	if mismatch.Score >= 0.99 {
		t.Fatalf("mismatch score = %v", mismatch.Score)
	}
	if mismatch.Artifact == "" {
		t.Fatal("no failure artifact recorded")
	}
	if _, err := os.Stat(mismatch.Artifact); err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if mismatch.DiffArtifact == "" {
		t.Fatal("no diff artifact recorded")
	}
	diffImg, err := loadPNG(mismatch.DiffArtifact)
	if err != nil {
		t.Fatalf("diff artifact unreadable: %v", err)
	}
	// Near-white capture against a black reference: the diff is bright.
	r, _, _, _ := diffImg.At(0, 0).RGBA()
	if r>>8 != 250 {
		t.Fatalf("diff pixel delta = %d, want 250", r>>8)
	}
}

func TestDiffImageDimensionMismatch(t *testing.T) {
	a := image.NewRGBA(image.Rect(0, 0, 4, 4))
	b := image.NewRGBA(image.Rect(0, 0, 4, 5))
	if _, err := DiffImage(a, b); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSaveDiffWritesFile(t *testing.T) {
	a := image.NewRGBA(image.Rect(0, 0, 4, 4))
	b := image.NewRGBA(image.Rect(0, 0, 4, 4))
	out := filepath.Join(t.TempDir(), "diff.png")
	if err := SaveDiff(a, b, out); err != nil {
		t.Fatalf("save diff: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("diff not written: %v", err)
	}
}
