// gamectl is a one-shot command line client for a running game's
// automation listener: inspect the scene tree, read and write
// properties, call methods, capture screenshots, and stream events.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/gamectl/gamectl"
)

const usage = `usage: gamectl [flags] <command> [args]

commands:
  tree [root]              dump the scene tree as JSON
  get <path> <property>    read one property
  set <path> <property> <value>
  call <path> <method> [args...]
  exists <path>            report whether a node exists
  scene                    print the current scene path
  pause <on|off>           freeze or resume the game loop
  screenshot <file.png>    capture the viewport to a file
  watch <event> [source]   stream events to stdout until interrupted

flags:
`

func main() {
	var (
		addr       = flag.String("addr", "", "automation listener address (host:port)")
		configPath = flag.String("config", "", "optional TOML config file")
		useWS      = flag.Bool("ws", false, "connect over websocket instead of tcp")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := defaultCLIConfig()
	if *configPath != "" {
		loaded, err := loadCLIConfig(*configPath)
		if err != nil {
			fatalf("%v", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *useWS {
		cfg.UseWebSocket = true
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Args()); err != nil {
		fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg cliConfig, args []string) error {
	opts := []gamectl.Option{gamectl.WithInvokeTimeout(cfg.InvokeTimeout)}
	if cfg.UseWebSocket {
		opts = append(opts, gamectl.WithWebSocket())
	}
	if cfg.MaxFrameBytes > 0 {
		opts = append(opts, gamectl.WithMaxFrameBytes(cfg.MaxFrameBytes))
	}

	game, err := gamectl.Connect(ctx, cfg.Addr, opts...)
	if err != nil {
		return err
	}
	defer game.Close()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "tree":
		return runTree(ctx, game, rest)
	case "get":
		return runGet(ctx, game, rest)
	case "set":
		return runSet(ctx, game, rest)
	case "call":
		return runCall(ctx, game, rest)
	case "exists":
		return runExists(ctx, game, rest)
	case "scene":
		scene, err := game.CurrentScene(ctx)
		if err != nil {
			return err
		}
		fmt.Println(scene)
		return nil
	case "pause":
		return runPause(ctx, game, rest)
	case "screenshot":
		if len(rest) != 1 {
			return errors.New("screenshot: want <file.png>")
		}
		return game.SaveScreenshot(ctx, rest[0])
	case "watch":
		return runWatch(ctx, game, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runTree(ctx context.Context, game *gamectl.Game, args []string) error {
	root := ""
	if len(args) > 0 {
		root = args[0]
	}
	tree, err := game.Tree(ctx, root)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runGet(ctx context.Context, game *gamectl.Game, args []string) error {
	if len(args) != 2 {
		return errors.New("get: want <path> <property>")
	}
	v, err := game.Node(args[0]).Property(ctx, args[1])
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

func runSet(ctx context.Context, game *gamectl.Game, args []string) error {
	if len(args) != 3 {
		return errors.New("set: want <path> <property> <value>")
	}
	return game.Node(args[0]).SetProperty(ctx, args[1], parseLiteral(args[2]))
}

func runCall(ctx context.Context, game *gamectl.Game, args []string) error {
	if len(args) < 2 {
		return errors.New("call: want <path> <method> [args...]")
	}
	callArgs := make([]gamectl.Value, 0, len(args)-2)
	for _, a := range args[2:] {
		callArgs = append(callArgs, parseLiteral(a))
	}
	result, err := game.Node(args[0]).Call(ctx, args[1], callArgs...)
	if err != nil {
		return err
	}
	if !result.IsNil() {
		fmt.Println(result)
	}
	return nil
}

func runExists(ctx context.Context, game *gamectl.Game, args []string) error {
	if len(args) != 1 {
		return errors.New("exists: want <path>")
	}
	ok, err := game.Node(args[0]).Exists(ctx)
	if err != nil {
		return err
	}
	fmt.Println(ok)
	return nil
}

func runPause(ctx context.Context, game *gamectl.Game, args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return errors.New("pause: want on or off")
	}
	return game.Pause(ctx, args[0] == "on")
}

// runWatch streams matching events until the context is cancelled. Each
// wait registers a fresh one-shot subscription, so a burst between waits
// can drop events; this is an inspection tool, not a recorder.
func runWatch(ctx context.Context, game *gamectl.Game, args []string) error {
	if len(args) < 1 {
		return errors.New("watch: want <event> [source]")
	}
	event := args[0]
	source := ""
	if len(args) > 1 {
		source = args[1]
	}
	for {
		ev, err := game.WaitForEvent(ctx, event, source, gamectl.WaitTimeout(1<<62))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		parts := make([]string, 0, len(ev.Args))
		for _, a := range ev.Args {
			parts = append(parts, a.String())
		}
		fmt.Printf("%s %s [%s]\n", ev.Name, ev.Source, strings.Join(parts, ", "))
	}
}

// parseLiteral reads a command line argument as the most specific Value
// it can be: nil, bool, int, float, then text.
func parseLiteral(s string) gamectl.Value {
	switch s {
	case "nil", "null":
		return gamectl.Nil()
	case "true":
		return gamectl.Bool(true)
	case "false":
		return gamectl.Bool(false)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return gamectl.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return gamectl.Float(f)
	}
	return gamectl.Text(s)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "gamectl: "+format+"\n", args...)
	os.Exit(1)
}
