// Package gamectl drives a running game or simulation process from the
// outside: it connects to the process's automation listener, queries and
// mutates scene objects, injects simulated input, waits on conditions and
// engine events, and captures frames for visual comparison.
//
// A session starts from an address or a launch profile:
//
//	game, err := gamectl.Connect(ctx, "127.0.0.1:9845")
//	...
//	defer game.Close()
//
//	player := game.Node("/root/Main/Player")
//	hp, err := player.Property(ctx, "health")
//
// All blocking calls take a context. One physical connection serves any
// number of concurrent callers; replies are correlated by response name in
// send order, never by a per-request id.
package gamectl
