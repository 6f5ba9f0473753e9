package schema

import (
	"errors"
	"testing"

	"github.com/gamectl/gamectl/internal/protocol/variant"
)

func TestTableIsComplete(t *testing.T) {
	for c := Command(0); c < numCommands; c++ {
		if c.RequestName() == "" {
			t.Fatalf("command %d has no request name", int(c))
		}
		if c.ResponseName() == "" {
			t.Fatalf("command %s has no response name", c)
		}
	}
}

func TestWireNamesAreUniquePerRequest(t *testing.T) {
	seen := make(map[string]Command)
	for c := Command(0); c < numCommands; c++ {
		name := c.RequestName()
		if prev, dup := seen[name]; dup {
			t.Fatalf("request name %q shared by %s and %s", name, prev, c)
		}
		seen[name] = c
	}
}

func TestValidateArgs(t *testing.T) {
	if err := ValidateArgs(CmdQueryProperty, []variant.Value{variant.Text("/root/Player"), variant.Text("health")}); err != nil {
		t.Fatalf("valid args rejected: %v", err)
	}

	err := ValidateArgs(CmdQueryProperty, []variant.Value{variant.Text("/root/Player")})
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// input.inject takes a variable payload but never an empty one.
	if err := ValidateArgs(CmdInputInject, nil); err == nil {
		t.Fatalf("empty input.inject payload accepted")
	}
	if err := ValidateArgs(CmdInputInject, []variant.Value{variant.Text("click"), variant.Vec2(10, 20)}); err != nil {
		t.Fatalf("variable payload rejected: %v", err)
	}

	if err := ValidateArgs(Command(99), nil); err == nil {
		t.Fatalf("unknown command accepted")
	}
}

func TestEventNames(t *testing.T) {
	if !IsEvent("event.died") {
		t.Fatalf("event.died not recognized as event")
	}
	if IsEvent("property.value") {
		t.Fatalf("response name recognized as event")
	}
	if got := EventName("event.coin_collected"); got != "coin_collected" {
		t.Fatalf("EventName = %q", got)
	}
	if got := EventWireName("died"); got != "event.died" {
		t.Fatalf("EventWireName = %q", got)
	}
}
