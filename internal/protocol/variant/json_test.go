package variant

import (
	"errors"
	"testing"

	json "github.com/goccy/go-json"
)

func TestJSONFormRoundTrip(t *testing.T) {
	in := List(
		Nil(),
		Int(100),
		Float(0.1),
		Text("/root/Player"),
		Vec2(3, -4.5),
		Color(0, 0.5, 1, 1),
		Bytes([]byte{0xDE, 0xAD}),
		NewMap(Entry("hp", Int(100)), Entry("alive", Bool(true))),
	)
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Value
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Equal(in) {
		t.Fatalf("json round trip mismatch:\n in=%s\nout=%s", in, out)
	}
}

func TestJSONFormRejectsUnknownTag(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"t":"quaternion","v":1}`), &v)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestJSONFormRejectsGarbage(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"t":"int","v":"nope"}`), &v); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
