package launch

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestArgsFullProfile(t *testing.T) {
	p := withDefaults(Profile{
		Binary:     "/opt/game/game",
		ProjectDir: "/opt/game/project",
		Scene:      "res://levels/arena.tscn",
		Headless:   true,
		Resolution: "1280x720",
		ListenPort: 7070,
		ExtraArgs:  []string{"--no-audio"},
	})
	want := []string{
		"--automation-listen", "127.0.0.1:7070",
		"--headless",
		"--resolution", "1280x720",
		"--path", "/opt/game/project",
		"--no-audio",
		"res://levels/arena.tscn",
	}
	if got := p.Args(); !reflect.DeepEqual(got, want) {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestArgsMinimalProfile(t *testing.T) {
	p := withDefaults(Profile{Binary: "/opt/game/game"})
	want := []string{"--automation-listen", "127.0.0.1:9845"}
	if got := p.Args(); !reflect.DeepEqual(got, want) {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestLoadProfileAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	body := `
binary = "/opt/game/game"
headless = true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Transport != TransportTCP {
		t.Fatalf("transport = %q, want tcp default", p.Transport)
	}
	if p.Addr() != "127.0.0.1:9845" {
		t.Fatalf("addr = %q", p.Addr())
	}
	if p.BootTimeoutMS != defaultBootMS {
		t.Fatalf("boot timeout = %d", p.BootTimeoutMS)
	}
	if !p.Headless {
		t.Fatalf("headless not read from file")
	}
}

func TestLoadProfileRejections(t *testing.T) {
	cases := map[string]string{
		"missing binary":  `headless = true`,
		"bad transport":   "binary = \"/g\"\ntransport = \"udp\"",
		"bad resolution":  "binary = \"/g\"\nresolution = \"wide\"",
		"port overflow":   "binary = \"/g\"\nlisten_port = 70000",
		"malformed toml":  `binary = `,
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), "profile.toml")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		if _, err := LoadProfile(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseResolution(t *testing.T) {
	w, h, err := ParseResolution("1920x1080")
	if err != nil || w != 1920 || h != 1080 {
		t.Fatalf("got %dx%d, %v", w, h, err)
	}
	for _, bad := range []string{"", "1920", "x1080", "1920x", "0x600", "-1x600", "800x600x32"} {
		if _, _, err := ParseResolution(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestProfileURL(t *testing.T) {
	p := withDefaults(Profile{Binary: "/g", ListenHost: "10.0.0.2", ListenPort: 9000})
	if got := p.URL(); got != "ws://10.0.0.2:9000" {
		t.Fatalf("url = %q", got)
	}
}
