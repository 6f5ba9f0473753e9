package launch

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Profile describes how to start a game binary with the automation
// listener enabled. Profiles are loaded from TOML so a test suite can
// keep one file per target build.
type Profile struct {
	Binary     string `toml:"binary"`
	ProjectDir string `toml:"project_dir"`
	Scene      string `toml:"scene"`
	Headless   bool   `toml:"headless"`
	// Resolution is "WIDTHxHEIGHT", e.g. "1280x720". Empty keeps the
	// project default.
	Resolution string `toml:"resolution"`
	ListenHost string `toml:"listen_host"`
	ListenPort int    `toml:"listen_port"`
	// Transport selects how the client connects: "tcp" or "ws".
	Transport string   `toml:"transport"`
	ExtraArgs []string `toml:"extra_args"`
	// BootTimeoutMS bounds how long Connect keeps retrying while the
	// process starts up. Zero means the 30s default.
	BootTimeoutMS int64 `toml:"boot_timeout_ms"`
}

const (
	TransportTCP = "tcp"
	TransportWS  = "ws"

	defaultListenHost = "127.0.0.1"
	defaultListenPort = 9845
	defaultBootMS     = 30_000
)

func LoadProfile(path string) (Profile, error) {
	var p Profile
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("profile load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("profile parse failed (%s): %w", path, err)
	}
	p = withDefaults(p)
	if err := ValidateProfile(p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func withDefaults(p Profile) Profile {
	if p.ListenHost == "" {
		p.ListenHost = defaultListenHost
	}
	if p.ListenPort == 0 {
		p.ListenPort = defaultListenPort
	}
	if p.Transport == "" {
		p.Transport = TransportTCP
	}
	if p.BootTimeoutMS == 0 {
		p.BootTimeoutMS = defaultBootMS
	}
	return p
}

func ValidateProfile(p Profile) error {
	if strings.TrimSpace(p.Binary) == "" {
		return fmt.Errorf("profile missing binary")
	}
	if p.Transport != TransportTCP && p.Transport != TransportWS {
		return fmt.Errorf("profile transport %q, want %q or %q", p.Transport, TransportTCP, TransportWS)
	}
	if p.ListenPort < 1 || p.ListenPort > 65535 {
		return fmt.Errorf("profile listen_port %d out of range", p.ListenPort)
	}
	if p.Resolution != "" {
		if _, _, err := ParseResolution(p.Resolution); err != nil {
			return err
		}
	}
	return nil
}

// ParseResolution splits "WIDTHxHEIGHT" into its two dimensions.
func ParseResolution(s string) (w, h int, err error) {
	lhs, rhs, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("resolution %q, want WIDTHxHEIGHT", s)
	}
	w, werr := strconv.Atoi(lhs)
	h, herr := strconv.Atoi(rhs)
	if werr != nil || herr != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("resolution %q, want WIDTHxHEIGHT", s)
	}
	return w, h, nil
}

// Addr returns the host:port the automation listener binds.
func (p Profile) Addr() string {
	return net.JoinHostPort(p.ListenHost, strconv.Itoa(p.ListenPort))
}

// URL returns the websocket endpoint for ws-transport profiles.
func (p Profile) URL() string {
	return "ws://" + p.Addr()
}

// Args builds the command line for the game binary. The automation
// listener flag always comes first so log output shows it even when
// extra args are long.
func (p Profile) Args() []string {
	args := []string{"--automation-listen", p.Addr()}
	if p.Headless {
		args = append(args, "--headless")
	}
	if p.Resolution != "" {
		args = append(args, "--resolution", p.Resolution)
	}
	if p.ProjectDir != "" {
		args = append(args, "--path", p.ProjectDir)
	}
	args = append(args, p.ExtraArgs...)
	if p.Scene != "" {
		args = append(args, p.Scene)
	}
	return args
}
