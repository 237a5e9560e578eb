package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"wsc/internal/lower"
	"wsc/internal/slots"
)

// ErrInvalidManifest wraps every manifest validation failure.
var ErrInvalidManifest = errors.New("invalid manifest")

type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Package     PackageConfig     `toml:"package"`
	Compile     CompileConfig     `toml:"compile"`
	Target      TargetConfig      `toml:"target"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type CompileConfig struct {
	// Main is a fixture file or a directory of fixtures.
	Main string `toml:"main"`
	Out  string `toml:"out"`
}

type TargetConfig struct {
	GlobalSlots    int  `toml:"global_slots"`
	PlayerSlots    int  `toml:"player_slots"`
	NativeBreak    bool `toml:"native_break"`
	NativeContinue bool `toml:"native_continue"`
}

type DiagnosticsConfig struct {
	Max int `toml:"max"`
}

// Load finds and loads the manifest above startDir. ok is false when there
// is none.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfig parses one manifest. Keys left out of [target] and
// [diagnostics] take their defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: failed to parse TOML: %w", ErrInvalidManifest, path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%w: %s: missing [package]", ErrInvalidManifest, path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%w: %s: missing [package].name", ErrInvalidManifest, path)
	}
	if !meta.IsDefined("compile", "main") || strings.TrimSpace(cfg.Compile.Main) == "" {
		return Config{}, fmt.Errorf("%w: %s: missing [compile].main", ErrInvalidManifest, path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: %s: unknown key %s", ErrInvalidManifest, path, undecoded[0])
	}
	if !meta.IsDefined("target", "native_break") {
		cfg.Target.NativeBreak = true
	}
	if !meta.IsDefined("target", "native_continue") {
		cfg.Target.NativeContinue = true
	}
	if !meta.IsDefined("diagnostics", "max") {
		cfg.Diagnostics.Max = 100
	}
	for _, n := range []struct {
		key string
		v   int
	}{{"global_slots", cfg.Target.GlobalSlots}, {"player_slots", cfg.Target.PlayerSlots}} {
		if meta.IsDefined("target", n.key) && n.v < slots.MinLimit {
			return Config{}, fmt.Errorf("%w: %s: [target].%s must be at least %d", ErrInvalidManifest, path, n.key, slots.MinLimit)
		}
	}
	return cfg, nil
}

// MainPath resolves [compile].main against the project root.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.Root, filepath.FromSlash(strings.TrimSpace(m.Config.Compile.Main)))
}

// OutPath resolves [compile].out, or "" when unset.
func (m *Manifest) OutPath() string {
	out := strings.TrimSpace(m.Config.Compile.Out)
	if out == "" {
		return ""
	}
	return filepath.Join(m.Root, filepath.FromSlash(out))
}

// LowerOptions converts [target] into lowering options.
func (c Config) LowerOptions() lower.Options {
	return lower.Options{
		Slots:          slots.Config{GlobalSlots: c.Target.GlobalSlots, PlayerSlots: c.Target.PlayerSlots},
		NativeBreak:    c.Target.NativeBreak,
		NativeContinue: c.Target.NativeContinue,
	}
}

// DefaultManifest returns the manifest written by `wsc init`.
func DefaultManifest(name string) string {
	return fmt.Sprintf(`# wsc project manifest
[package]
name = %q

[compile]
main = "main.wsc.yaml"
out = "build/%s.ows"

[target]
global_slots = %d
player_slots = %d
native_break = true
native_continue = true

[diagnostics]
max = 100
`, name, name, slots.DefaultLimit, slots.DefaultLimit)
}
