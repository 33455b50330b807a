// Package config holds the construction flags of a mesh and loads them from
// TOML or YAML files.
//
// A flag can be absent, present but falsy, or set. Absence is reported to
// the caller, which warns and skips the step; a falsy value skips the step
// silently.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/plex"
	"gopkg.in/yaml.v3"
)

const (
	FlagPurifyToTets = "purify_to_tets"
	FlagQuad         = "quad"
	FlagTransform    = "transform"
)

// KnownFlags lists the recognised keys in the order they are applied.
var KnownFlags = []string{FlagPurifyToTets, FlagQuad, FlagTransform}

// Flags maps flag names to values: bool for purify_to_tets and quad, a
// plex.Transform, a registered transform name or nil for transform.
type Flags map[string]any

// Bool returns a boolean flag. A nil value counts as present and false.
func (f Flags) Bool(key string) (value, present bool, err error) {
	raw, ok := f[key]
	if !ok {
		return false, false, nil
	}
	switch v := raw.(type) {
	case nil:
		return false, true, nil
	case bool:
		return v, true, nil
	}
	return false, true, fmt.Errorf("flag %s: want bool, got %T: %w", key, raw, mberrors.ErrConfig)
}

// Transform returns the transform flag, resolving names through
// plex.TransformByName. A nil value or empty name yields a nil transform.
func (f Flags) Transform() (plex.Transform, bool, error) {
	raw, ok := f[FlagTransform]
	if !ok {
		return nil, false, nil
	}
	switch v := raw.(type) {
	case nil:
		return nil, true, nil
	case plex.Transform:
		return v, true, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, true, nil
		}
		tr, err := plex.TransformByName(v)
		return tr, true, err
	}
	return nil, true, fmt.Errorf("flag %s: want transform or name, got %T: %w",
		FlagTransform, raw, mberrors.ErrConfig)
}

// Validate rejects unknown keys and mistyped values.
func (f Flags) Validate() error {
	var unknown []string
	for k := range f {
		if !isKnown(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown flags %v: %w", unknown, mberrors.ErrConfig)
	}
	for _, k := range []string{FlagPurifyToTets, FlagQuad} {
		if _, _, err := f.Bool(k); err != nil {
			return err
		}
	}
	_, _, err := f.Transform()
	return err
}

func isKnown(key string) bool {
	for _, k := range KnownFlags {
		if k == key {
			return true
		}
	}
	return false
}

type fileFlags struct {
	PurifyToTets bool   `toml:"purify_to_tets"`
	Quad         bool   `toml:"quad"`
	Transform    string `toml:"transform"`
}

// LoadFlags reads flags from a .toml, .yaml or .yml file. Keys missing from
// the file stay absent from the result.
func LoadFlags(path string) (Flags, error) {
	var flags Flags
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		flags, err = loadTOML(path)
	case ".yaml", ".yml":
		flags, err = loadYAML(path)
	default:
		return nil, fmt.Errorf("load flags %s: unsupported file type: %w", path, mberrors.ErrConfig)
	}
	if err != nil {
		return nil, err
	}
	if err := flags.Validate(); err != nil {
		return nil, fmt.Errorf("load flags %s: %w", path, err)
	}
	return flags, nil
}

func loadTOML(path string) (Flags, error) {
	var raw fileFlags
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load flags %s: %v: %w", path, err, mberrors.ErrConfig)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load flags %s: unknown keys %v: %w", path, undecoded, mberrors.ErrConfig)
	}

	flags := Flags{}
	if meta.IsDefined(FlagPurifyToTets) {
		flags[FlagPurifyToTets] = raw.PurifyToTets
	}
	if meta.IsDefined(FlagQuad) {
		flags[FlagQuad] = raw.Quad
	}
	if meta.IsDefined(FlagTransform) {
		flags[FlagTransform] = strings.TrimSpace(raw.Transform)
	}
	return flags, nil
}

func loadYAML(path string) (Flags, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load flags %s: %w", path, err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("load flags %s: %v: %w", path, err, mberrors.ErrConfig)
	}
	return Flags(raw), nil
}
