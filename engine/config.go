package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/lumina3d/lumina/engine/core"
)

// Config is the engine's startup configuration, loaded from a TOML file
// next to the binary. Zero-valued fields fall back to defaults so a
// partial file only overrides what it names.
type Config struct {
	Title             string `toml:"title"`
	Width             uint32 `toml:"width"`
	Height            uint32 `toml:"height"`
	ValidationEnabled bool   `toml:"validation_enabled"`
	ShaderDirectory   string `toml:"shader_directory"`
	AssetPath         string `toml:"asset_path"`
	PreferMailbox     bool   `toml:"prefer_mailbox"`
}

func DefaultConfig() Config {
	return Config{
		Title:             "Lumina Engine",
		Width:             1700,
		Height:            900,
		ValidationEnabled: true,
		ShaderDirectory:   "shaders",
		AssetPath:         "assets/monkey.glb",
	}
}

// LoadConfig reads the TOML file at path, applying defaults for anything
// unset. A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		core.LogDebug("no config at %s, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	// Unmarshal over the defaults; fields absent from the file keep them.
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
