package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Width != 1700 || cfg.Height != 900 {
		t.Errorf("default window size is %dx%d, expected 1700x900", cfg.Width, cfg.Height)
	}
	if cfg.ShaderDirectory != "shaders" {
		t.Errorf("default shader directory is %q", cfg.ShaderDirectory)
	}
	if !cfg.ValidationEnabled {
		t.Error("validation should default to on")
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing config should not error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("missing file gave %+v instead of defaults", cfg)
	}
}

func TestLoadConfigPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	content := "title = \"Demo\"\nwidth = 800\nprefer_mailbox = true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Title != "Demo" || cfg.Width != 800 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if !cfg.PreferMailbox {
		t.Error("prefer_mailbox override not applied")
	}
	if cfg.Height != 900 || cfg.ShaderDirectory != "shaders" {
		t.Errorf("unset fields lost their defaults: %+v", cfg)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	if err := os.WriteFile(path, []byte("width = \"not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("malformed config should error")
	}
}
