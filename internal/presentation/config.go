package presentation

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds window/input/audio settings for the ebiten host. It has no
// bearing on emulation semantics; it's serialized to disk across runs the
// same way the teacher's UI layer persisted window preferences.
type Config struct {
	Title           string
	Scale           int
	AudioStereo     bool
	AudioBufferMs   int
	AudioLowLatency bool
	PaletteID       int
	AutoPalette     bool
}

// Defaults fills zero-valued fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbemu"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.AudioBufferMs <= 0 {
		c.AudioBufferMs = 60
	}
	if c.PaletteID < 0 || c.PaletteID >= PaletteCount() {
		c.PaletteID = 0
	}
}

func settingsPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		d := filepath.Join(dir, "gbemu")
		_ = os.MkdirAll(d, 0755)
		return filepath.Join(d, "settings.json")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "gbemu_settings.json")
}

// LoadSettings reads persisted settings from disk, if any, and layers any
// non-zero fields of override on top.
func LoadSettings(override Config) Config {
	var cfg Config
	if b, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(b, &cfg)
	}
	if override.Title != "" {
		cfg.Title = override.Title
	}
	if override.Scale != 0 {
		cfg.Scale = override.Scale
	}
	if override.AudioBufferMs != 0 {
		cfg.AudioBufferMs = override.AudioBufferMs
	}
	if override.PaletteID != 0 {
		cfg.PaletteID = override.PaletteID
	}
	cfg.AudioStereo = override.AudioStereo || cfg.AudioStereo
	cfg.AudioLowLatency = override.AudioLowLatency || cfg.AudioLowLatency
	cfg.AutoPalette = override.AutoPalette || cfg.AutoPalette
	return cfg
}

// Save persists the config to disk, best-effort.
func (c Config) Save() {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(settingsPath(), b, 0644)
}
