package config

import (
	"fmt"

	"github.com/codequiver/jukebox/internal/settings"
)

// Config is built once at startup and never mutated
type Config struct {
	DefaultFolder string // persisted default, or settings.DefaultSoundFolder
	SettingsFile  string
	AudioDevice   string // Audio output device name (empty = system default)
	Notify        bool   // Show a desktop "now playing" notification
	NotifyMethod  string // "auto", "beeep" or "osc9" (default: "auto")
}

// Options are the per-process settings that are not persisted
type Options struct {
	AudioDevice  string
	Notify       bool
	NotifyMethod string
}

// DefaultConfig returns a config using the built-in folder and settings file
func DefaultConfig() Config {
	return Config{
		DefaultFolder: settings.DefaultSoundFolder,
		SettingsFile:  settings.FileName,
		NotifyMethod:  "auto",
	}
}

// Load composes the built-in defaults with the persisted default folder
func Load(store *settings.Store, opts Options) Config {
	cfg := DefaultConfig()
	cfg.DefaultFolder = store.LoadDefault()
	cfg.SettingsFile = store.Path()
	cfg.AudioDevice = opts.AudioDevice
	cfg.Notify = opts.Notify
	if opts.NotifyMethod != "" {
		cfg.NotifyMethod = opts.NotifyMethod
	}
	return cfg
}

// WithDefaultFolder returns a copy with a new default folder
func (c Config) WithDefaultFolder(folder string) Config {
	c.DefaultFolder = folder
	return c
}

// Validate validates the configuration
func (c Config) Validate() error {
	if c.DefaultFolder == "" {
		return fmt.Errorf("default sound folder must not be empty")
	}

	validMethods := map[string]bool{
		"":      true, // empty means auto
		"auto":  true,
		"beeep": true,
		"osc9":  true,
	}
	if !validMethods[c.NotifyMethod] {
		return fmt.Errorf("invalid notification method: %s (must be one of: auto, beeep, osc9)", c.NotifyMethod)
	}

	return nil
}

// ResolveFolder returns override when set, otherwise defaultFolder
func ResolveFolder(defaultFolder, override string) string {
	if override != "" {
		return override
	}
	return defaultFolder
}

// SoundFolder resolves the folder to search for this invocation
func (c Config) SoundFolder(override string) string {
	return ResolveFolder(c.DefaultFolder, override)
}
