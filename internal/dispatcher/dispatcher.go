// ABOUTME: Maps a parsed invocation to get-default, set-default and play actions.
// ABOUTME: Each run reads settings at most once, writes at most once and plays at most once.

package dispatcher

import (
	"fmt"
	"io"

	"github.com/codequiver/jukebox/internal/config"
	"github.com/codequiver/jukebox/internal/logging"
	"github.com/codequiver/jukebox/internal/selector"
)

// Request is the parsed command line
type Request struct {
	ChosenSound      string
	SoundFolder      string
	SetDefaultFolder string
	GetDefaultFolder bool
}

// IsEmpty reports whether no jukebox flag was given
func (r Request) IsEmpty() bool {
	return r == Request{}
}

// WantsPlayback reports whether a set-default run should go on to play
func (r Request) WantsPlayback() bool {
	return r.ChosenSound != "" || r.SoundFolder != ""
}

// Player plays one file and blocks until it is done
type Player interface {
	Play(path string) error
	Close() error
}

// Announcer tells the user what is about to play
type Announcer interface {
	Announce(path string) error
}

// settingsWriter persists a new default folder
type settingsWriter interface {
	SaveDefault(folder string) error
}

// Options holds the dispatcher's collaborators
type Options struct {
	Config config.Config
	Store  settingsWriter
	// OpenPlayer is called only when something is about to be played
	OpenPlayer func() (Player, error)
	// Announcer is optional
	Announcer Announcer
	Out       io.Writer
}

// Dispatcher runs one invocation
type Dispatcher struct {
	cfg        config.Config
	store      settingsWriter
	openPlayer func() (Player, error)
	announcer  Announcer
	out        io.Writer
}

// New creates a dispatcher
func New(opts Options) *Dispatcher {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &Dispatcher{
		cfg:        opts.Config,
		store:      opts.Store,
		openPlayer: opts.OpenPlayer,
		announcer:  opts.Announcer,
		out:        out,
	}
}

// Run executes req
func (d *Dispatcher) Run(req Request) error {
	if req.IsEmpty() {
		logging.Debug("No flags, playing random sound from %s", d.cfg.DefaultFolder)
		return d.playRandom(d.cfg.DefaultFolder)
	}

	if req.GetDefaultFolder {
		fmt.Fprintln(d.out, d.cfg.DefaultFolder)
		return nil
	}

	cfg := d.cfg
	if req.SetDefaultFolder != "" {
		if err := d.store.SaveDefault(req.SetDefaultFolder); err != nil {
			fmt.Fprintf(d.out, "Failed to update default sound folder to '%s'; Error: '%v'\n", req.SetDefaultFolder, err)
			return fmt.Errorf("failed to update default sound folder: %w", err)
		}
		fmt.Fprintf(d.out, "Successfully updated default sound folder to '%s'\n", req.SetDefaultFolder)
		logging.Info("Default sound folder updated: %s", req.SetDefaultFolder)

		if !req.WantsPlayback() {
			return nil
		}
		cfg = cfg.WithDefaultFolder(req.SetDefaultFolder)
	}

	folder := cfg.SoundFolder(req.SoundFolder)

	if req.ChosenSound != "" {
		return d.play(selector.SoundPath(folder, req.ChosenSound))
	}
	return d.playRandom(folder)
}

func (d *Dispatcher) playRandom(folder string) error {
	name, err := selector.PickFromFolder(folder)
	if err != nil {
		return err
	}
	return d.play(selector.SoundPath(folder, name))
}

func (d *Dispatcher) play(path string) error {
	fmt.Fprintf(d.out, "playing sound %s\n", path)

	player, err := d.openPlayer()
	if err != nil {
		return fmt.Errorf("failed to create audio player: %w", err)
	}
	defer player.Close()

	if d.announcer != nil {
		if err := d.announcer.Announce(path); err != nil {
			logging.Warn("Now-playing notification failed: %v", err)
		}
	}

	if err := player.Play(path); err != nil {
		return err
	}

	logging.Info("Played %s", path)
	return nil
}
