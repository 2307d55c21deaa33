// ABOUTME: jukebox plays a random (or named) mp3/wav file from a sound folder.
// ABOUTME: The default folder is persisted in default_sound_folder.config.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codequiver/jukebox/internal/audio"
	"github.com/codequiver/jukebox/internal/config"
	"github.com/codequiver/jukebox/internal/dispatcher"
	"github.com/codequiver/jukebox/internal/logging"
	"github.com/codequiver/jukebox/internal/notifier"
	"github.com/codequiver/jukebox/internal/settings"
)

const version = "1.0.0"

// playerFactory opens an audio player on the named device
type playerFactory func(device string) (dispatcher.Player, error)

func openAudioPlayer(device string) (dispatcher.Player, error) {
	p, err := audio.NewPlayer(device)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func main() {
	if err := newRootCmd(os.Stdout, openAudioPlayer).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer, openPlayer playerFactory) *cobra.Command {
	var req dispatcher.Request

	// Ambient options also come from JUKEBOX_* environment variables.
	// The default folder itself only ever comes from the settings file.
	v := viper.New()
	v.SetEnvPrefix("JUKEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "jukebox",
		Short: "Play a random sound from a folder",
		Long: `Play a random mp3 or wav file from the default sound folder (./jukebox_sound
unless changed with --set-default-sound-folder), or a specific file or folder.`,
		Example: `  jukebox
  jukebox --sound "metal_dragon_battle.mp3"
  jukebox --folder "./bard_songs"
  jukebox --sound "metal_dragon_battle.mp3" --folder "./bard_songs"
  jukebox --set-default-sound-folder "C://Music/Game_Tracks/Custom"
  jukebox --get-default-sound-folder`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := logging.InitLogger(logging.Options{
				Debug:    v.GetBool("debug"),
				FilePath: v.GetString("log-file"),
				Stderr:   cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer cleanup()

			store := settings.NewStore(v.GetString("settings-file"))
			cfg := config.Load(store, config.Options{
				AudioDevice:  v.GetString("device"),
				Notify:       v.GetBool("notify"),
				NotifyMethod: v.GetString("notify-method"),
			})
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			logging.Debug("Config loaded: default folder %s from %s", cfg.DefaultFolder, cfg.SettingsFile)

			var announcer dispatcher.Announcer
			if cfg.Notify {
				announcer = notifier.New(cfg.NotifyMethod)
			}

			d := dispatcher.New(dispatcher.Options{
				Config: cfg,
				Store:  store,
				OpenPlayer: func() (dispatcher.Player, error) {
					return openPlayer(cfg.AudioDevice)
				},
				Announcer: announcer,
				Out:       out,
			})
			return d.Run(req)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.ChosenSound, "sound", "", "Name of a specific sound file to play, instead of a random one")
	flags.StringVar(&req.SoundFolder, "folder", "", "Folder to search for this run only, instead of the stored default")
	flags.StringVar(&req.SetDefaultFolder, "set-default-sound-folder", "", "Store a folder as the new default (relative or absolute)")
	flags.BoolVar(&req.GetDefaultFolder, "get-default-sound-folder", false, "Print the stored default sound folder and exit")

	flags.String("device", "", "Audio output device name (empty = system default, see list-devices)")
	flags.Bool("notify", false, "Show a desktop notification with the sound being played")
	flags.String("notify-method", "auto", "Notification method: auto, beeep, osc9")
	flags.String("settings-file", settings.FileName, "File holding the default sound folder")
	flags.String("log-file", "", "Append JSON logs to this file")
	flags.Bool("debug", false, "Write debug logs to stderr")

	for _, name := range []string{"device", "notify", "notify-method", "settings-file", "log-file", "debug"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	cmd.SetOut(out)
	return cmd
}
