package notifier

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/gen2brain/beeep"

	"github.com/codequiver/jukebox/internal/logging"
)

const appName = "jukebox"

// Notifier announces the sound being played
type Notifier struct {
	method string
	// openTTY returns the terminal to write OSC 9 sequences to
	openTTY func() (io.WriteCloser, error)
	// notify sends a desktop notification
	notify func(title, message string) error
}

// New creates a notifier for the given method: "auto", "beeep" or "osc9"
func New(method string) *Notifier {
	return &Notifier{
		method: method,
		openTTY: func() (io.WriteCloser, error) {
			return os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		},
		notify: sendWithBeeep,
	}
}

// Announce shows "now playing" for soundPath using the configured method
func (n *Notifier) Announce(soundPath string) error {
	title := "🎵 Now playing"
	message := filepath.Base(soundPath)

	switch n.method {
	case "osc9":
		return n.sendWithOSC9(title, message)
	case "beeep", "auto", "":
		if err := n.notify(title, message); err != nil {
			logging.Error("Failed to send desktop notification: %v", err)
			return err
		}
		logging.Debug("Desktop notification sent via beeep: %s", message)
		return nil
	default:
		return fmt.Errorf("unknown notification method: %s", n.method)
	}
}

func sendWithBeeep(title, message string) error {
	originalAppName := beeep.AppName
	beeep.AppName = appName
	defer func() {
		beeep.AppName = originalAppName
	}()

	return beeep.Notify(title, message, "")
}

// sendWithOSC9 writes ESC ] 9 ; text ESC \ to the terminal.
// Supported by iTerm2, kitty, WezTerm and others.
func (n *Notifier) sendWithOSC9(title, message string) error {
	if runtime.GOOS == "windows" {
		return fmt.Errorf("osc9 notifications need a unix terminal")
	}

	tty, err := n.openTTY()
	if err != nil {
		logging.Error("Failed to open /dev/tty for OSC9: %v", err)
		return fmt.Errorf("failed to open /dev/tty: %w", err)
	}
	defer tty.Close()

	if _, err := io.WriteString(tty, osc9Sequence(title, message)); err != nil {
		return fmt.Errorf("failed to write OSC9: %w", err)
	}

	logging.Debug("Desktop notification sent via OSC9: %s", message)
	return nil
}

// osc9Sequence builds the escape sequence, truncating long text
func osc9Sequence(title, message string) string {
	text := title
	if message != "" {
		text = fmt.Sprintf("%s: %s", title, message)
	}

	if r := []rune(text); len(r) > 200 {
		text = string(r[:197]) + "..."
	}

	return fmt.Sprintf("\033]9;%s\033\\", text)
}
