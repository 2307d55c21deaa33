// ABOUTME: CLI tool to list available audio output devices.
// ABOUTME: Used to find names for jukebox --device / JUKEBOX_DEVICE.

package main

import (
	"fmt"
	"os"

	"github.com/codequiver/jukebox/internal/audio"
)

func main() {
	devices, err := audio.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing audio devices: %v\n", err)
		os.Exit(1)
	}

	if len(devices) == 0 {
		fmt.Println("No audio output devices found.")
		return
	}

	fmt.Println("Available audio output devices:")
	fmt.Println()

	for i, dev := range devices {
		defaultMarker := ""
		if dev.IsDefault {
			defaultMarker = " (default)"
		}
		fmt.Printf("  %d: %s%s\n", i, dev.Name, defaultMarker)
	}

	fmt.Println()
	fmt.Println("To play on a specific device:")
	fmt.Println(`  jukebox --device "DEVICE_NAME"`)
	fmt.Println(`  JUKEBOX_DEVICE="DEVICE_NAME" jukebox`)
}
