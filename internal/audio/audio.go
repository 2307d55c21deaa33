// ABOUTME: Plays a sound file on an output device and blocks until it finishes.
// ABOUTME: Uses malgo (miniaudio bindings) for output and beep/go-audio for decoding.

package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/codequiver/jukebox/internal/logging"
)

var (
	// ErrSoundNotFound is returned when the file to play does not exist
	ErrSoundNotFound = errors.New("sound file not found")
	// ErrUnsupportedFormat is returned for extensions no decoder handles
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// PlaybackError wraps any failure to play a particular file
type PlaybackError struct {
	Path string
	Err  error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("cannot play %s: %v", e.Path, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// DeviceInfo represents an audio output device
type DeviceInfo struct {
	Name      string
	IsDefault bool
}

// Player plays audio on a specific device
type Player struct {
	ctx        *malgo.AllocatedContext
	deviceID   unsafe.Pointer
	deviceName string
	mu         sync.Mutex
}

// ListDevices returns all available audio output devices
func ListDevices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	devices, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	result := make([]DeviceInfo, 0, len(devices))
	for _, dev := range devices {
		result = append(result, DeviceInfo{
			Name:      dev.Name(),
			IsDefault: dev.IsDefault != 0,
		})
	}

	return result, nil
}

// NewPlayer creates a player for the named device.
// If deviceName is empty, the system default device is used.
func NewPlayer(deviceName string) (*Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}

	player := &Player{
		ctx:        ctx,
		deviceName: deviceName,
	}

	if deviceName == "" {
		return player, nil
	}

	devices, err := ctx.Devices(malgo.Playback)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	for _, dev := range devices {
		if dev.Name() == deviceName {
			player.deviceID = dev.ID.Pointer()
			logging.Debug("Audio device found: %s", deviceName)
			return player, nil
		}
	}

	_ = ctx.Uninit()
	ctx.Free()
	return nil, fmt.Errorf("audio device not found: %s", deviceName)
}

// Play decodes soundPath and blocks until the device has played all of it
func (p *Player) Play(soundPath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := os.Stat(soundPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &PlaybackError{Path: soundPath, Err: ErrSoundNotFound}
		}
		return &PlaybackError{Path: soundPath, Err: err}
	}

	samples, sampleRate, channels, err := decodeFile(soundPath)
	if err != nil {
		return &PlaybackError{Path: soundPath, Err: err}
	}
	if channels < 1 {
		return &PlaybackError{Path: soundPath, Err: fmt.Errorf("invalid channel count: %d", channels)}
	}

	audioData := samplesToBytes(samples)

	// Larger buffer to prevent crackling
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = sampleRate
	deviceConfig.PeriodSizeInFrames = 4096
	deviceConfig.Periods = 4
	deviceConfig.Alsa.NoMMap = 1

	if p.deviceID != nil {
		deviceConfig.Playback.DeviceID = p.deviceID
	}

	feed := newFeeder(audioData, channels)

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: feed.fill,
	})
	if err != nil {
		return &PlaybackError{Path: soundPath, Err: fmt.Errorf("failed to init audio device: %w", err)}
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return &PlaybackError{Path: soundPath, Err: fmt.Errorf("failed to start audio device: %w", err)}
	}

	<-feed.done
	// Let the device buffer drain before stopping
	time.Sleep(200 * time.Millisecond)
	logging.Debug("Audio playback completed: %s", soundPath)

	_ = device.Stop()
	return nil
}

// Close releases resources
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx != nil {
		_ = p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
	return nil
}

// feeder copies PCM bytes into the device buffer and closes done at the end
type feeder struct {
	data     []byte
	pos      int
	frameLen int
	done     chan struct{}
	doneOnce sync.Once
}

func newFeeder(data []byte, channels int) *feeder {
	return &feeder{
		data:     data,
		frameLen: channels * 2, // 16-bit samples
		done:     make(chan struct{}),
	}
}

func (f *feeder) fill(output, _ []byte, frameCount uint32) {
	n := int(frameCount) * f.frameLen
	if f.pos+n > len(f.data) {
		n = len(f.data) - f.pos
	}

	if n > 0 {
		copy(output, f.data[f.pos:f.pos+n])
		f.pos += n
	}

	// Silence for the rest of the period
	for i := n; i < len(output); i++ {
		output[i] = 0
	}

	if f.pos >= len(f.data) {
		f.doneOnce.Do(func() {
			close(f.done)
		})
	}
}

// decodeFile returns interleaved samples, sample rate and channel count
func decodeFile(soundPath string) ([]int16, uint32, int, error) {
	f, err := os.Open(soundPath)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(soundPath))

	switch ext {
	case ".mp3":
		return decodeStream(mp3.Decode(f))
	case ".wav":
		return decodeStream(wav.Decode(f))
	case ".flac":
		return decodeStream(flac.Decode(f))
	case ".ogg":
		return decodeStream(vorbis.Decode(f))
	case ".aiff", ".aif":
		return decodeAIFF(f)
	default:
		return nil, 0, 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func decodeStream(streamer beep.StreamSeekCloser, format beep.Format, err error) ([]int16, uint32, int, error) {
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode audio: %w", err)
	}
	defer streamer.Close()

	samples := streamToSamples(streamer, format.NumChannels)
	return samples, uint32(format.SampleRate), format.NumChannels, nil
}

func decodeAIFF(f *os.File) ([]int16, uint32, int, error) {
	decoder := aiff.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("invalid AIFF file")
	}

	decoder.ReadInfo()

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read AIFF data: %w", err)
	}

	samples := intBufferToSamples(buf, int(decoder.BitDepth))
	return samples, uint32(decoder.SampleRate), int(decoder.NumChans), nil
}

// streamToSamples drains a beep streamer into interleaved int16 samples
func streamToSamples(streamer beep.Streamer, numChannels int) []int16 {
	var allSamples []int16
	buffer := make([][2]float64, 512)

	for {
		n, ok := streamer.Stream(buffer)
		if n == 0 {
			break
		}

		for i := 0; i < n; i++ {
			allSamples = append(allSamples, floatToInt16(buffer[i][0]))
			if numChannels >= 2 {
				allSamples = append(allSamples, floatToInt16(buffer[i][1]))
			}
		}

		if !ok {
			break
		}
	}

	return allSamples
}

func floatToInt16(v float64) int16 {
	switch {
	case v > 1:
		v = 1
	case v < -1:
		v = -1
	}
	return int16(v * 32767)
}

// intBufferToSamples scales go-audio samples of the given bit depth to 16 bits
func intBufferToSamples(buf *audio.IntBuffer, bitDepth int) []int16 {
	samples := make([]int16, len(buf.Data))

	var convert func(int) int16
	switch bitDepth {
	case 8:
		convert = func(v int) int16 { return int16(v << 8) }
	case 24:
		convert = func(v int) int16 { return int16(v >> 8) }
	case 32:
		convert = func(v int) int16 { return int16(v >> 16) }
	default:
		// 16-bit, and the fallback for anything unexpected
		convert = func(v int) int16 { return int16(v) }
	}

	for i, v := range buf.Data {
		samples[i] = convert(v)
	}
	return samples
}

// samplesToBytes converts int16 samples to little-endian bytes
func samplesToBytes(samples []int16) []byte {
	bytes := make([]byte, len(samples)*2)
	for i, s := range samples {
		bytes[i*2] = byte(s)
		bytes[i*2+1] = byte(s >> 8)
	}
	return bytes
}
