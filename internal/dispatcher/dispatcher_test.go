package dispatcher

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequiver/jukebox/internal/audio"
	"github.com/codequiver/jukebox/internal/config"
	"github.com/codequiver/jukebox/internal/selector"
	"github.com/codequiver/jukebox/internal/settings"
)

// fakePlayer records played paths and fails like the real player on missing files
type fakePlayer struct {
	played []string
	closed int
	err    error
}

func (p *fakePlayer) Play(path string) error {
	if p.err != nil {
		return p.err
	}
	if _, err := os.Stat(path); err != nil {
		return &audio.PlaybackError{Path: path, Err: audio.ErrSoundNotFound}
	}
	p.played = append(p.played, path)
	return nil
}

func (p *fakePlayer) Close() error {
	p.closed++
	return nil
}

type fakeAnnouncer struct {
	paths []string
	err   error
}

func (a *fakeAnnouncer) Announce(path string) error {
	a.paths = append(a.paths, path)
	return a.err
}

type failingStore struct{}

func (failingStore) SaveDefault(folder string) error {
	return &settings.WriteError{Path: "default_sound_folder.config", Folder: folder, Err: os.ErrPermission}
}

type harness struct {
	dir      string
	store    *settings.Store
	player   *fakePlayer
	opened   int
	out      bytes.Buffer
	announce *fakeAnnouncer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{
		dir:      dir,
		store:    settings.NewStore(filepath.Join(dir, settings.FileName)),
		player:   &fakePlayer{},
		announce: &fakeAnnouncer{},
	}
}

// dispatcher loads config from the store, as the CLI does at startup
func (h *harness) dispatcher() *Dispatcher {
	return New(Options{
		Config: config.Load(h.store, config.Options{}),
		Store:  h.store,
		OpenPlayer: func() (Player, error) {
			h.opened++
			return h.player, nil
		},
		Announcer: h.announce,
		Out:       &h.out,
	})
}

func (h *harness) folder(t *testing.T, name string, files ...string) string {
	t.Helper()
	folder := filepath.Join(h.dir, name)
	require.NoError(t, os.MkdirAll(folder, 0755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(folder, f), []byte{}, 0644))
	}
	return folder
}

func TestRequestIsEmpty(t *testing.T) {
	assert.True(t, Request{}.IsEmpty())
	assert.False(t, Request{GetDefaultFolder: true}.IsEmpty())
	assert.False(t, Request{SoundFolder: "x"}.IsEmpty())
}

func TestRequestWantsPlayback(t *testing.T) {
	assert.False(t, Request{SetDefaultFolder: "/tmp/sounds"}.WantsPlayback())
	assert.True(t, Request{SetDefaultFolder: "/tmp/sounds", ChosenSound: "x.mp3"}.WantsPlayback())
	assert.True(t, Request{SetDefaultFolder: "/tmp/sounds", SoundFolder: "./bard_songs"}.WantsPlayback())
}

func TestRunNoArgsPlaysFromPersistedDefault(t *testing.T) {
	h := newHarness(t)
	folder := h.folder(t, "sounds", "a.mp3", "notes.txt")
	require.NoError(t, h.store.SaveDefault(folder))

	require.NoError(t, h.dispatcher().Run(Request{}))

	assert.Equal(t, []string{filepath.Join(folder, "a.mp3")}, h.player.played)
	assert.Equal(t, 1, h.player.closed)
	assert.Equal(t, h.player.played, h.announce.paths)
}

func TestRunNoArgsWithoutSettingsUsesBuiltInFolder(t *testing.T) {
	h := newHarness(t)
	t.Chdir(h.dir)
	h.folder(t, "jukebox_sound", "only.wav")

	require.NoError(t, h.dispatcher().Run(Request{}))

	assert.Equal(t, []string{filepath.Join("jukebox_sound", "only.wav")}, h.player.played)
}

func TestRunGetDefaultFolder(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.SaveDefault("/tmp/sounds"))

	err := h.dispatcher().Run(Request{
		GetDefaultFolder: true,
		SetDefaultFolder: "/somewhere/else",
		ChosenSound:      "x.mp3",
	})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/sounds\n", h.out.String())
	assert.Zero(t, h.opened, "no playback expected")
	assert.Equal(t, "/tmp/sounds", h.store.LoadDefault(), "set must not run after get")
}

func TestRunGetDefaultFolderBuiltIn(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.dispatcher().Run(Request{GetDefaultFolder: true}))
	assert.Equal(t, settings.DefaultSoundFolder+"\n", h.out.String())
}

func TestRunSetDefaultFolderOnly(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.dispatcher().Run(Request{SetDefaultFolder: "/tmp/sounds"}))

	data, err := os.ReadFile(h.store.Path())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/sounds", string(data))
	assert.Contains(t, h.out.String(), "Successfully updated default sound folder to '/tmp/sounds'")
	assert.Zero(t, h.opened)

	// Next invocation resolves to the new default
	h.out.Reset()
	require.NoError(t, h.dispatcher().Run(Request{GetDefaultFolder: true}))
	assert.Equal(t, "/tmp/sounds\n", h.out.String())
}

func TestRunSetDefaultThenPlayUsesNewDefault(t *testing.T) {
	h := newHarness(t)
	oldFolder := h.folder(t, "old", "old.mp3")
	newFolder := h.folder(t, "new", "new.mp3")
	require.NoError(t, h.store.SaveDefault(oldFolder))

	err := h.dispatcher().Run(Request{SetDefaultFolder: newFolder, ChosenSound: "new.mp3"})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(newFolder, "new.mp3")}, h.player.played)
	assert.Equal(t, newFolder, h.store.LoadDefault())
}

func TestRunSetDefaultWithFolderOverride(t *testing.T) {
	h := newHarness(t)
	override := h.folder(t, "bard_songs", "lute.wav")

	err := h.dispatcher().Run(Request{SetDefaultFolder: "/tmp/sounds", SoundFolder: override})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(override, "lute.wav")}, h.player.played)
	assert.Equal(t, "/tmp/sounds", h.store.LoadDefault(), "override is never persisted")
}

func TestRunSetDefaultFailureIsFatal(t *testing.T) {
	var out bytes.Buffer
	opened := 0
	d := New(Options{
		Config: config.DefaultConfig(),
		Store:  failingStore{},
		OpenPlayer: func() (Player, error) {
			opened++
			return &fakePlayer{}, nil
		},
		Out: &out,
	})

	err := d.Run(Request{SetDefaultFolder: "/root/forbidden", ChosenSound: "x.mp3"})
	require.Error(t, err)

	var writeErr *settings.WriteError
	assert.True(t, errors.As(err, &writeErr))
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Contains(t, out.String(), "Failed to update default sound folder to '/root/forbidden'")
	assert.Zero(t, opened, "nothing plays after a failed update")
}

func TestRunChosenSoundWithFolder(t *testing.T) {
	h := newHarness(t)
	folder := h.folder(t, "bard_songs", "metal_dragon_battle.mp3", "other.mp3")

	err := h.dispatcher().Run(Request{ChosenSound: "metal_dragon_battle.mp3", SoundFolder: folder})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(folder, "metal_dragon_battle.mp3")}, h.player.played)
	assert.Contains(t, h.out.String(), "playing sound "+filepath.Join(folder, "metal_dragon_battle.mp3"))
}

func TestRunChosenSoundFromDefault(t *testing.T) {
	h := newHarness(t)
	folder := h.folder(t, "sounds", "x.mp3")
	require.NoError(t, h.store.SaveDefault(folder))

	require.NoError(t, h.dispatcher().Run(Request{ChosenSound: "x.mp3"}))
	assert.Equal(t, []string{filepath.Join(folder, "x.mp3")}, h.player.played)
}

func TestRunChosenSoundMissingDoesNotFallBack(t *testing.T) {
	h := newHarness(t)
	folder := h.folder(t, "sounds", "other.mp3")

	err := h.dispatcher().Run(Request{ChosenSound: "x.mp3", SoundFolder: folder})
	require.Error(t, err)

	assert.ErrorIs(t, err, audio.ErrSoundNotFound)
	assert.Empty(t, h.player.played, "no fallback to a random sound")
}

func TestRunChosenSoundNameIsNotFiltered(t *testing.T) {
	// Named sounds skip the eligibility check; the player decides
	h := newHarness(t)
	folder := h.folder(t, "sounds", "chime.flac")

	require.NoError(t, h.dispatcher().Run(Request{ChosenSound: "chime.flac", SoundFolder: folder}))
	assert.Equal(t, []string{filepath.Join(folder, "chime.flac")}, h.player.played)
}

func TestRunFolderOverrideRandom(t *testing.T) {
	h := newHarness(t)
	folder := h.folder(t, "bard_songs", "a.wav", "b.mp3")

	require.NoError(t, h.dispatcher().Run(Request{SoundFolder: folder}))

	require.Len(t, h.player.played, 1)
	assert.Contains(t, []string{
		filepath.Join(folder, "a.wav"),
		filepath.Join(folder, "b.mp3"),
	}, h.player.played[0])
}

func TestRunOnlyTextFilesFailsWithEmptySet(t *testing.T) {
	h := newHarness(t)
	folder := h.folder(t, "texts", "a.txt", "b.txt")

	err := h.dispatcher().Run(Request{SoundFolder: folder})
	assert.ErrorIs(t, err, selector.ErrEmptySet)
	assert.Zero(t, h.opened)
}

func TestRunMissingFolderFails(t *testing.T) {
	h := newHarness(t)
	folder := filepath.Join(h.dir, "nope")

	err := h.dispatcher().Run(Request{SoundFolder: folder})

	var listErr *selector.ListError
	require.True(t, errors.As(err, &listErr))
	assert.Equal(t, folder, listErr.Folder)
	assert.Zero(t, h.opened)
}

func TestRunPlayerOpenFailure(t *testing.T) {
	h := newHarness(t)
	folder := h.folder(t, "sounds", "a.mp3")

	d := New(Options{
		Config:     config.DefaultConfig(),
		Store:      h.store,
		OpenPlayer: func() (Player, error) { return nil, errors.New("no audio backend") },
	})

	err := d.Run(Request{SoundFolder: folder})
	assert.ErrorContains(t, err, "no audio backend")
}

func TestRunPlaybackErrorSurfaces(t *testing.T) {
	h := newHarness(t)
	folder := h.folder(t, "sounds", "a.mp3")
	h.player.err = &audio.PlaybackError{Path: "a.mp3", Err: audio.ErrUnsupportedFormat}

	err := h.dispatcher().Run(Request{SoundFolder: folder})
	assert.ErrorIs(t, err, audio.ErrUnsupportedFormat)
	assert.Equal(t, 1, h.player.closed)
}

func TestRunAnnouncerFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	folder := h.folder(t, "sounds", "a.mp3")
	h.announce.err = errors.New("no notification daemon")

	require.NoError(t, h.dispatcher().Run(Request{SoundFolder: folder}))
	assert.Len(t, h.player.played, 1)
}
