package sound

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSilence writes a short silent WAV file at the given rate.
func writeSilence(t *testing.T, dir, name string, rate beep.SampleRate, samples int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(samples), format))
	return path
}

type fakeSpeaker struct {
	mu      sync.Mutex
	inits   int
	plays   int
	initErr error
}

func (s *fakeSpeaker) init(beep.SampleRate, int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inits++
	return s.initErr
}

func (s *fakeSpeaker) play(...beep.Streamer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays++
}

func newTestPlayer(s *fakeSpeaker) *Player {
	p := NewPlayer(1.0)
	p.initSpeaker = s.init
	p.playStream = s.play
	p.clearSpeaker = func() {}
	return p
}

func TestPlayer_PlaysAndCaches(t *testing.T) {
	dir := t.TempDir()
	path := writeSilence(t, dir, "C.wav", SampleRate, 4410)

	spk := &fakeSpeaker{}
	p := newTestPlayer(spk)

	p.Play(path)
	p.Wait()

	// Cached: removing the file does not break the next play.
	require.NoError(t, os.Remove(path))
	p.Play(path)
	p.Wait()

	assert.Equal(t, 1, spk.inits)
	assert.Equal(t, 2, spk.plays)
}

func TestPlayer_ResamplesToOutputRate(t *testing.T) {
	path := writeSilence(t, t.TempDir(), "low.wav", 22050, 2205)

	buf, err := decodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, SampleRate, buf.Format().SampleRate)
	assert.InDelta(t, 4410, buf.Len(), 10)
}

func TestPlayer_MissingFileReportsError(t *testing.T) {
	spk := &fakeSpeaker{}
	p := newTestPlayer(spk)

	var (
		mu     sync.Mutex
		failed []string
	)
	p.OnError(func(ref string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, ref)
	})

	p.Play("/does/not/exist.wav")
	p.Wait()

	assert.Equal(t, []string{"/does/not/exist.wav"}, failed)
	assert.Equal(t, 0, spk.plays)
}

func TestPlayer_SpeakerInitFailure(t *testing.T) {
	path := writeSilence(t, t.TempDir(), "C.wav", SampleRate, 100)
	spk := &fakeSpeaker{initErr: errors.New("no audio device")}
	p := newTestPlayer(spk)

	var count int
	var mu sync.Mutex
	p.OnError(func(string, error) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	p.Play(path)
	p.Play(path)
	p.Wait()
	p.Close()

	assert.Equal(t, 1, spk.inits)
	assert.Equal(t, 2, count)
	assert.Equal(t, 0, spk.plays)
}

func TestPlayer_Volume(t *testing.T) {
	p := NewPlayer(2)
	assert.Equal(t, 1.0, p.Volume())

	p.SetVolume(-1)
	assert.Equal(t, 0.0, p.Volume())

	p.SetVolume(0.5)
	assert.Equal(t, 0.5, p.Volume())

	assert.Equal(t, 0.0, volumeToPower(1))
	assert.Equal(t, -1.0, volumeToPower(0.5))
	assert.Equal(t, -10.0, volumeToPower(0))
}

func TestRecorder(t *testing.T) {
	var r Recorder
	var e Emitter = &r

	e.Play("a.wav")
	e.Play("b.wav")
	assert.Equal(t, []string{"a.wav", "b.wav"}, r.Played())

	r.Reset()
	assert.Empty(t, r.Played())

	Nop{}.Play("ignored")
}
