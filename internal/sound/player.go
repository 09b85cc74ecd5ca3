package sound

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog/log"
)

// SampleRate is the speaker output rate; samples are resampled to it.
const SampleRate = beep.SampleRate(44100)

// resampleQuality trades CPU for quality when converting sample rates.
const resampleQuality = 3

// Player plays WAV and MP3 files through the system speaker using beep.
// Decoded samples are cached per path. Overlapping plays are mixed by the
// speaker, so a key pressed again before its sample ends simply sounds twice.
type Player struct {
	mu     sync.Mutex
	cache  map[string]*beep.Buffer
	volume float64

	initOnce sync.Once
	initErr  error
	started  bool

	// hooks, replaced in tests
	initSpeaker  func(beep.SampleRate, int) error
	playStream   func(...beep.Streamer)
	clearSpeaker func()

	onError func(ref string, err error)
	wg      sync.WaitGroup
}

// NewPlayer creates a Player. The speaker is opened on the first play.
func NewPlayer(volume float64) *Player {
	return &Player{
		cache:        make(map[string]*beep.Buffer),
		volume:       clampVolume(volume),
		initSpeaker:  speaker.Init,
		playStream:   speaker.Play,
		clearSpeaker: speaker.Clear,
	}
}

// OnError registers a callback invoked for each failed play.
func (p *Player) OnError(fn func(ref string, err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

// Play decodes (or reuses) the sample and starts it on a goroutine.
func (p *Player) Play(ref string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.play(ref); err != nil {
			log.Warn().Err(err).Str("sound", ref).Msg("Failed to play sound")

			p.mu.Lock()
			fn := p.onError
			p.mu.Unlock()
			if fn != nil {
				fn(ref, err)
			}
		}
	}()
}

// Wait blocks until every pending Play has handed its sample to the speaker.
func (p *Player) Wait() {
	p.wg.Wait()
}

// Preload decodes the given refs into the cache. Failures are logged and
// skipped so a missing sample does not prevent startup.
func (p *Player) Preload(refs []string) {
	for _, ref := range refs {
		if _, err := p.buffer(ref); err != nil {
			log.Warn().Err(err).Str("sound", ref).Msg("Failed to preload sound")
		}
	}
}

// SetVolume sets playback volume (0.0 to 1.0) for subsequent plays.
func (p *Player) SetVolume(vol float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = clampVolume(vol)
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Close waits for pending plays and stops the speaker output.
func (p *Player) Close() {
	p.Wait()
	if p.started {
		p.clearSpeaker()
	}
}

func (p *Player) play(ref string) error {
	p.initOnce.Do(func() {
		p.initErr = p.initSpeaker(SampleRate, SampleRate.N(time.Second/20))
		if p.initErr != nil {
			log.Error().Err(p.initErr).Msg("Failed to initialize speaker")
			return
		}
		p.started = true
	})
	if p.initErr != nil {
		return fmt.Errorf("speaker unavailable: %w", p.initErr)
	}

	buf, err := p.buffer(ref)
	if err != nil {
		return err
	}

	vol := p.Volume()
	p.playStream(&effects.Volume{
		Streamer: buf.Streamer(0, buf.Len()),
		Base:     2,
		Volume:   volumeToPower(vol),
		Silent:   vol <= 0.01,
	})
	return nil
}

func (p *Player) buffer(ref string) (*beep.Buffer, error) {
	p.mu.Lock()
	buf, ok := p.cache[ref]
	p.mu.Unlock()
	if ok {
		return buf, nil
	}

	buf, err := decodeFile(ref)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[ref] = buf
	p.mu.Unlock()

	log.Debug().Str("sound", ref).Int("samples", buf.Len()).Msg("Sound decoded")
	return buf, nil
}

// decodeFile reads a whole WAV or MP3 file into a buffer at SampleRate.
func decodeFile(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sound: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode sound %s: %w", path, err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(beep.Format{SampleRate: SampleRate, NumChannels: 2, Precision: 2})
	if format.SampleRate == SampleRate {
		buf.Append(streamer)
	} else {
		buf.Append(beep.Resample(resampleQuality, format.SampleRate, SampleRate, streamer))
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("read sound %s: %w", path, err)
	}

	return buf, nil
}

// volumeToPower maps linear 0..1 volume to beep's base-2 exponent.
func volumeToPower(vol float64) float64 {
	if vol <= 0.01 {
		return -10
	}
	return math.Log2(vol)
}

func clampVolume(vol float64) float64 {
	if vol < 0 {
		return 0
	}
	if vol > 1 {
		return 1
	}
	return vol
}
