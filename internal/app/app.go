// Package app runs the invisible piano: capture, detect, trigger, render, display.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/tecla/internal/capture"
	"github.com/ayusman/tecla/internal/config"
	"github.com/ayusman/tecla/internal/detector"
	"github.com/ayusman/tecla/internal/display"
	"github.com/ayusman/tecla/internal/editor"
	"github.com/ayusman/tecla/internal/metrics"
	"github.com/ayusman/tecla/internal/piano"
	"github.com/ayusman/tecla/internal/server"
	"github.com/ayusman/tecla/internal/sound"
	"github.com/ayusman/tecla/internal/store"
	"github.com/ayusman/tecla/internal/trigger"
)

// editorPoll is how often the paused loop checks for commands while the
// editor is open.
const editorPoll = 30 * time.Millisecond

// ErrNoCamera is returned by Run when the camera cannot be opened.
var ErrNoCamera = errors.New("camera unavailable")

// NoteRecorder stores played notes. Record must not block.
type NoteRecorder interface {
	Record(n store.NoteEvent)
}

// Config holds the collaborators of the main loop. Board, Camera,
// Detector, Emitter and Surface are required; the rest are optional.
type Config struct {
	Board    *piano.Board
	Camera   capture.Camera
	Detector detector.Detector
	Emitter  sound.Emitter
	Surface  display.Surface
	Editor   *editor.Session

	Recorder NoteRecorder
	Frames   *server.FrameBuffer
	Hub      *server.Hub
	Metrics  *metrics.Metrics

	Policy          trigger.Policy
	IdleGate        bool
	MotionThreshold float64

	// LayoutPath is where the board is written on exit when SaveOnExit is set.
	LayoutPath string
	SaveOnExit bool
}

// App is the main loop and the state it owns.
type App struct {
	config  Config
	machine *trigger.Machine
	gate    *capture.IdleGate
	metrics *metrics.Metrics
	frame   gocv.Mat
	hasShow bool
	enabled atomic.Bool

	mu     sync.RWMutex
	onNote []func(trigger.Event)
}

// New creates an App. Missing optional collaborators get no-op defaults.
func New(cfg Config) *App {
	if cfg.Editor == nil {
		cfg.Editor = editor.NewSession()
	}
	if cfg.Emitter == nil {
		cfg.Emitter = sound.Nop{}
	}
	if cfg.Surface == nil {
		cfg.Surface = display.NewHeadless()
	}

	a := &App{
		config:  cfg,
		machine: trigger.New(cfg.Policy),
		metrics: cfg.Metrics,
	}
	if a.metrics == nil {
		a.metrics = metrics.New()
	}
	if cfg.IdleGate {
		a.gate = capture.NewIdleGate(cfg.MotionThreshold, capture.DefaultIdleTimeout)
	}
	a.enabled.Store(true)
	return a
}

// SetEnabled mutes or unmutes the notes. Presses are still tracked and
// recorded while muted.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
	log.Info().Bool("enabled", enabled).Msg("Sound toggled")
}

// IsEnabled reports whether notes are played.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// OnNote registers a callback for every key press. Callbacks run on the
// loop goroutine and must return quickly.
func (a *App) OnNote(fn func(trigger.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onNote = append(a.onNote, fn)
}

// Editor returns the editor session.
func (a *App) Editor() *editor.Session {
	return a.config.Editor
}

// Run opens the camera and runs the loop until the user quits, the camera
// stream ends or ctx is cancelled. Only a camera that cannot be opened is
// reported as an error.
func (a *App) Run(ctx context.Context) error {
	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrNoCamera, err)
	}
	a.frame = gocv.NewMat()
	defer a.shutdown()

	log.Info().
		Int("keys", a.config.Board.Keys().Len()).
		Str("policy", a.config.Policy.String()).
		Bool("idle_gate", a.gate != nil).
		Msg("Piano started")

	return a.runPipeline(ctx)
}

// shutdown releases the camera, detector and frame, and saves the layout
// when configured.
func (a *App) shutdown() {
	if err := a.config.Camera.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing camera")
	}
	if a.config.Detector != nil {
		if err := a.config.Detector.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing detector")
		}
	}
	if a.gate != nil {
		a.gate.Close()
	}
	a.frame.Close()

	if a.config.SaveOnExit && a.config.LayoutPath != "" {
		if err := config.Save(a.config.LayoutPath, a.config.Board.Snapshot()); err != nil {
			log.Error().Err(err).Str("path", a.config.LayoutPath).Msg("Failed to save layout on exit")
		} else {
			log.Info().Str("path", a.config.LayoutPath).Msg("Saved layout on exit")
		}
	}

	log.Info().Msg("Piano stopped")
}
