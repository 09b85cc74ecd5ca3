package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/tecla/internal/capture"
	"github.com/ayusman/tecla/internal/display"
	"github.com/ayusman/tecla/internal/editor"
	"github.com/ayusman/tecla/internal/hand"
	"github.com/ayusman/tecla/internal/render"
	"github.com/ayusman/tecla/internal/server"
	"github.com/ayusman/tecla/internal/store"
	"github.com/ayusman/tecla/internal/trigger"
)

// runPipeline is the main loop. Each iteration:
//  1. While the editor is open, keep showing the last frame and only poll
//     for commands
//  2. Read a frame; a read failure ends the loop
//  3. Mirror and resize it to the board size
//  4. Skip detection when the idle gate sees no motion
//  5. Detect hands, turn them into touches and update the trigger machine
//  6. Play, record and broadcast every press
//  7. Draw keys and hands, publish and show the frame
//  8. Poll for q (quit) and c (open the editor)
func (a *App) runPipeline(ctx context.Context) error {
	editing := false

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if a.config.Editor.IsOpen() {
			if !editing {
				editing = true
				a.editorChanged(true)
			}
			if a.hasShow {
				a.config.Surface.Show(&a.frame)
			}
			if quit := a.handleCommand(a.config.Surface.PollKey()); quit {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case <-a.config.Editor.Done():
			case <-time.After(editorPoll):
			}
			continue
		}
		if editing {
			editing = false
			a.editorChanged(false)
		}

		src, err := a.config.Camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				log.Info().Msg("Camera stream ended")
			} else {
				log.Warn().Err(err).Msg("Error reading frame")
			}
			return nil
		}

		a.processFrame(src)

		if quit := a.handleCommand(a.config.Surface.PollKey()); quit {
			return nil
		}
	}
}

// processFrame runs one frame through detection, triggering and rendering.
// It closes src.
func (a *App) processFrame(src *gocv.Mat) {
	start := time.Now()
	board := a.config.Board
	width, height := board.Size()

	capture.Prepare(*src, &a.frame, width, height)
	src.Close()

	keys := board.Keys().List()

	var hands []hand.Landmarks
	if a.gate == nil || a.gate.Admit(&a.frame) {
		hands = a.detect()
		touches := trigger.TouchesFromHands(hands, width, height)
		a.dispatch(a.machine.Process(touches, keys))
	} else {
		a.metrics.FramesIdle.Inc()
	}

	render.Frame(&a.frame, keys, a.machine.Engaged, board.Colors(), hands)

	if a.config.Frames != nil {
		if err := a.config.Frames.Publish(&a.frame); err != nil {
			log.Debug().Err(err).Msg("Failed to publish frame")
		}
	}
	a.config.Surface.Show(&a.frame)
	a.hasShow = true

	a.metrics.Frames.Inc()
	a.metrics.HandsVisible.Set(float64(len(hands)))
	a.metrics.FrameDuration.Observe(time.Since(start).Seconds())
}

// detect returns the hands in the current frame. Errors count as no hands.
func (a *App) detect() []hand.Landmarks {
	if a.config.Detector == nil {
		return nil
	}
	hands, err := a.config.Detector.Detect(&a.frame)
	if err != nil {
		a.metrics.DetectErrors.Inc()
		log.Debug().Err(err).Msg("Hand detection failed")
		return nil
	}
	return hands
}

// dispatch hands each press to the emitter and the optional observers.
func (a *App) dispatch(events []trigger.Event) {
	if len(events) == 0 {
		return
	}

	a.mu.RLock()
	listeners := a.onNote
	a.mu.RUnlock()

	enabled := a.IsEnabled()
	for _, ev := range events {
		side := ev.Side.String()
		log.Debug().Str("key", ev.Key).Str("side", side).Str("sound", ev.Sound).Msg("Key pressed")

		if enabled {
			a.config.Emitter.Play(ev.Sound)
		}
		a.metrics.RecordNote(ev.Key, side)

		if a.config.Recorder != nil {
			a.config.Recorder.Record(store.NoteEvent{
				KeyID: ev.Key,
				Side:  side,
				Sound: ev.Sound,
				X:     ev.Point.X,
				Y:     ev.Point.Y,
			})
		}
		if a.config.Hub != nil {
			a.config.Hub.Broadcast(server.LiveMessage{
				Type:  "note",
				Key:   ev.Key,
				Side:  side,
				Sound: ev.Sound,
				X:     ev.Point.X,
				Y:     ev.Point.Y,
			})
		}
		for _, fn := range listeners {
			fn(ev)
		}
	}
}

// handleCommand applies a user command and reports whether to quit.
func (a *App) handleCommand(cmd display.Command) bool {
	switch cmd {
	case display.CommandQuit:
		log.Info().Msg("Quit requested")
		return true
	case display.CommandEditor:
		if err := a.config.Editor.Open(); err != nil && !errors.Is(err, editor.ErrAlreadyOpen) {
			log.Warn().Err(err).Msg("Failed to open editor")
		}
	}
	return false
}

// editorChanged pauses or resumes triggering around an editor session.
// Engaged keys are released so a stale press does not survive an edit.
func (a *App) editorChanged(open bool) {
	a.machine.Reset()
	a.metrics.SetEditorOpen(open)
	if a.config.Hub != nil {
		a.config.Hub.Broadcast(server.LiveMessage{Type: "editor", Open: &open})
	}
	if open {
		log.Info().Msg("Editor opened, triggering paused")
	} else {
		log.Info().Int("keys", a.config.Board.Keys().Len()).Msg("Editor closed, triggering resumed")
	}
}
