package app

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/tecla/internal/capture"
	"github.com/ayusman/tecla/internal/config"
	"github.com/ayusman/tecla/internal/detector"
	"github.com/ayusman/tecla/internal/display"
	"github.com/ayusman/tecla/internal/editor"
	"github.com/ayusman/tecla/internal/hand"
	"github.com/ayusman/tecla/internal/metrics"
	"github.com/ayusman/tecla/internal/piano"
	"github.com/ayusman/tecla/internal/server"
	"github.com/ayusman/tecla/internal/sound"
	"github.com/ayusman/tecla/internal/store"
	"github.com/ayusman/tecla/internal/trigger"
)

// Default key C spans x 50..150, y 50..250 on the 1280x720 board.
var (
	insideC  = image.Pt(100, 150)
	outsideC = image.Pt(600, 600)
)

// pointAt places the fingertip of a hand of the given side on pixel p.
func pointAt(side string, p image.Point) []hand.Landmarks {
	return []hand.Landmarks{
		hand.Pointing(side, (float64(p.X)+0.5)/1280, (float64(p.Y)+0.5)/720),
	}
}

type fakeRecorder struct {
	mu    sync.Mutex
	notes []store.NoteEvent
}

func (r *fakeRecorder) Record(n store.NoteEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *fakeRecorder) Notes() []store.NoteEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]store.NoteEvent(nil), r.notes...)
}

type harness struct {
	camera   *capture.MockCamera
	detector *detector.MockDetector
	emitter  *sound.Recorder
	surface  *display.Headless
	metrics  *metrics.Metrics
	cfg      Config
}

// newHarness builds an App config around n blank 640x480 camera frames.
func newHarness(t *testing.T, n int, loop bool) *harness {
	t.Helper()

	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	t.Cleanup(func() {
		for _, m := range frames {
			m.Close()
		}
	})

	h := &harness{
		camera:   capture.NewMockCamera(frames, loop),
		detector: detector.NewMockDetector(),
		emitter:  &sound.Recorder{},
		surface:  display.NewHeadless(),
		metrics:  metrics.New(),
	}
	h.cfg = Config{
		Board:    piano.NewBoard(config.Default()),
		Camera:   h.camera,
		Detector: h.detector,
		Emitter:  h.emitter,
		Surface:  h.surface,
		Editor:   editor.NewSession(),
		Metrics:  h.metrics,
	}
	return h
}

func TestRun_EnterLeaveReenter(t *testing.T) {
	h := newHarness(t, 5, false)
	h.detector.SetSequence([][]hand.Landmarks{
		pointAt("Right", insideC),
		pointAt("Right", insideC),
		pointAt("Right", outsideC),
		pointAt("Right", insideC),
		pointAt("Right", insideC),
	})

	require.NoError(t, New(h.cfg).Run(context.Background()))

	assert.Equal(t, []string{"C.wav", "C.wav"}, h.emitter.Played())
	assert.Equal(t, 5, h.surface.Shown())
	assert.False(t, h.camera.IsOpen(), "camera released on exit")
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.NotesPlayed.WithLabelValues("C", "right")))
	assert.Equal(t, 5.0, testutil.ToFloat64(h.metrics.Frames))
}

func TestRun_BothSidesTriggerIndependently(t *testing.T) {
	h := newHarness(t, 2, false)
	both := append(pointAt("Left", insideC), pointAt("Right", insideC)...)
	h.detector.SetSequence([][]hand.Landmarks{both, both})

	require.NoError(t, New(h.cfg).Run(context.Background()))

	assert.Equal(t, []string{"C.wav", "C.wav"}, h.emitter.Played())
}

func TestRun_UnknownHandednessIgnored(t *testing.T) {
	h := newHarness(t, 2, false)
	h.detector.SetHands(pointAt("", insideC))

	require.NoError(t, New(h.cfg).Run(context.Background()))

	assert.Empty(t, h.emitter.Played())
}

func TestRun_HandLossPolicy(t *testing.T) {
	seq := [][]hand.Landmarks{
		pointAt("Left", insideC),
		nil,
		pointAt("Left", insideC),
	}

	tests := []struct {
		name   string
		policy trigger.Policy
		want   []string
	}{
		{"retain keeps the key engaged", trigger.RetainOnLoss, []string{"C.wav"}},
		{"release re-arms the key", trigger.ReleaseOnLoss, []string{"C.wav", "C.wav"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, len(seq), false)
			h.detector.SetSequence(seq)
			h.cfg.Policy = tt.policy

			require.NoError(t, New(h.cfg).Run(context.Background()))
			assert.Equal(t, tt.want, h.emitter.Played())
		})
	}
}

func TestRun_CameraOpenFails(t *testing.T) {
	h := newHarness(t, 0, false)
	h.camera.SetOpenError(errors.New("no device"))

	err := New(h.cfg).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoCamera)
	assert.Zero(t, h.camera.Reads())
}

func TestRun_QuitCommand(t *testing.T) {
	h := newHarness(t, 1, true)
	h.surface.Push(display.CommandQuit)

	require.NoError(t, New(h.cfg).Run(context.Background()))

	assert.Equal(t, 1, h.camera.Reads())
}

func TestRun_ContextCancel(t *testing.T) {
	h := newHarness(t, 1, true)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- New(h.cfg).Run(ctx) }()

	require.Eventually(t, func() bool { return h.camera.Reads() > 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_EditorPausesTriggering(t *testing.T) {
	h := newHarness(t, 1, true)
	h.detector.SetHands(pointAt("Right", insideC))
	require.NoError(t, h.cfg.Editor.Open())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- New(h.cfg).Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, h.detector.Calls(), "no detection while editing")
	assert.Empty(t, h.emitter.Played())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.EditorOpen))

	h.cfg.Editor.Close()
	require.Eventually(t, func() bool { return len(h.emitter.Played()) == 1 }, 2*time.Second, 5*time.Millisecond)

	// A resting fingertip does not repeat the note.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"C.wav"}, h.emitter.Played())
	assert.Zero(t, testutil.ToFloat64(h.metrics.EditorOpen))

	cancel()
	require.NoError(t, <-done)
}

func TestRun_MutedStillRecords(t *testing.T) {
	h := newHarness(t, 1, false)
	h.detector.SetHands(pointAt("Right", insideC))
	rec := &fakeRecorder{}
	h.cfg.Recorder = rec

	a := New(h.cfg)
	a.SetEnabled(false)
	require.NoError(t, a.Run(context.Background()))

	assert.Empty(t, h.emitter.Played())
	notes := rec.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, store.NoteEvent{KeyID: "C", Side: "right", Sound: "C.wav", X: 100, Y: 150}, notes[0])
}

func TestRun_OnNote(t *testing.T) {
	h := newHarness(t, 1, false)
	h.detector.SetHands(pointAt("Left", insideC))

	a := New(h.cfg)
	var got []trigger.Event
	a.OnNote(func(ev trigger.Event) { got = append(got, ev) })
	require.NoError(t, a.Run(context.Background()))

	require.Len(t, got, 1)
	assert.Equal(t, "C", got[0].Key)
	assert.Equal(t, hand.Left, got[0].Side)
	assert.Equal(t, insideC, got[0].Point)
}

func TestRun_DetectErrorIsNoHands(t *testing.T) {
	h := newHarness(t, 3, false)
	h.detector.SetError(errors.New("service crashed"))

	require.NoError(t, New(h.cfg).Run(context.Background()))

	assert.Empty(t, h.emitter.Played())
	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.DetectErrors))
}

func TestRun_PublishesFrames(t *testing.T) {
	h := newHarness(t, 3, false)
	h.cfg.Frames = server.NewFrameBuffer()

	require.NoError(t, New(h.cfg).Run(context.Background()))

	img, seq := h.cfg.Frames.Latest()
	assert.Equal(t, uint64(3), seq)
	assert.NotEmpty(t, img)
}

func TestRun_SaveOnExit(t *testing.T) {
	h := newHarness(t, 1, false)
	h.cfg.LayoutPath = filepath.Join(t.TempDir(), "piano_config.json")
	h.cfg.SaveOnExit = true
	require.NoError(t, h.cfg.Board.Keys().UpdateSound("E", "E-soft.wav"))

	require.NoError(t, New(h.cfg).Run(context.Background()))

	saved, err := config.LoadFile(h.cfg.LayoutPath)
	require.NoError(t, err)
	assert.Equal(t, h.cfg.Board.Snapshot(), saved)
}

func TestRun_RemovedKeyIsForgotten(t *testing.T) {
	h := newHarness(t, 1, false)
	h.detector.SetHands(pointAt("Right", insideC))
	require.NoError(t, h.cfg.Board.Keys().Remove("C"))

	require.NoError(t, New(h.cfg).Run(context.Background()))

	assert.Empty(t, h.emitter.Played())
}

func TestHandleCommand(t *testing.T) {
	a := New(Config{Board: piano.NewBoard(config.Default())})

	assert.False(t, a.handleCommand(display.CommandNone))

	assert.False(t, a.handleCommand(display.CommandEditor))
	assert.True(t, a.Editor().IsOpen())

	// A second c while editing leaves the session open.
	assert.False(t, a.handleCommand(display.CommandEditor))
	assert.True(t, a.Editor().IsOpen())

	assert.True(t, a.handleCommand(display.CommandQuit))
}

func TestNew_Defaults(t *testing.T) {
	a := New(Config{Board: piano.NewBoard(config.Default())})

	assert.NotNil(t, a.Editor())
	assert.True(t, a.IsEnabled())
	assert.Nil(t, a.gate)

	gated := New(Config{Board: piano.NewBoard(config.Default()), IdleGate: true})
	defer gated.gate.Close()
	assert.NotNil(t, gated.gate)
}
