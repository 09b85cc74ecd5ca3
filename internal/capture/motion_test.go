package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
	}{
		{name: "default threshold", threshold: 1.0},
		{name: "high threshold", threshold: 5.0},
		{name: "low threshold", threshold: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.threshold)
			if md == nil {
				t.Fatal("NewMotionDetector returned nil")
			}
			defer md.Close()

			if md.threshold != tt.threshold {
				t.Errorf("threshold = %f, want %f", md.threshold, tt.threshold)
			}
			if md.hasPrev {
				t.Error("motion detector should not have a baseline initially")
			}
		})
	}
}

func TestMotionDetector_NoMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	detected, changePercent := md.Detect(&frame1)
	if detected || changePercent != 0 {
		t.Errorf("first frame = (%v, %f), want (false, 0)", detected, changePercent)
	}

	detected, changePercent = md.Detect(&frame2)
	if detected {
		t.Errorf("identical frames should not detect motion, changePercent = %f", changePercent)
	}
}

func TestMotionDetector_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	blackFrame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer blackFrame.Close()
	whiteFrame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer whiteFrame.Close()
	whiteFrame.SetTo(gocv.NewScalar(255, 255, 255, 0))

	if detected, _ := md.Detect(&blackFrame); detected {
		t.Error("first frame should not detect motion")
	}

	detected, changePercent := md.Detect(&whiteFrame)
	if !detected {
		t.Errorf("black to white should detect motion, changePercent = %f", changePercent)
	}
	if changePercent < 50.0 {
		t.Errorf("changePercent = %f, expected > 50%% for black to white transition", changePercent)
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	md.Detect(&frame)
	if !md.hasPrev {
		t.Error("detector should have a baseline after first Detect")
	}

	md.Reset()
	if md.hasPrev {
		t.Error("detector should drop the baseline after Reset")
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.threshold != 5.0 {
		t.Errorf("threshold = %f, want 5.0", md.threshold)
	}

	md.SetThreshold(-1.0)
	if md.threshold != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.threshold)
	}
}

func TestMotionDetector_EmptyFrame(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	if detected, pct := md.Detect(nil); detected || pct != 0 {
		t.Errorf("Detect(nil) = (%v, %f), want (false, 0)", detected, pct)
	}
}

func TestMotionDetector_Close_Multiple(t *testing.T) {
	md := NewMotionDetector(1.0)
	md.Close()
	md.Close()
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGate(timeout time.Duration) (*IdleGate, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	g := NewIdleGate(1.0, timeout)
	g.now = clock.now
	g.lastMotion = clock.t
	return g, clock
}

func TestIdleGate_StartsOpen(t *testing.T) {
	g, _ := newTestGate(time.Second)
	defer g.Close()

	if !g.Open() {
		t.Error("gate should start open")
	}
	if !g.observe(false) {
		t.Error("still frame within the timeout should be admitted")
	}
}

func TestIdleGate_ClosesAfterTimeout(t *testing.T) {
	g, clock := newTestGate(time.Second)
	defer g.Close()

	clock.advance(500 * time.Millisecond)
	if !g.observe(false) {
		t.Error("gate closed before timeout")
	}

	clock.advance(600 * time.Millisecond)
	if g.observe(false) {
		t.Error("gate should close after timeout without motion")
	}
	if g.Open() {
		t.Error("Open() should report closed")
	}
}

func TestIdleGate_ReopensOnMotion(t *testing.T) {
	g, clock := newTestGate(time.Second)
	defer g.Close()

	clock.advance(2 * time.Second)
	g.observe(false)
	if g.Open() {
		t.Fatal("gate should be closed")
	}

	if !g.observe(true) {
		t.Error("motion should reopen the gate")
	}

	clock.advance(900 * time.Millisecond)
	if !g.observe(false) {
		t.Error("timeout should restart from the last motion")
	}
}

func TestNewIdleGate_Defaults(t *testing.T) {
	g := NewIdleGate(0, 0)
	defer g.Close()

	if g.timeout != DefaultIdleTimeout {
		t.Errorf("timeout = %v, want %v", g.timeout, DefaultIdleTimeout)
	}
	if g.motion.threshold != 1.0 {
		t.Errorf("threshold = %f, want 1.0", g.motion.threshold)
	}
}
