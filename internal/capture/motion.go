package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
	// DefaultIdleTimeout is how long without motion before the gate closes.
	DefaultIdleTimeout = 2 * time.Second
)

// MotionDetector detects motion between consecutive frames using frame
// differencing on blurred grayscale images.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prevGray  gocv.Mat
	hasPrev   bool
}

// NewMotionDetector creates a detector that reports motion when more than
// threshold percent of the pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame with the previous one and returns whether motion
// was seen and the percentage of changed pixels. The first frame only
// establishes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(GaussianBlurSize, GaussianBlurSize), 0, 0, gocv.BorderDefault)

	if !m.hasPrev || blurred.Rows() != m.prevGray.Rows() || blurred.Cols() != m.prevGray.Cols() {
		blurred.CopyTo(&m.prevGray)
		m.hasPrev = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0
	blurred.CopyTo(&m.prevGray)

	return changed > m.threshold, changed
}

// SetThreshold changes the motion threshold. Negative values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold < 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasPrev = false
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prevGray.Close()
	m.prevGray = gocv.NewMat()
	m.hasPrev = false
}

// IdleGate skips pose detection while the scene is still. It opens on
// motion and closes after timeout without motion. It starts open.
type IdleGate struct {
	motion     *MotionDetector
	timeout    time.Duration
	lastMotion time.Time
	open       bool
	now        func() time.Time
}

// NewIdleGate creates a gate around a motion detector with the given
// threshold (percent of changed pixels).
func NewIdleGate(threshold float64, timeout time.Duration) *IdleGate {
	if threshold <= 0 {
		threshold = 1.0
	}
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &IdleGate{
		motion:     NewMotionDetector(threshold),
		timeout:    timeout,
		lastMotion: time.Now(),
		open:       true,
		now:        time.Now,
	}
}

// Admit reports whether the frame should go through pose detection.
func (g *IdleGate) Admit(frame *gocv.Mat) bool {
	moving, _ := g.motion.Detect(frame)
	return g.observe(moving)
}

func (g *IdleGate) observe(moving bool) bool {
	now := g.now()
	if moving {
		g.lastMotion = now
		g.open = true
		return true
	}
	if g.open && now.Sub(g.lastMotion) > g.timeout {
		g.open = false
	}
	return g.open
}

// Open reports whether the gate currently admits frames.
func (g *IdleGate) Open() bool {
	return g.open
}

// Close releases the motion detector.
func (g *IdleGate) Close() {
	g.motion.Close()
}
