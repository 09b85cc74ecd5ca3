// Package hand describes a detected hand: its handedness and its 21
// normalized landmarks.
package hand

import (
	"image"
	"strings"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Connections lists the landmark pairs joined when drawing a hand skeleton.
var Connections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// Side is the handedness of a detected hand.
type Side int

const (
	Unknown Side = iota - 1
	Left
	Right
)

// NumSides is the number of trackable hand sides.
const NumSides = 2

// ParseSide maps a MediaPipe handedness label to a Side.
func ParseSide(label string) Side {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "left":
		return Left
	case "right":
		return Right
	default:
		return Unknown
	}
}

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pixel scales a normalized point to frame pixels, truncating toward zero.
func (p Point3D) Pixel(width, height int) image.Point {
	return image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
}

// Landmarks is one detected hand: its handedness paired with its 21
// normalized landmarks.
type Landmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Side returns the parsed handedness.
func (h *Landmarks) Side() Side {
	return ParseSide(h.Handedness)
}

// Fingertip returns the index fingertip in pixel coordinates of a
// width x height frame.
func (h *Landmarks) Fingertip(width, height int) image.Point {
	return h.Points[IndexTip].Pixel(width, height)
}

// Pointing returns an extended index finger whose tip sits at the
// normalized position (x, y). handedness is "Left" or "Right".
func Pointing(handedness string, x, y float64) Landmarks {
	landmarks := Landmarks{
		Handedness: handedness,
		Score:      0.95,
	}

	// Wrist below the tip, fingers spread upward from it.
	wrist := Point3D{X: x, Y: y + 0.30, Z: 0.0}
	landmarks.Points[Wrist] = wrist

	landmarks.Points[ThumbCMC] = Point3D{X: x + 0.04, Y: y + 0.26, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: x + 0.07, Y: y + 0.22, Z: 0.0}
	landmarks.Points[ThumbIP] = Point3D{X: x + 0.06, Y: y + 0.18, Z: 0.0}
	landmarks.Points[ThumbTip] = Point3D{X: x + 0.03, Y: y + 0.16, Z: 0.0}

	landmarks.Points[IndexMCP] = Point3D{X: x, Y: y + 0.18, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: x, Y: y + 0.11, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: x, Y: y + 0.05, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: x, Y: y, Z: 0.0}

	// Remaining fingers curled toward the palm.
	for i, base := range []int{MiddleMCP, RingMCP, PinkyMCP} {
		dx := -0.03 * float64(i+1)
		landmarks.Points[base] = Point3D{X: x + dx, Y: y + 0.19, Z: -0.02}
		landmarks.Points[base+1] = Point3D{X: x + dx, Y: y + 0.17, Z: -0.05}
		landmarks.Points[base+2] = Point3D{X: x + dx, Y: y + 0.19, Z: -0.04}
		landmarks.Points[base+3] = Point3D{X: x + dx, Y: y + 0.21, Z: -0.02}
	}

	return landmarks
}
