// Package keyzone holds the piano keys: rectangular screen zones bound to a sound.
package keyzone

import (
	"fmt"
	"image"
)

// Zone is a rectangular key area in frame-pixel coordinates.
// A valid zone has X1 < X2 and Y1 < Y2.
type Zone struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// NewZone builds a zone from its corners.
func NewZone(x1, y1, x2, y2 int) Zone {
	return Zone{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Valid reports whether the zone has positive width and height.
func (z Zone) Valid() bool {
	return z.X1 < z.X2 && z.Y1 < z.Y2
}

// Contains reports whether p lies strictly inside the zone.
// Points on the border are outside.
func (z Zone) Contains(p image.Point) bool {
	return z.X1 < p.X && p.X < z.X2 && z.Y1 < p.Y && p.Y < z.Y2
}

// Rect returns the zone as an image.Rectangle for drawing.
func (z Zone) Rect() image.Rectangle {
	return image.Rect(z.X1, z.Y1, z.X2, z.Y2)
}

// Array returns the zone as [x1, y1, x2, y2].
func (z Zone) Array() [4]int {
	return [4]int{z.X1, z.Y1, z.X2, z.Y2}
}

func (z Zone) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", z.X1, z.Y1, z.X2, z.Y2)
}

// Key binds an identifier to a sound resource and a zone.
type Key struct {
	ID    string
	Sound string
	Zone  Zone
}
