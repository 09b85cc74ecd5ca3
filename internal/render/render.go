// Package render draws the piano keys and detected hands onto frames.
package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/tecla/internal/config"
	"github.com/ayusman/tecla/internal/hand"
	"github.com/ayusman/tecla/internal/keyzone"
)

// Drawing parameters for keys and labels.
const (
	KeyThickness   = 2
	LabelOffsetX   = 30
	LabelOffsetY   = 40
	LabelScale     = 1.0
	LabelThickness = 2

	jointRadius   = 4
	boneThickness = 2
)

// Skeleton colors for hand landmarks.
var (
	boneColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	jointColor = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

// RGBA converts a [B,G,R] color to color.RGBA.
func RGBA(c config.Color) color.RGBA {
	return color.RGBA{R: uint8(c[2]), G: uint8(c[1]), B: uint8(c[0]), A: 255}
}

// LabelOrigin is where a key's id is drawn: below the zone, slightly indented.
func LabelOrigin(z keyzone.Zone) image.Point {
	return image.Pt(z.X1+LabelOffsetX, z.Y2+LabelOffsetY)
}

// Keys draws each zone outline and its label. Engaged keys use the engaged
// color.
func Keys(frame *gocv.Mat, keys []keyzone.Key, engaged func(id string) bool, colors config.Colors) {
	normal := RGBA(colors.Normal)
	active := RGBA(colors.Engaged)
	text := RGBA(colors.Text)

	for _, k := range keys {
		c := normal
		if engaged != nil && engaged(k.ID) {
			c = active
		}
		gocv.Rectangle(frame, k.Zone.Rect(), c, KeyThickness)
		gocv.PutText(frame, k.ID, LabelOrigin(k.Zone), gocv.FontHersheySimplex, LabelScale, text, LabelThickness)
	}
}

// Hands draws the landmark skeleton of each hand.
func Hands(frame *gocv.Mat, hands []hand.Landmarks) {
	w, h := frame.Cols(), frame.Rows()
	for i := range hands {
		pts := hands[i].Points
		for _, conn := range hand.Connections {
			gocv.Line(frame, pts[conn[0]].Pixel(w, h), pts[conn[1]].Pixel(w, h), boneColor, boneThickness)
		}
		for _, p := range pts {
			gocv.Circle(frame, p.Pixel(w, h), jointRadius, jointColor, -1)
		}
	}
}

// Frame draws hands first and keys on top, so key outlines stay visible.
func Frame(frame *gocv.Mat, keys []keyzone.Key, engaged func(id string) bool, colors config.Colors, hands []hand.Landmarks) {
	Hands(frame, hands)
	Keys(frame, keys, engaged, colors)
}
