package capture

import (
	"image"

	"gocv.io/x/gocv"
)

// flipHorizontal is the OpenCV flip code for mirroring around the y axis.
const flipHorizontal = 1

// Prepare mirrors src horizontally and resizes it to width x height into dst,
// so the display behaves like a mirror and key zones map to fixed pixels.
func Prepare(src gocv.Mat, dst *gocv.Mat, width, height int) {
	mirrored := gocv.NewMat()
	defer mirrored.Close()

	gocv.Flip(src, &mirrored, flipHorizontal)

	if mirrored.Cols() == width && mirrored.Rows() == height {
		mirrored.CopyTo(dst)
		return
	}
	gocv.Resize(mirrored, dst, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
}
