package main

import (
	"github.com/framecast-dev/framecast/internal/encoder"
)

// testPattern renders one frame of the built-in animation: a diagonal color
// gradient with a bright square bouncing across it. The gradient exercises
// the checkerboard path on the first frame, the moving square exercises the
// block-delta path, and pauses between movements produce skip frames.
func testPattern(geo encoder.Geometry, tick int) []byte {
	frame := make([]byte, geo.FrameBytes())

	// Background gradient, shifted slowly so the whole scene eventually
	// changes and forces periodic resyncs.
	shift := tick / 8
	i := 0
	for y := 0; y < geo.Height; y++ {
		for x := 0; x < geo.Width; x++ {
			frame[i] = byte(x + shift)
			frame[i+1] = byte(y)
			frame[i+2] = byte((x + y) / 2)
			i += encoder.BytesPerPixel
		}
	}

	// Bouncing square, one block wide, moving a block at a time.
	const size = encoder.BlockSize
	cols := geo.BlockCols()
	rows := geo.BlockRows()
	bx := bounce(tick, cols) * size
	by := bounce(tick/2, rows) * size

	stride := geo.Stride()
	for y := by; y < by+size; y++ {
		row := y*stride + bx*encoder.BytesPerPixel
		for x := 0; x < size; x++ {
			frame[row] = 0xFF
			frame[row+1] = 0xFF
			frame[row+2] = 0xFF
			row += encoder.BytesPerPixel
		}
	}

	return frame
}

// bounce maps an increasing tick onto a 0..limit-1 ping-pong position.
func bounce(tick, limit int) int {
	if limit <= 1 {
		return 0
	}
	period := 2 * (limit - 1)
	pos := tick % period
	if pos >= limit {
		pos = period - pos
	}
	return pos
}
