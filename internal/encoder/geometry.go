package encoder

import (
	"errors"
	"fmt"
)

const (
	// BlockSize is the edge length in pixels of the change-detection tile.
	BlockSize = 8
	// BytesPerPixel is the packed RGB888 pixel size.
	BytesPerPixel = 3
)

// ErrInvalidGeometry indicates dimensions the block grid cannot cover.
var ErrInvalidGeometry = errors.New("invalid frame geometry")

// Geometry describes the fixed frame dimensions of a streaming session.
type Geometry struct {
	Width  int
	Height int
}

// Validate checks that both dimensions are positive multiples of the block size.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, g.Width, g.Height)
	}
	if g.Width%BlockSize != 0 || g.Height%BlockSize != 0 {
		return fmt.Errorf("%w: %dx%d not a multiple of block size %d",
			ErrInvalidGeometry, g.Width, g.Height, BlockSize)
	}
	return nil
}

// FrameBytes returns the byte size of one full frame.
func (g Geometry) FrameBytes() int {
	return g.Width * g.Height * BytesPerPixel
}

// Stride returns the byte length of one pixel row.
func (g Geometry) Stride() int {
	return g.Width * BytesPerPixel
}

// BlockCols returns the number of block columns.
func (g Geometry) BlockCols() int {
	return g.Width / BlockSize
}

// BlockRows returns the number of block rows.
func (g Geometry) BlockRows() int {
	return g.Height / BlockSize
}

// Blocks returns the total block count of the grid.
func (g Geometry) Blocks() int {
	return g.BlockCols() * g.BlockRows()
}

// BitmapBytes returns the change-bitmap size: one bit per block, rounded up.
func (g Geometry) BitmapBytes() int {
	return (g.Blocks() + 7) / 8
}

// CheckerBytes returns the byte size of one checkerboard half-sample.
func (g Geometry) CheckerBytes() int {
	return g.FrameBytes() / 2
}

// String returns the geometry as "WxH"
func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}
