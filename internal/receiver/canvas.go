package receiver

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"github.com/framecast-dev/framecast/internal/codec"
	"github.com/framecast-dev/framecast/internal/encoder"
	"github.com/framecast-dev/framecast/internal/protocol"
)

// ErrPayloadGeometry indicates a decompressed payload whose dimensions do not
// match what the frame's mode requires for this canvas.
var ErrPayloadGeometry = errors.New("payload geometry mismatch")

// Canvas is the receiver-side reconstruction of the remote display. Frames
// are applied in arrival order; checker frames fill in only their half of the
// pixels, so the canvas converges over the CHECKER/CHECKER_COMPL pair.
//
// Canvas is safe for concurrent use: the stream loop applies frames while
// viewer connections take snapshots.
type Canvas struct {
	geo encoder.Geometry
	cdc codec.Codec

	mu      sync.RWMutex
	pix     []byte
	version uint64
}

// NewCanvas creates a black canvas of the given geometry that decodes
// payloads with cdc.
func NewCanvas(geo encoder.Geometry, cdc codec.Codec) (*Canvas, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	if cdc == nil {
		cdc = codec.NewJPEG(0)
	}
	return &Canvas{
		geo: geo,
		cdc: cdc,
		pix: make([]byte, geo.FrameBytes()),
	}, nil
}

// Geometry returns the canvas geometry.
func (c *Canvas) Geometry() encoder.Geometry {
	return c.geo
}

// Snapshot returns a copy of the current canvas pixels.
func (c *Canvas) Snapshot() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]byte, len(c.pix))
	copy(out, c.pix)
	return out
}

// Version returns a counter that increments every time a frame changes the
// canvas. NONE frames do not advance it.
func (c *Canvas) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Apply updates the canvas with one received frame. A failed apply leaves the
// canvas untouched.
func (c *Canvas) Apply(f *protocol.Frame) error {
	if f.Mode == protocol.ModeNone {
		return nil
	}

	pix, width, height, err := c.cdc.Decompress(f.Payload)
	if err != nil {
		return fmt.Errorf("decompress %s payload: %w", f.Mode, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch f.Mode {
	case protocol.ModeFull:
		if width != c.geo.Width || height != c.geo.Height {
			return fmt.Errorf("%w: full frame %dx%d, canvas %s",
				ErrPayloadGeometry, width, height, c.geo)
		}
		copy(c.pix, pix)

	case protocol.ModeDiff:
		changed := setBits(f.Bitmap)
		if width != encoder.BlockSize || height != encoder.BlockSize*changed {
			return fmt.Errorf("%w: diff strip %dx%d, want %dx%d for %d blocks",
				ErrPayloadGeometry, width, height,
				encoder.BlockSize, encoder.BlockSize*changed, changed)
		}
		c.scatterBlocks(f.Bitmap, pix)

	case protocol.ModeChecker, protocol.ModeCheckerCompl:
		if width != c.geo.Width/2 || height != c.geo.Height {
			return fmt.Errorf("%w: checker sample %dx%d, canvas %s",
				ErrPayloadGeometry, width, height, c.geo)
		}
		c.scatterChecker(pix, f.Mode.CheckerPhase())

	default:
		return fmt.Errorf("%w: %d", protocol.ErrUnknownMode, uint16(f.Mode))
	}

	c.version++
	return nil
}

// scatterBlocks copies the packed diff strip back to the block positions the
// bitmap marks, in the same LSB-first order the sender packed them.
func (c *Canvas) scatterBlocks(bitmap, strip []byte) {
	const blockBytes = encoder.BlockSize * encoder.BytesPerPixel
	stride := c.geo.Stride()
	cols := c.geo.BlockCols()

	next := 0
	for idx := 0; idx < c.geo.Blocks(); idx++ {
		if bitmap[idx/8]&(1<<(idx%8)) == 0 {
			continue
		}
		dst := (idx/cols)*encoder.BlockSize*stride + (idx%cols)*blockBytes
		src := next * encoder.BlockSize * blockBytes
		for row := 0; row < encoder.BlockSize; row++ {
			copy(c.pix[dst+row*stride:dst+row*stride+blockBytes],
				strip[src+row*blockBytes:src+(row+1)*blockBytes])
		}
		next++
	}
}

// scatterChecker writes the half-density sample back to its checkerboard
// positions, walking the same skip toggle the sender used.
func (c *Canvas) scatterChecker(half []byte, phase int) {
	skip := phase != 0
	out := 0
	in := 0
	for y := 0; y < c.geo.Height; y++ {
		for x := 0; x < c.geo.Width; x++ {
			if !skip {
				c.pix[out] = half[in]
				c.pix[out+1] = half[in+1]
				c.pix[out+2] = half[in+2]
				in += encoder.BytesPerPixel
			}
			out += encoder.BytesPerPixel
			skip = !skip
		}
		skip = !skip
	}
}

func setBits(bitmap []byte) int {
	n := 0
	for _, b := range bitmap {
		n += bits.OnesCount8(b)
	}
	return n
}
