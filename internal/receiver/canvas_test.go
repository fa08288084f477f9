package receiver

import (
	"bytes"
	"errors"
	"testing"

	"github.com/framecast-dev/framecast/internal/codec"
	"github.com/framecast-dev/framecast/internal/encoder"
	"github.com/framecast-dev/framecast/internal/protocol"
)

func rawCanvas(t *testing.T, width, height int) *Canvas {
	t.Helper()
	c, err := NewCanvas(encoder.Geometry{Width: width, Height: height}, codec.Raw{})
	if err != nil {
		t.Fatalf("NewCanvas() error = %v", err)
	}
	return c
}

func compress(t *testing.T, pix []byte, width, height int) []byte {
	t.Helper()
	data, err := codec.Raw{}.Compress(pix, width, height)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	return data
}

// patternFrame fills a frame with a position-dependent byte pattern so every
// pixel is distinguishable.
func patternFrame(geo encoder.Geometry) []byte {
	frame := make([]byte, geo.FrameBytes())
	for i := range frame {
		frame[i] = byte(i*7 + i/251)
	}
	return frame
}

func TestApplyFull(t *testing.T) {
	geo := encoder.Geometry{Width: 16, Height: 16}
	c := rawCanvas(t, geo.Width, geo.Height)
	src := patternFrame(geo)

	err := c.Apply(&protocol.Frame{
		Mode:    protocol.ModeFull,
		Payload: compress(t, src, geo.Width, geo.Height),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !bytes.Equal(c.Snapshot(), src) {
		t.Error("canvas should equal the full frame")
	}
	if c.Version() != 1 {
		t.Errorf("version = %d, want 1", c.Version())
	}
}

func TestApplyNoneIsNoop(t *testing.T) {
	c := rawCanvas(t, 16, 16)
	before := c.Snapshot()

	if err := c.Apply(&protocol.Frame{Mode: protocol.ModeNone}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !bytes.Equal(c.Snapshot(), before) {
		t.Error("NONE frame must not change the canvas")
	}
	if c.Version() != 0 {
		t.Errorf("version = %d, want 0", c.Version())
	}
}

func TestApplyDiffScattersBlocks(t *testing.T) {
	geo := encoder.Geometry{Width: 32, Height: 24}
	c := rawCanvas(t, geo.Width, geo.Height)

	// Sender side: a base frame and a variant differing in a few blocks.
	base := make([]byte, geo.FrameBytes())
	next := patternFrame(geo)

	ref := encoder.NewReference(geo, base)
	diff := encoder.Diff(next, ref)
	if diff.Changed == 0 {
		t.Fatal("test frames must differ")
	}

	// FULL of the base, then the DIFF on top.
	if err := c.Apply(&protocol.Frame{
		Mode:    protocol.ModeFull,
		Payload: compress(t, base, geo.Width, geo.Height),
	}); err != nil {
		t.Fatalf("Apply(full) error = %v", err)
	}
	err := c.Apply(&protocol.Frame{
		Mode:    protocol.ModeDiff,
		Bitmap:  diff.Bitmap,
		Payload: compress(t, diff.Payload, encoder.BlockSize, encoder.BlockSize*diff.Changed),
	})
	if err != nil {
		t.Fatalf("Apply(diff) error = %v", err)
	}

	if !bytes.Equal(c.Snapshot(), next) {
		t.Error("canvas after base + diff should equal the changed frame")
	}
}

func TestApplyCheckerPairRebuildsFrame(t *testing.T) {
	geo := encoder.Geometry{Width: 16, Height: 16}
	c := rawCanvas(t, geo.Width, geo.Height)
	src := patternFrame(geo)

	for _, mode := range []protocol.Mode{protocol.ModeChecker, protocol.ModeCheckerCompl} {
		half := encoder.Sample(src, geo, mode.CheckerPhase())
		err := c.Apply(&protocol.Frame{
			Mode:    mode,
			Payload: compress(t, half, geo.Width/2, geo.Height),
		})
		if err != nil {
			t.Fatalf("Apply(%v) error = %v", mode, err)
		}
	}

	if !bytes.Equal(c.Snapshot(), src) {
		t.Error("the two complementary halves should rebuild the source frame")
	}
	if c.Version() != 2 {
		t.Errorf("version = %d, want 2", c.Version())
	}
}

func TestApplySingleCheckerTouchesOnlyItsPhase(t *testing.T) {
	geo := encoder.Geometry{Width: 8, Height: 8}
	c := rawCanvas(t, geo.Width, geo.Height)
	src := patternFrame(geo)

	half := encoder.Sample(src, geo, 0)
	err := c.Apply(&protocol.Frame{
		Mode:    protocol.ModeChecker,
		Payload: compress(t, half, geo.Width/2, geo.Height),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	got := c.Snapshot()
	skip := false
	i := 0
	for y := 0; y < geo.Height; y++ {
		for x := 0; x < geo.Width; x++ {
			for b := 0; b < encoder.BytesPerPixel; b++ {
				want := byte(0)
				if !skip {
					want = src[i+b]
				}
				if got[i+b] != want {
					t.Fatalf("pixel (%d,%d) byte %d = 0x%02x, want 0x%02x", x, y, b, got[i+b], want)
				}
			}
			i += encoder.BytesPerPixel
			skip = !skip
		}
		skip = !skip
	}
}

func TestApplyRejectsGeometryMismatch(t *testing.T) {
	geo := encoder.Geometry{Width: 16, Height: 16}
	c := rawCanvas(t, geo.Width, geo.Height)

	tests := []struct {
		name  string
		frame *protocol.Frame
	}{
		{
			"full frame wrong size",
			&protocol.Frame{
				Mode:    protocol.ModeFull,
				Payload: compress(t, make([]byte, 8*8*3), 8, 8),
			},
		},
		{
			"checker sample wrong width",
			&protocol.Frame{
				Mode:    protocol.ModeChecker,
				Payload: compress(t, make([]byte, 16*16*3), 16, 16),
			},
		},
		{
			"diff strip disagrees with bitmap",
			&protocol.Frame{
				Mode:    protocol.ModeDiff,
				Bitmap:  make([]byte, geo.BitmapBytes()), // no bits set
				Payload: compress(t, make([]byte, 8*8*3), 8, 8),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Apply(tt.frame); !errors.Is(err, ErrPayloadGeometry) {
				t.Errorf("Apply() error = %v, want ErrPayloadGeometry", err)
			}
			if c.Version() != 0 {
				t.Errorf("rejected frame must not advance version, got %d", c.Version())
			}
		})
	}
}

func TestApplyUnknownMode(t *testing.T) {
	c := rawCanvas(t, 16, 16)
	err := c.Apply(&protocol.Frame{
		Mode:    protocol.Mode(9),
		Payload: compress(t, make([]byte, 16*16*3), 16, 16),
	})
	if !errors.Is(err, protocol.ErrUnknownMode) {
		t.Errorf("Apply() error = %v, want ErrUnknownMode", err)
	}
}
