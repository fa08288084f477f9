// Package codec is the lossy image compression boundary of framecast.
//
// The streaming core treats compression as a black box turning packed RGB888
// pixels into bytes and back. The production codec is JPEG at a fixed quality;
// a raw passthrough codec exists for tests and for lossless debugging streams.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

// DefaultQuality is the JPEG quality level used by the stream.
const DefaultQuality = 70

// ErrBadInput indicates pixel data that disagrees with the stated dimensions.
var ErrBadInput = errors.New("pixel buffer does not match dimensions")

// Codec compresses packed RGB888 images into a byte stream and back.
// Implementations must be safe for use from a single session at a time;
// they hold no per-image state.
type Codec interface {
	// Compress encodes a width x height RGB888 image.
	Compress(pix []byte, width, height int) ([]byte, error)
	// Decompress decodes data back into RGB888 pixels and dimensions.
	Decompress(data []byte) (pix []byte, width, height int, err error)
}

// JPEG implements Codec using the standard library JPEG coder.
type JPEG struct {
	Quality int
}

// NewJPEG returns a JPEG codec at the given quality; values outside 1..100
// fall back to DefaultQuality.
func NewJPEG(quality int) *JPEG {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &JPEG{Quality: quality}
}

// Compress encodes the image as baseline JPEG.
func (c *JPEG) Compress(pix []byte, width, height int) ([]byte, error) {
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrBadInput, len(pix), width, height)
	}

	var buf bytes.Buffer
	img := &rgbImage{pix: pix, width: width, height: height}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.Quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decodes a JPEG image into packed RGB888 pixels.
func (c *JPEG) Decompress(data []byte) ([]byte, int, int, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("jpeg decode: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pix := make([]byte, 0, width*height*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pix = append(pix, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}
	return pix, width, height, nil
}

// rgbImage adapts a packed RGB888 buffer to image.Image without copying.
type rgbImage struct {
	pix    []byte
	width  int
	height int
}

func (i *rgbImage) ColorModel() color.Model {
	return color.RGBAModel
}

func (i *rgbImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.width, i.height)
}

func (i *rgbImage) At(x, y int) color.Color {
	off := (y*i.width + x) * 3
	return color.RGBA{R: i.pix[off], G: i.pix[off+1], B: i.pix[off+2], A: 0xFF}
}

// rawHeaderSize is the dimension prefix of the raw codec: two little-endian
// uint16s (width, height).
const rawHeaderSize = 4

// Raw is a lossless passthrough Codec. It prefixes the dimensions and copies
// pixels verbatim; useful in tests and for debugging streams where exact
// pixel round-trips matter more than bandwidth.
type Raw struct{}

// Compress prefixes the dimensions and copies the pixels.
func (Raw) Compress(pix []byte, width, height int) ([]byte, error) {
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrBadInput, len(pix), width, height)
	}
	out := make([]byte, 0, rawHeaderSize+len(pix))
	out = binary.LittleEndian.AppendUint16(out, uint16(width))
	out = binary.LittleEndian.AppendUint16(out, uint16(height))
	return append(out, pix...), nil
}

// Decompress splits the dimension prefix from the pixel data.
func (Raw) Decompress(data []byte) ([]byte, int, int, error) {
	if len(data) < rawHeaderSize {
		return nil, 0, 0, fmt.Errorf("%w: short raw header", ErrBadInput)
	}
	width := int(binary.LittleEndian.Uint16(data[0:2]))
	height := int(binary.LittleEndian.Uint16(data[2:4]))
	pix := data[rawHeaderSize:]
	if len(pix) != width*height*3 {
		return nil, 0, 0, fmt.Errorf("%w: %d bytes for %dx%d", ErrBadInput, len(pix), width, height)
	}
	out := make([]byte, len(pix))
	copy(out, pix)
	return out, width, height, nil
}
