package encoder

// DiffThreshold is the per-block change threshold: the running sum of absolute
// per-channel differences must exceed it before a block counts as changed.
// At BlockSize*BlockSize*BytesPerPixel it equals an average per-channel delta
// of 1 across the block, rejecting compression-artifact noise while catching
// real motion.
const DiffThreshold = BlockSize * BlockSize * BytesPerPixel

// blockRowBytes is the packed byte length of one block row.
const blockRowBytes = BlockSize * BytesPerPixel

// DiffResult is the outcome of comparing one frame against the reference.
type DiffResult struct {
	// Bitmap has one bit per block in row-major block order, LSB first
	// within each byte. Always exactly Geometry.BitmapBytes() long.
	Bitmap []byte
	// Payload holds the pixel data of the changed blocks in detection
	// order, each block packed as 8 rows of 24 bytes.
	Payload []byte
	// Changed is the number of changed blocks.
	Changed int
}

// Diff compares current against the reference at block granularity.
//
// For every changed block it sets the block's bitmap bit, overwrites that
// block of the reference with the current pixels, and appends the block to
// the packed payload. Unchanged blocks leave the reference untouched.
// current must be exactly one frame of the reference's geometry.
func Diff(current []byte, ref *Reference) DiffResult {
	geo := ref.geo
	stride := geo.Stride()

	res := DiffResult{
		Bitmap:  make([]byte, geo.BitmapBytes()),
		Payload: make([]byte, 0, geo.FrameBytes()/4),
	}

	block := 0
	for y := 0; y < geo.Height; y += BlockSize {
		rowOff := y * stride
		for x := 0; x < geo.Width; x += BlockSize {
			off := rowOff + x*BytesPerPixel
			if blockChanged(current, ref.pix, off, stride) {
				res.Bitmap[block>>3] |= 1 << (block & 7)
				copyBlock(ref.pix, current, off, stride)
				res.Payload = appendBlock(res.Payload, current, off, stride)
				res.Changed++
			}
			block++
		}
	}
	return res
}

// blockChanged sums absolute channel differences over one block, bailing out
// as soon as the sum exceeds the threshold.
func blockChanged(cur, ref []byte, off, stride int) bool {
	sum := 0
	for row := 0; row < BlockSize; row++ {
		p := off + row*stride
		for i := 0; i < blockRowBytes; i++ {
			d := int(cur[p+i]) - int(ref[p+i])
			if d < 0 {
				d = -d
			}
			sum += d
			if sum > DiffThreshold {
				return true
			}
		}
	}
	return false
}

// copyBlock overwrites one block of dst with the same block of src.
func copyBlock(dst, src []byte, off, stride int) {
	for row := 0; row < BlockSize; row++ {
		p := off + row*stride
		copy(dst[p:p+blockRowBytes], src[p:p+blockRowBytes])
	}
}

// appendBlock packs one block of src onto payload, 8 rows of 24 bytes with no
// row padding.
func appendBlock(payload, src []byte, off, stride int) []byte {
	for row := 0; row < BlockSize; row++ {
		p := off + row*stride
		payload = append(payload, src[p:p+blockRowBytes]...)
	}
	return payload
}
