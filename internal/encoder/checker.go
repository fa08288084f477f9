package encoder

// Sample packs every other pixel of frame into a half-density checkerboard
// buffer of exactly Geometry.CheckerBytes() bytes.
//
// phase selects which of the two complementary checkerboards is taken: within
// each row a per-pixel toggle starts at phase and flips after every pixel, and
// the starting toggle also flips at the end of each row, so consecutive rows
// sample complementary columns. Sampling with phase 0 then phase 1 on two
// adjacent frames covers every pixel position exactly once; the receiver
// interleaves the two halves to rebuild a full-resolution image at the cost of
// one frame of latency.
//
// The packed result is treated downstream as an image of width Width/2 and
// height Height.
func Sample(frame []byte, geo Geometry, phase int) []byte {
	out := make([]byte, 0, geo.CheckerBytes())

	skip := phase != 0
	in := 0
	for y := 0; y < geo.Height; y++ {
		for x := 0; x < geo.Width; x++ {
			if !skip {
				out = append(out, frame[in], frame[in+1], frame[in+2])
			}
			in += BytesPerPixel
			skip = !skip
		}
		skip = !skip
	}
	return out
}
