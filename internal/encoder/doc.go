// Package encoder implements the per-frame encoding machinery of framecast:
// the 8x8 block differ, the checkerboard sub-sampler, and the mode selector.
//
// A frame is a packed RGB888 buffer whose width and height are multiples of
// the 8-pixel block size. The differ compares each block of the current frame
// against a session-owned reference image, updates the reference in place for
// blocks that changed, and packs the changed pixel data for transmission. The
// sampler halves the data volume by selecting alternating pixels in a 2-D
// checkerboard; two complementary samples cover every pixel exactly once.
//
// The mode selector is a small state machine choosing between sending nothing,
// a full frame, the changed blocks, or a checkerboard half per tick, driven by
// the diff volume and a forced-refresh counter that bounds drift accumulated
// from lossy, incremental encoding.
package encoder
