package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Mode identifies the encoding strategy carried by a stream frame.
type Mode uint16

const (
	// ModeNone signals an unchanged screen; the frame carries no payload.
	ModeNone Mode = 0
	// ModeFull carries a compressed full-resolution frame.
	ModeFull Mode = 1
	// ModeDiff carries a change bitmap plus the compressed changed blocks.
	ModeDiff Mode = 2
	// ModeChecker carries the phase-0 half of a checkerboard sample pair.
	ModeChecker Mode = 3
	// ModeCheckerCompl carries the complementary phase-1 half.
	ModeCheckerCompl Mode = 4
)

const (
	// TagSize is the size of the mode tag field.
	TagSize = 2
	// LengthSize is the size of the payload length field.
	LengthSize = 2
	// MaxPayloadSize is the largest compressed payload a frame can carry,
	// bounded by the 16-bit length field.
	MaxPayloadSize = 0xFFFF
)

var (
	// ErrUnknownMode indicates a mode tag outside the defined range.
	ErrUnknownMode = errors.New("unknown frame mode")
	// ErrPayloadTooLarge indicates a payload that does not fit the 16-bit length field.
	ErrPayloadTooLarge = errors.New("payload exceeds 16-bit length field")
	// ErrBitmapSize indicates a DIFF frame whose bitmap does not match the session geometry.
	ErrBitmapSize = errors.New("change bitmap size mismatch")
)

// Frame is one wire unit of the stream.
type Frame struct {
	Mode    Mode
	Bitmap  []byte // change bitmap, DIFF frames only
	Payload []byte // compressed image data, empty for NONE
}

// Valid reports whether the mode tag is one of the defined values.
func (m Mode) Valid() bool {
	return m <= ModeCheckerCompl
}

// CheckerPhase returns the checkerboard phase a mode implies:
// 0 for CHECKER, 1 for CHECKER_COMPL, -1 for any other mode.
func (m Mode) CheckerPhase() int {
	switch m {
	case ModeChecker:
		return 0
	case ModeCheckerCompl:
		return 1
	default:
		return -1
	}
}

// String returns a human-readable mode name
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeFull:
		return "full"
	case ModeDiff:
		return "diff"
	case ModeChecker:
		return "checker"
	case ModeCheckerCompl:
		return "checker_compl"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(m))
	}
}

// Encode serializes the frame to its wire representation.
//
// NONE frames must carry no bitmap and no payload; DIFF frames must carry a
// bitmap. The payload length must fit the 16-bit length field.
func (f *Frame) Encode() ([]byte, error) {
	if !f.Mode.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, uint16(f.Mode))
	}
	if len(f.Payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(f.Payload))
	}

	if f.Mode == ModeNone {
		wire := make([]byte, TagSize)
		binary.LittleEndian.PutUint16(wire, uint16(f.Mode))
		return wire, nil
	}

	size := TagSize + LengthSize + len(f.Payload)
	if f.Mode == ModeDiff {
		size += len(f.Bitmap)
	}

	wire := make([]byte, 0, size)
	wire = binary.LittleEndian.AppendUint16(wire, uint16(f.Mode))
	wire = binary.LittleEndian.AppendUint16(wire, uint16(len(f.Payload)))
	if f.Mode == ModeDiff {
		wire = append(wire, f.Bitmap...)
	}
	wire = append(wire, f.Payload...)
	return wire, nil
}

// ReadFrame reads and parses one stream frame from the reader.
//
// bitmapSize is the change-bitmap size implied by the session geometry
// (ceil(blockCount/8)); it is needed to know how many bitmap bytes a DIFF
// frame carries before its payload.
func ReadFrame(r io.Reader, bitmapSize int) (*Frame, error) {
	var tag [TagSize]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, fmt.Errorf("failed to read mode tag: %w", err)
	}

	frame := &Frame{Mode: Mode(binary.LittleEndian.Uint16(tag[:]))}
	if !frame.Mode.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, uint16(frame.Mode))
	}

	if frame.Mode == ModeNone {
		return frame, nil
	}

	var length [LengthSize]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return nil, fmt.Errorf("failed to read payload length: %w", err)
	}
	payloadLen := int(binary.LittleEndian.Uint16(length[:]))

	if frame.Mode == ModeDiff {
		if bitmapSize <= 0 {
			return nil, fmt.Errorf("%w: need positive bitmap size for diff frames", ErrBitmapSize)
		}
		frame.Bitmap = make([]byte, bitmapSize)
		if _, err := io.ReadFull(r, frame.Bitmap); err != nil {
			return nil, fmt.Errorf("failed to read change bitmap: %w", err)
		}
	}

	if payloadLen > 0 {
		frame.Payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, frame.Payload); err != nil {
			return nil, fmt.Errorf("failed to read payload: %w", err)
		}
	}

	return frame, nil
}
