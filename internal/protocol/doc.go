// Package protocol implements the framecast wire format.
//
// Each stream frame sent over the TCP connection has this structure, with all
// integers little-endian:
//
//	[0-1]   mode tag        (uint16: NONE=0, FULL=1, DIFF=2, CHECKER=3, CHECKER_COMPL=4)
//	[2-3]   payload length  (uint16, present when mode != NONE)
//	[4+]    change bitmap   (ceil(blockCount/8) bytes, present when mode = DIFF)
//	[...]   payload         (payload length bytes of compressed image data)
//
// A NONE frame is just the 2-byte tag: it tells the receiver the screen is
// unchanged while still giving it a chance to acknowledge.
//
// The change bitmap has one bit per 8x8 pixel block in row-major block order,
// least-significant bit first within each byte. Its size is fixed by the
// session geometry, so the receiver must know the geometry to parse DIFF
// frames; ReadFrame takes the expected bitmap size for that reason.
//
// After processing each frame the receiver writes a single acknowledgment
// byte. The sender polls for it opportunistically and never blocks on it.
//
// # Usage Example
//
//	frame := &protocol.Frame{Mode: protocol.ModeDiff, Bitmap: bitmap, Payload: jpeg}
//	wire, err := frame.Encode()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	conn.Write(wire)
//
// All encoding and parsing functions are stateless and safe for concurrent use.
package protocol
