// Package stream drives the sending side of a framecast session.
//
// A Session owns the mutable state of one stream: the reference image the
// block differ compares against, the mode selector's counters, and the
// outbound transport. The rendering collaborator calls EncodeFrame once per
// produced frame, synchronously, from a single goroutine; the session chooses
// an encoding mode, builds and compresses the payload, frames it, sends it
// best-effort, and returns the receiver's latest acknowledgment byte as an
// advisory flow-control hint.
//
// The session never throttles on the acknowledgment itself: every tick
// encodes and sends regardless of backlog, and the ack byte is purely
// information for the caller.
//
// Sessions are not safe for concurrent use; the caller must serialize all
// calls, which the one-call-per-rendered-frame contract already guarantees.
package stream
