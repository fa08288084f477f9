// Package receiver implements the reassembling side of a framecast stream.
//
// A Receiver listens for one sender at a time, parses each wire frame,
// applies it to a shared Canvas, and answers with a 1-byte acknowledgment.
// The sender treats the acknowledgment as an advisory backlog hint, so the
// receiver writes it after every handled frame, including NONE frames.
//
// A Viewer serves the canvas to browsers: JPEG snapshots pushed over a
// websocket whenever the canvas changes, plus Prometheus metrics and a
// liveness probe.
package receiver
