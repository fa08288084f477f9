package encoder

// Reference holds the last transmitted image of a streaming session. It is
// the baseline the block differ compares against and is mutated in place,
// block by block, as changed blocks are detected. Single-owner state: the
// session mutates it only from its serialized encode path.
type Reference struct {
	geo Geometry
	pix []byte
}

// NewReference creates a reference initialized to a copy of frame.
func NewReference(geo Geometry, frame []byte) *Reference {
	pix := make([]byte, geo.FrameBytes())
	copy(pix, frame)
	return &Reference{geo: geo, pix: pix}
}

// Geometry returns the fixed dimensions of the reference.
func (r *Reference) Geometry() Geometry {
	return r.geo
}

// Pixels exposes the backing buffer. Callers must not resize it.
func (r *Reference) Pixels() []byte {
	return r.pix
}

// SetAll overwrites the whole reference with frame. Used on full resyncs so
// the reference tracks exactly what the receiver was sent.
func (r *Reference) SetAll(frame []byte) {
	copy(r.pix, frame)
}
