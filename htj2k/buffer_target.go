package htj2k

import "github.com/cocosip/go-htj2k/engine"

var _ engine.Target = (*BufferTarget)(nil)

// BufferTarget adapts an owned, growable byte buffer to the engine's
// compressed-output sink contract. Writes always succeed and append in
// order; Close has no observable effect and the buffer stays readable.
type BufferTarget struct {
	buf []byte
}

// NewBufferTarget returns an empty buffer target.
func NewBufferTarget() *BufferTarget {
	return &BufferTarget{}
}

// Capabilities reports sequential-only writes; cached (random-access)
// writes are not supported.
func (t *BufferTarget) Capabilities() engine.Capability {
	return engine.CapSequential
}

// Write appends p to the buffer. A zero-length write is a no-op.
func (t *BufferTarget) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	return len(p), nil
}

// Close implements engine.Target. The buffer remains valid.
func (t *BufferTarget) Close() error {
	return nil
}

// Reset empties the buffer while keeping its capacity for reuse.
func (t *BufferTarget) Reset() {
	t.buf = t.buf[:0]
}

// Bytes returns the accumulated output. The slice is owned by the target
// and only valid until the next Reset or Write.
func (t *BufferTarget) Bytes() []byte {
	return t.buf
}

// grow ensures capacity for at least n more bytes.
func (t *BufferTarget) grow(n int) {
	if cap(t.buf)-len(t.buf) >= n {
		return
	}
	next := make([]byte, len(t.buf), len(t.buf)+n)
	copy(next, t.buf)
	t.buf = next
}
