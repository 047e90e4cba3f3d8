// Package engine defines the contract between the HTJ2K encoding pipeline
// and an underlying JPEG 2000 codec engine.
//
// The pipeline in package htj2k drives the engine through a small
// protocol common to stripe-oriented JPEG 2000 SDKs: build and finalize
// an image-parameter set, bind it together with a byte sink into a
// codestream, apply and finalize coding parameters on that codestream,
// then stream sample stripes through a compressor. The engine owns the wavelet transform, quantization,
// rate control and block entropy coding; none of that is visible here.
package engine

// Capability describes what kind of writes a Target supports.
type Capability int

const (
	// CapSequential indicates the target accepts strictly sequential,
	// append-only writes.
	CapSequential Capability = 1 << iota

	// CapCached indicates the target supports cached (random-access)
	// writes. No target in this module advertises it.
	CapCached
)

// Target is the byte sink a codestream writes compressed output to.
type Target interface {
	// Capabilities reports which write modes the target supports.
	// Engines consult this once, when the codestream is created.
	Capabilities() Capability

	// Write appends p to the target. Engines never rewrite or reorder
	// previously written bytes on a sequential target. A zero-length
	// write is a no-op.
	Write(p []byte) (n int, err error)

	// Close signals that no further bytes will be written.
	Close() error
}

// Params is a string-keyed parameter set in the engine's attribute
// syntax, e.g. "Sdims={512,512}" or "Corder=RPCL".
//
// Assignments are parsed incrementally and take effect at Finalize, which
// locks the set and computes any derived coding structures. Parse after
// Finalize is a protocol violation.
type Params interface {
	// Parse applies one attribute assignment of the form "Key=Value".
	// Illegal keys or values are rejected by the engine, not by callers.
	Parse(assignment string) error

	// Finalize locks the parameter set and fills in engine defaults for
	// everything left unassigned.
	Finalize() error
}

// Codestream is one compression run bound to a parameter set and a target.
type Codestream interface {
	// Params returns the codestream's coding parameter set. Coding
	// attributes are applied here after creation and before the
	// compressor starts.
	Params() Params

	// Destroy releases all engine resources held by the codestream.
	// The codestream is unusable afterwards.
	Destroy() error
}

// Compressor pushes sample stripes into a codestream.
//
// Call order is Start, one or more PushStripe, Finish. Finish drains any
// buffered coding state and guarantees all output bytes have reached the
// codestream's target.
type Compressor interface {
	// Start begins compression for the codestream. workers is the number
	// of engine worker threads made available for block-level parallel
	// coding; values below 1 mean single-threaded operation.
	Start(cs Codestream, workers int) error

	// PushStripe feeds one stripe of interleaved samples. stripeHeights
	// holds the stripe height for each component, in component order.
	PushStripe(samples []byte, stripeHeights []int) error

	// Finish flushes remaining coding state and completes the codestream.
	Finish() error
}

// Engine is the factory surface a codec engine exposes to the pipeline.
type Engine interface {
	// NewParams returns an empty image-parameter set (the SIZ domain:
	// component count, dimensions, precision, signedness).
	NewParams() Params

	// CreateCodestream binds a finalized image-parameter set and a
	// target into a new codestream.
	CreateCodestream(siz Params, target Target) (Codestream, error)

	// NewCompressor returns a stripe compressor for this engine.
	NewCompressor() Compressor
}
