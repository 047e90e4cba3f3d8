package htj2k

import (
	"fmt"

	"github.com/cocosip/go-htj2k/engine"
)

// DefaultWorkers is the number of engine worker threads handed to the
// stripe compressor when none is configured.
const DefaultWorkers = 2

// Encoder turns one interleaved pixel frame into an HTJ2K codestream.
//
// Callers set the frame description and any options, bind a source buffer
// with SetSourceImage, then call Encode. The result is available from
// EncodedBytes until the next Encode resets the output buffer. An Encoder
// is reusable across encodes but must not be used concurrently.
type Encoder struct {
	eng    engine.Engine
	frame  FrameInfo
	opts   EncodingOptions
	source []byte
	target *BufferTarget
}

// NewEncoder creates an Encoder driving the given codec engine, with
// DefaultEncodingOptions applied.
func NewEncoder(eng engine.Engine) *Encoder {
	return &Encoder{
		eng:    eng,
		opts:   DefaultEncodingOptions(),
		target: NewBufferTarget(),
	}
}

// SetFrameInfo sets the geometry and sample format of the frame to encode.
func (e *Encoder) SetFrameInfo(frame FrameInfo) {
	e.frame = frame
}

// SetDecompositions sets the number of wavelet decomposition levels.
func (e *Encoder) SetDecompositions(n int) {
	e.opts.Decompositions = n
}

// SetQuality selects between lossless and lossy encoding. The
// quantization step is recorded but quality is currently driven through
// the qfactor; the step is ignored entirely when lossless is true.
func (e *Encoder) SetQuality(lossless bool, quantizationStep float32) {
	e.opts.Lossless = lossless
	e.opts.QuantizationStep = quantizationStep
}

// SetQfactor sets the 0-100 quality knob for lossy encoding.
// Out-of-range values are clamped, never rejected.
func (e *Encoder) SetQfactor(q int) {
	e.opts.Qfactor = clampQfactor(q)
}

// SetProgressionOrder sets the progression order. Values outside the
// mapped 0-4 range leave the engine's built-in default order unchanged.
func (e *Encoder) SetProgressionOrder(order ProgressionOrder) {
	e.opts.Progression = order
}

// SetBlockDimensions sets the code-block geometry. The engine rejects
// dimensions that are not powers of two or outside its legal range.
func (e *Encoder) SetBlockDimensions(width, height int) {
	e.opts.BlockDimensions = Size{Width: width, Height: height}
}

// SetHTEnabled toggles HT block coding. When disabled the engine falls
// back to classic EBCOT block coding.
func (e *Encoder) SetHTEnabled(enabled bool) {
	e.opts.HTEnabled = enabled
}

// SetWorkers sets the number of engine worker threads used for
// block-level parallel coding. Values below 1 select single-threaded
// operation.
func (e *Encoder) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	e.opts.Workers = n
}

// SetOptions replaces the whole option set in one step. Individual
// setters remain usable afterwards.
func (e *Encoder) SetOptions(opts EncodingOptions) {
	opts.Qfactor = clampQfactor(opts.Qfactor)
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	e.opts = opts
}

// Options returns the options the next Encode will use.
func (e *Encoder) Options() EncodingOptions {
	return e.opts
}

// SetSourceImage binds the interleaved source pixel buffer. The Encoder
// borrows the slice; it must stay valid and unmodified until Encode
// returns.
func (e *Encoder) SetSourceImage(buf []byte) {
	e.source = buf
}

// EncodedBytes returns the output of the last completed Encode. The
// slice is owned by the Encoder and only valid until the next Encode.
func (e *Encoder) EncodedBytes() []byte {
	return e.target.Bytes()
}

// Encode runs the full pipeline synchronously: build and finalize image
// parameters, create the codestream bound to the output buffer, apply
// and finalize coding parameters, then push the whole frame as a single
// full-height stripe and flush. Any engine failure aborts the encode;
// there is no partial result to resume from.
func (e *Encoder) Encode() error {
	if e.eng == nil {
		return ErrNoEngine
	}
	if e.source == nil {
		return ErrNoSource
	}
	if want := e.frame.FrameSize(); len(e.source) != want {
		return fmt.Errorf("%w: have %d bytes, frame needs %d", ErrSourceSize, len(e.source), want)
	}

	opts := e.opts

	// Fresh output for every encode; reserve roughly the raw frame size
	// so the engine's writes do not regrow the buffer repeatedly.
	e.target.Reset()
	e.target.grow(e.frame.FrameSize())

	siz := e.eng.NewParams()
	for _, a := range sizAssignments(e.frame) {
		if err := siz.Parse(a); err != nil {
			return fmt.Errorf("htj2k: failed to set %q: %w", a, err)
		}
	}
	if err := siz.Finalize(); err != nil {
		return fmt.Errorf("htj2k: failed to finalize image parameters: %w", err)
	}

	cs, err := e.eng.CreateCodestream(siz, e.target)
	if err != nil {
		return fmt.Errorf("htj2k: failed to create codestream: %w", err)
	}

	if err := e.compress(cs, opts); err != nil {
		_ = cs.Destroy()
		return err
	}

	if err := cs.Destroy(); err != nil {
		return fmt.Errorf("htj2k: failed to release codestream: %w", err)
	}
	return e.target.Close()
}

// compress applies the coding parameters and streams the source frame
// through the engine's stripe compressor.
func (e *Encoder) compress(cs engine.Codestream, opts EncodingOptions) error {
	for _, a := range codingAssignments(opts) {
		if err := cs.Params().Parse(a); err != nil {
			return fmt.Errorf("htj2k: failed to set %q: %w", a, err)
		}
	}
	if err := cs.Params().Finalize(); err != nil {
		return fmt.Errorf("htj2k: failed to finalize coding parameters: %w", err)
	}

	compressor := e.eng.NewCompressor()
	if err := compressor.Start(cs, opts.Workers); err != nil {
		return fmt.Errorf("htj2k: failed to start compression: %w", err)
	}

	// One stripe spanning the full image height for every component.
	stripeHeights := make([]int, e.frame.ComponentCount)
	for i := range stripeHeights {
		stripeHeights[i] = e.frame.Height
	}
	if err := compressor.PushStripe(e.source, stripeHeights); err != nil {
		return fmt.Errorf("htj2k: failed to push stripe: %w", err)
	}

	if err := compressor.Finish(); err != nil {
		return fmt.Errorf("htj2k: failed to finish compression: %w", err)
	}
	return nil
}
