// Package htj2k implements the HTJ2K (High-Throughput JPEG 2000) encoding
// pipeline: it translates frame geometry and encoding options into the
// parameter protocol of a codec engine, drives the codestream lifecycle,
// and captures the emitted bytes in an owned buffer.
//
// The wavelet transform, quantization, rate control and HT block coding
// are supplied by an engine.Engine implementation; this package only
// orchestrates it.
package htj2k

// FrameInfo describes the geometry and sample format of one image frame.
// All samples are interleaved by component in the source buffer.
type FrameInfo struct {
	Width          int
	Height         int
	ComponentCount int
	BitsPerSample  int
	IsSigned       bool
}

// BytesPerSample returns the number of bytes each sample occupies.
func (f FrameInfo) BytesPerSample() int {
	return (f.BitsPerSample + 7) / 8
}

// FrameSize returns the byte length of one interleaved frame.
func (f FrameInfo) FrameSize() int {
	return f.Width * f.Height * f.ComponentCount * f.BytesPerSample()
}
