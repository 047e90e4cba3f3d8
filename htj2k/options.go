package htj2k

// ProgressionOrder selects the ordering of coded data by resolution,
// layer, component and position in the output codestream.
type ProgressionOrder int

const (
	// LRCP - layer, resolution, component, position
	LRCP ProgressionOrder = iota
	// RLCP - resolution, layer, component, position
	RLCP
	// RPCL - resolution, position, component, layer
	RPCL
	// PCRL - position, component, resolution, layer
	PCRL
	// CPRL - component, position, resolution, layer
	CPRL
)

// String returns the engine keyword for the order. Unmapped values yield
// an empty string, which leaves the engine's built-in default in place.
func (p ProgressionOrder) String() string {
	switch p {
	case LRCP:
		return "LRCP"
	case RLCP:
		return "RLCP"
	case RPCL:
		return "RPCL"
	case PCRL:
		return "PCRL"
	case CPRL:
		return "CPRL"
	default:
		return ""
	}
}

// Size is a width and height pair, used for code-block dimensions.
type Size struct {
	Width  int
	Height int
}

// EncodingOptions holds every knob the pipeline forwards to the engine.
// The zero value is not useful; start from DefaultEncodingOptions.
type EncodingOptions struct {
	// Decompositions is the number of wavelet decomposition levels.
	Decompositions int

	// Lossless selects the reversible 5/3 transform. When false the
	// irreversible 9/7 transform is used and Qfactor controls quality.
	Lossless bool

	// QuantizationStep is an alternative lossy quality control. The
	// engine supports it but the pipeline currently drives quality
	// through Qfactor only.
	QuantizationStep float32

	// Qfactor is the 0-100 quality knob for lossy encoding. Always
	// stored clamped.
	Qfactor int

	// Progression is the progression order written into the codestream.
	Progression ProgressionOrder

	// BlockDimensions is the code-block geometry. The engine expects
	// powers of two and rejects anything else.
	BlockDimensions Size

	// HTEnabled selects HT (high-throughput) block coding instead of
	// the classic EBCOT arithmetic coder.
	HTEnabled bool

	// Workers is the number of engine worker threads for block-level
	// parallel coding.
	Workers int
}

// DefaultEncodingOptions returns the pipeline defaults: 5 decomposition
// levels, lossless, RPCL progression, 64x64 code-blocks, HT coding on,
// qfactor 85, two engine workers.
func DefaultEncodingOptions() EncodingOptions {
	return EncodingOptions{
		Decompositions:   5,
		Lossless:         true,
		QuantizationStep: -1.0,
		Qfactor:          85,
		Progression:      RPCL,
		BlockDimensions:  Size{Width: 64, Height: 64},
		HTEnabled:        true,
		Workers:          DefaultWorkers,
	}
}

// clampQfactor keeps q inside the 0-100 range. Out-of-range values are
// clamped, never rejected.
func clampQfactor(q int) int {
	if q < 0 {
		return 0
	}
	if q > 100 {
		return 100
	}
	return q
}
