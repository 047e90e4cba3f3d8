package htj2k

import "github.com/cocosip/go-dicom/pkg/imaging/codec"

// Ensure Parameters implements codec.Parameters
var _ codec.Parameters = (*Parameters)(nil)

// Parameters carries HTJ2K encoding options across go-dicom's generic
// codec parameter interface.
type Parameters struct {
	// Qfactor controls lossy compression quality (0-100)
	// - 0: maximum compression, lowest quality
	// - 85: default
	// - 100: near-lossless, highest quality
	//
	// Ignored for lossless encoding.
	Qfactor int

	// Lossless selects the reversible transform
	Lossless bool

	// Decompositions is the number of wavelet decomposition levels
	// Default: 5
	Decompositions int

	// BlockWidth specifies the code-block width
	// Default: 64 (power of 2 expected by the engine)
	BlockWidth int

	// BlockHeight specifies the code-block height
	// Default: 64 (power of 2 expected by the engine)
	BlockHeight int

	// Progression is the progression order (0=LRCP ... 4=CPRL)
	// Default: RPCL
	Progression ProgressionOrder

	// HTEnabled toggles HT block coding
	// Default: true
	HTEnabled bool

	// Workers is the engine worker-thread count for block coding
	// Default: 2
	Workers int

	// internal storage for compatibility with generic parameter interface
	params map[string]interface{}
}

// NewParameters creates default Parameters for lossy HTJ2K encoding.
func NewParameters() *Parameters {
	opts := DefaultEncodingOptions()
	return &Parameters{
		Qfactor:        opts.Qfactor,
		Lossless:       false,
		Decompositions: opts.Decompositions,
		BlockWidth:     opts.BlockDimensions.Width,
		BlockHeight:    opts.BlockDimensions.Height,
		Progression:    opts.Progression,
		HTEnabled:      opts.HTEnabled,
		Workers:        opts.Workers,
		params:         make(map[string]interface{}),
	}
}

// NewLosslessParameters creates Parameters for lossless HTJ2K encoding.
func NewLosslessParameters() *Parameters {
	p := NewParameters()
	p.Lossless = true
	return p
}

// GetParameter retrieves a parameter by name (implements codec.Parameters)
func (p *Parameters) GetParameter(name string) interface{} {
	switch name {
	case "qfactor":
		return p.Qfactor
	case "lossless":
		return p.Lossless
	case "decompositions":
		return p.Decompositions
	case "blockWidth":
		return p.BlockWidth
	case "blockHeight":
		return p.BlockHeight
	case "progressionOrder":
		return int(p.Progression)
	case "htEnabled":
		return p.HTEnabled
	case "workers":
		return p.Workers
	default:
		return p.params[name]
	}
}

// SetParameter sets a parameter value (implements codec.Parameters)
func (p *Parameters) SetParameter(name string, value interface{}) {
	switch name {
	case "qfactor":
		if v, ok := value.(int); ok {
			p.Qfactor = v
		}
	case "lossless":
		if v, ok := value.(bool); ok {
			p.Lossless = v
		}
	case "decompositions":
		if v, ok := value.(int); ok {
			p.Decompositions = v
		}
	case "blockWidth":
		if v, ok := value.(int); ok {
			p.BlockWidth = v
		}
	case "blockHeight":
		if v, ok := value.(int); ok {
			p.BlockHeight = v
		}
	case "progressionOrder":
		if v, ok := value.(int); ok {
			p.Progression = ProgressionOrder(v)
		}
	case "htEnabled":
		if v, ok := value.(bool); ok {
			p.HTEnabled = v
		}
	case "workers":
		if v, ok := value.(int); ok {
			p.Workers = v
		}
	default:
		if p.params == nil {
			p.params = make(map[string]interface{})
		}
		p.params[name] = value
	}
}

// Validate clamps parameters into their legal ranges. Block geometry and
// decomposition counts outside the engine's limits are left for the
// engine itself to reject.
func (p *Parameters) Validate() error {
	p.Qfactor = clampQfactor(p.Qfactor)
	if p.Decompositions < 0 {
		p.Decompositions = 0
	}
	if p.Workers < 1 {
		p.Workers = 1
	}
	return nil
}

// WithQfactor sets the qfactor and returns the parameters for chaining
func (p *Parameters) WithQfactor(q int) *Parameters {
	p.Qfactor = q
	return p
}

// WithBlockSize sets both block dimensions and returns the parameters for chaining
func (p *Parameters) WithBlockSize(width, height int) *Parameters {
	p.BlockWidth = width
	p.BlockHeight = height
	return p
}

// WithDecompositions sets the decomposition level count and returns the parameters for chaining
func (p *Parameters) WithDecompositions(n int) *Parameters {
	p.Decompositions = n
	return p
}

// WithProgressionOrder sets the progression order and returns the parameters for chaining
func (p *Parameters) WithProgressionOrder(order ProgressionOrder) *Parameters {
	p.Progression = order
	return p
}

// WithHTEnabled toggles HT coding and returns the parameters for chaining
func (p *Parameters) WithHTEnabled(enabled bool) *Parameters {
	p.HTEnabled = enabled
	return p
}

// options converts the parameters to pipeline encoding options.
func (p *Parameters) options() EncodingOptions {
	opts := DefaultEncodingOptions()
	opts.Decompositions = p.Decompositions
	opts.Lossless = p.Lossless
	opts.Qfactor = clampQfactor(p.Qfactor)
	opts.Progression = p.Progression
	opts.BlockDimensions = Size{Width: p.BlockWidth, Height: p.BlockHeight}
	opts.HTEnabled = p.HTEnabled
	if p.Workers >= 1 {
		opts.Workers = p.Workers
	}
	return opts
}
