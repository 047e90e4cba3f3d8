package htj2k

import (
	"fmt"

	"github.com/cocosip/go-dicom/pkg/dicom/transfer"
	"github.com/cocosip/go-dicom/pkg/imaging/codec"
	"github.com/cocosip/go-dicom/pkg/imaging/imagetypes"

	"github.com/cocosip/go-htj2k/engine"
)

var _ codec.Codec = (*Codec)(nil)

// Codec surfaces the HTJ2K encoding pipeline as a DICOM transfer-syntax
// codec. Reference: ITU-T T.814 | ISO/IEC 15444-15:2019
//
// Supported Transfer Syntaxes:
// - 1.2.840.10008.1.2.4.201: HTJ2K Lossless
// - 1.2.840.10008.1.2.4.202: HTJ2K Lossless RPCL
// - 1.2.840.10008.1.2.4.203: HTJ2K (Lossy)
type Codec struct {
	transferSyntax *transfer.Syntax
	eng            engine.Engine
	lossless       bool
	qfactor        int
}

// NewLosslessCodec creates an HTJ2K lossless codec driving the given engine.
func NewLosslessCodec(eng engine.Engine) *Codec {
	return &Codec{
		transferSyntax: transfer.HTJ2KLossless,
		eng:            eng,
		lossless:       true,
	}
}

// NewLosslessRPCLCodec creates an HTJ2K lossless RPCL codec driving the given engine.
func NewLosslessRPCLCodec(eng engine.Engine) *Codec {
	return &Codec{
		transferSyntax: transfer.HTJ2KLosslessRPCL,
		eng:            eng,
		lossless:       true,
	}
}

// NewCodec creates an HTJ2K lossy codec with the specified default qfactor.
func NewCodec(eng engine.Engine, qfactor int) *Codec {
	return &Codec{
		transferSyntax: transfer.HTJ2K,
		eng:            eng,
		lossless:       false,
		qfactor:        clampQfactor(qfactor),
	}
}

// Name returns the codec name
func (c *Codec) Name() string {
	if c.lossless {
		if c.transferSyntax == transfer.HTJ2KLosslessRPCL {
			return "HTJ2K Lossless RPCL"
		}
		return "HTJ2K Lossless"
	}
	return fmt.Sprintf("HTJ2K (Qfactor %d)", c.qfactor)
}

// TransferSyntax returns the transfer syntax this codec handles
func (c *Codec) TransferSyntax() *transfer.Syntax {
	return c.transferSyntax
}

// GetDefaultParameters returns the default codec parameters
func (c *Codec) GetDefaultParameters() codec.Parameters {
	if c.lossless {
		return NewLosslessParameters()
	}
	return NewParameters().WithQfactor(c.qfactor)
}

// Encode encodes all frames of the source pixel data to HTJ2K codestreams
func (c *Codec) Encode(oldPixelData imagetypes.PixelData, newPixelData imagetypes.PixelData, parameters codec.Parameters) error {
	if oldPixelData == nil || newPixelData == nil {
		return fmt.Errorf("source and destination PixelData cannot be nil")
	}
	frameInfo := oldPixelData.GetFrameInfo()
	if frameInfo == nil {
		return fmt.Errorf("failed to get frame info from source pixel data")
	}

	htParams := c.extractParameters(parameters)
	if err := htParams.Validate(); err != nil {
		return fmt.Errorf("invalid HTJ2K parameters: %w", err)
	}

	// The transfer syntax pins the quality mode; .202 additionally pins
	// the progression order.
	htParams.Lossless = c.lossless
	if c.transferSyntax == transfer.HTJ2KLosslessRPCL {
		htParams.Progression = RPCL
	}

	encoder := NewEncoder(c.eng)
	encoder.SetOptions(htParams.options())
	encoder.SetFrameInfo(FrameInfo{
		Width:          int(frameInfo.Width),
		Height:         int(frameInfo.Height),
		ComponentCount: int(frameInfo.SamplesPerPixel),
		BitsPerSample:  int(frameInfo.BitsStored),
		IsSigned:       frameInfo.PixelRepresentation != 0,
	})

	return c.encodeAllFrames(oldPixelData, newPixelData, encoder)
}

func (c *Codec) encodeAllFrames(oldPixelData, newPixelData imagetypes.PixelData, encoder *Encoder) error {
	frameCount := oldPixelData.FrameCount()
	if frameCount == 0 {
		return fmt.Errorf("source pixel data is empty (no frames)")
	}
	for frameIndex := 0; frameIndex < frameCount; frameIndex++ {
		frameData, err := oldPixelData.GetFrame(frameIndex)
		if err != nil {
			return fmt.Errorf("failed to get frame %d: %w", frameIndex, err)
		}
		if len(frameData) == 0 {
			return fmt.Errorf("frame %d pixel data is empty", frameIndex)
		}
		encoder.SetSourceImage(frameData)
		if err := encoder.Encode(); err != nil {
			return fmt.Errorf("HTJ2K encode failed for frame %d: %w", frameIndex, err)
		}
		// The encoder's output buffer is reused across frames.
		encoded := make([]byte, len(encoder.EncodedBytes()))
		copy(encoded, encoder.EncodedBytes())
		if err := newPixelData.AddFrame(encoded); err != nil {
			return fmt.Errorf("failed to add encoded frame %d: %w", frameIndex, err)
		}
	}
	return nil
}

// Decode is not supported; this module is encode-only.
func (c *Codec) Decode(oldPixelData imagetypes.PixelData, newPixelData imagetypes.PixelData, _ codec.Parameters) error {
	return ErrDecodeNotSupported
}

// extractParameters resolves typed parameters, falling back to the
// generic string-keyed interface for foreign implementations.
func (c *Codec) extractParameters(parameters codec.Parameters) *Parameters {
	if parameters == nil {
		if c.lossless {
			return NewLosslessParameters()
		}
		return NewParameters().WithQfactor(c.qfactor)
	}
	if hp, ok := parameters.(*Parameters); ok {
		// Work on a copy: the transfer syntax pins fields and Validate
		// clamps, and neither may leak back into the caller's object.
		cp := *hp
		return &cp
	}

	htParams := NewParameters()
	htParams.Lossless = c.lossless
	if !c.lossless {
		htParams.Qfactor = c.qfactor
	}
	if v := parameters.GetParameter("qfactor"); v != nil {
		if q, ok := v.(int); ok {
			htParams.Qfactor = q
		}
	}
	if v := parameters.GetParameter("decompositions"); v != nil {
		if n, ok := v.(int); ok && n >= 0 {
			htParams.Decompositions = n
		}
	}
	if v := parameters.GetParameter("blockWidth"); v != nil {
		if w, ok := v.(int); ok {
			htParams.BlockWidth = w
		}
	}
	if v := parameters.GetParameter("blockHeight"); v != nil {
		if h, ok := v.(int); ok {
			htParams.BlockHeight = h
		}
	}
	if v := parameters.GetParameter("progressionOrder"); v != nil {
		if o, ok := v.(int); ok {
			htParams.Progression = ProgressionOrder(o)
		}
	}
	if v := parameters.GetParameter("htEnabled"); v != nil {
		if b, ok := v.(bool); ok {
			htParams.HTEnabled = b
		}
	}
	if v := parameters.GetParameter("workers"); v != nil {
		if n, ok := v.(int); ok {
			htParams.Workers = n
		}
	}
	return htParams
}

// RegisterCodecs registers the HTJ2K codecs for all three transfer
// syntaxes with go-dicom's global registry. An engine must be supplied,
// so registration is explicit rather than an init side effect.
func RegisterCodecs(eng engine.Engine) {
	registry := codec.GetGlobalRegistry()
	registry.RegisterCodec(transfer.HTJ2KLossless, NewLosslessCodec(eng))
	registry.RegisterCodec(transfer.HTJ2KLosslessRPCL, NewLosslessRPCLCodec(eng))
	registry.RegisterCodec(transfer.HTJ2K, NewCodec(eng, DefaultEncodingOptions().Qfactor))
}
