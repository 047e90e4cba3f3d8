package htj2k

import "errors"

var (
	// ErrNoEngine indicates the encoder was built without a codec engine
	ErrNoEngine = errors.New("htj2k: no codec engine configured")

	// ErrNoSource indicates Encode was called with no source image bound
	ErrNoSource = errors.New("htj2k: no source image bound")

	// ErrSourceSize indicates the bound source buffer does not match the
	// frame geometry
	ErrSourceSize = errors.New("htj2k: source buffer size mismatch")

	// ErrDecodeNotSupported indicates this module only encodes
	ErrDecodeNotSupported = errors.New("htj2k: decoding is not supported")
)
