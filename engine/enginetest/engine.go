// Package enginetest provides an in-memory codec engine for exercising
// the encoding pipeline without a real HT block coder.
//
// The fake engine enforces the protocol ordering rules a real engine
// relies on (finalize before create, finalize before start, push only
// between start and finish) and records every attribute assignment it is
// driven with. On Finish it writes a structurally valid codestream
// skeleton to the target, with SIZ and COD segments derived from the
// parsed attributes, so tests can parse the output and verify that the
// negotiated geometry survived the parameter protocol. Compression is
// modeled, not performed: the tile payload is the pushed stripe data,
// truncated in proportion to the qfactor for irreversible runs.
package enginetest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/cocosip/go-htj2k/codestream"
	"github.com/cocosip/go-htj2k/engine"
)

var _ engine.Engine = (*Engine)(nil)

// Engine is the fake engine. The exported fields describe the most
// recent codestream run and are meant for test assertions.
type Engine struct {
	// Siz holds the image-parameter assignments, in parse order.
	Siz []string

	// Coding holds the coding-parameter assignments, in parse order.
	Coding []string

	// Workers is the worker count passed to the compressor.
	Workers int

	// Stripes holds a copy of every pushed stripe.
	Stripes [][]byte

	// StripeHeights holds the per-component heights of every push.
	StripeHeights [][]int

	// TargetCaps records the capability the target advertised at
	// codestream creation.
	TargetCaps engine.Capability
}

// New returns a fresh fake engine.
func New() *Engine {
	return &Engine{}
}

// NewParams implements engine.Engine.
func (e *Engine) NewParams() engine.Params {
	return &params{}
}

// CreateCodestream implements engine.Engine.
func (e *Engine) CreateCodestream(siz engine.Params, target engine.Target) (engine.Codestream, error) {
	sp, ok := siz.(*params)
	if !ok {
		return nil, fmt.Errorf("enginetest: foreign parameter set %T", siz)
	}
	if !sp.finalized {
		return nil, fmt.Errorf("enginetest: image parameters not finalized")
	}
	if target == nil {
		return nil, fmt.Errorf("enginetest: nil target")
	}
	e.TargetCaps = target.Capabilities()
	if e.TargetCaps&engine.CapSequential == 0 {
		return nil, fmt.Errorf("enginetest: target does not support sequential writes")
	}

	e.Siz = append([]string(nil), sp.assignments...)
	e.Coding = nil
	e.Workers = 0
	e.Stripes = nil
	e.StripeHeights = nil

	return &codestreamState{eng: e, siz: sp, coding: &params{}, target: target}, nil
}

// NewCompressor implements engine.Engine.
func (e *Engine) NewCompressor() engine.Compressor {
	return &compressor{eng: e}
}

// params is a string-keyed attribute set with finalize semantics.
type params struct {
	assignments []string
	finalized   bool
}

func (p *params) Parse(assignment string) error {
	if p.finalized {
		return fmt.Errorf("enginetest: parse of %q after finalize", assignment)
	}
	key, value, ok := strings.Cut(assignment, "=")
	if !ok || key == "" || value == "" {
		return fmt.Errorf("enginetest: malformed assignment %q", assignment)
	}
	p.assignments = append(p.assignments, assignment)
	return nil
}

func (p *params) Finalize() error {
	if p.finalized {
		return fmt.Errorf("enginetest: parameters already finalized")
	}
	p.finalized = true
	return nil
}

type codestreamState struct {
	eng       *Engine
	siz       *params
	coding    *params
	target    engine.Target
	destroyed bool
}

func (cs *codestreamState) Params() engine.Params {
	return cs.coding
}

func (cs *codestreamState) Destroy() error {
	if cs.destroyed {
		return fmt.Errorf("enginetest: codestream already destroyed")
	}
	cs.destroyed = true
	return nil
}

// geometry is the image description recovered from the S* attributes.
type geometry struct {
	components int
	width      int
	height     int
	precision  int
	signed     bool
}

func (g geometry) bytesPerSample() int {
	return (g.precision + 7) / 8
}

// coding is the coding description recovered from the C* and Q* attributes.
type coding struct {
	ht          bool
	reversible  bool
	qfactor     int
	progression uint8
	levels      int
	blockWidth  int
	blockHeight int
}

type compressor struct {
	eng      *Engine
	cs       *codestreamState
	geo      geometry
	cod      coding
	payload  bytes.Buffer
	started  bool
	finished bool
}

func (c *compressor) Start(cs engine.Codestream, workers int) error {
	if c.started {
		return fmt.Errorf("enginetest: compressor already started")
	}
	state, ok := cs.(*codestreamState)
	if !ok {
		return fmt.Errorf("enginetest: foreign codestream %T", cs)
	}
	if state.destroyed {
		return fmt.Errorf("enginetest: codestream already destroyed")
	}
	if !state.coding.finalized {
		return fmt.Errorf("enginetest: coding parameters not finalized")
	}

	geo, err := parseGeometry(state.siz.assignments)
	if err != nil {
		return err
	}
	cod, err := parseCoding(state.coding.assignments)
	if err != nil {
		return err
	}
	if workers < 1 {
		workers = 1
	}

	state.eng.Coding = append([]string(nil), state.coding.assignments...)
	state.eng.Workers = workers

	c.cs = state
	c.geo = geo
	c.cod = cod
	c.started = true
	return nil
}

func (c *compressor) PushStripe(samples []byte, stripeHeights []int) error {
	if !c.started {
		return fmt.Errorf("enginetest: push before start")
	}
	if c.finished {
		return fmt.Errorf("enginetest: push after finish")
	}
	if len(stripeHeights) != c.geo.components {
		return fmt.Errorf("enginetest: %d stripe heights for %d components",
			len(stripeHeights), c.geo.components)
	}
	height := stripeHeights[0]
	for _, h := range stripeHeights {
		if h != height {
			return fmt.Errorf("enginetest: per-component stripe heights must match for interleaved input")
		}
	}
	if height < 1 || height > c.geo.height {
		return fmt.Errorf("enginetest: stripe height %d outside image height %d", height, c.geo.height)
	}
	want := c.geo.width * height * c.geo.components * c.geo.bytesPerSample()
	if len(samples) != want {
		return fmt.Errorf("enginetest: stripe is %d bytes, geometry needs %d", len(samples), want)
	}

	c.eng.Stripes = append(c.eng.Stripes, append([]byte(nil), samples...))
	c.eng.StripeHeights = append(c.eng.StripeHeights, append([]int(nil), stripeHeights...))
	c.payload.Write(samples)
	return nil
}

func (c *compressor) Finish() error {
	if !c.started {
		return fmt.Errorf("enginetest: finish before start")
	}
	if c.finished {
		return fmt.Errorf("enginetest: compressor already finished")
	}
	if c.payload.Len() == 0 {
		return fmt.Errorf("enginetest: no stripes pushed")
	}

	out := buildCodestream(c.geo, c.cod, c.payload.Bytes())
	if _, err := c.cs.target.Write(out); err != nil {
		return fmt.Errorf("enginetest: target write failed: %w", err)
	}
	c.finished = true
	return nil
}

// parseGeometry resolves the S* attributes. All four are required.
func parseGeometry(assignments []string) (geometry, error) {
	geo := geometry{components: -1, width: -1, precision: -1}
	for _, a := range assignments {
		key, value, _ := strings.Cut(a, "=")
		switch key {
		case "Scomponents":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return geo, fmt.Errorf("enginetest: bad Scomponents value %q", value)
			}
			geo.components = n
		case "Sdims":
			if _, err := fmt.Sscanf(value, "{%d,%d}", &geo.height, &geo.width); err != nil {
				return geo, fmt.Errorf("enginetest: bad Sdims value %q", value)
			}
		case "Sprecision":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 || n > 16 {
				return geo, fmt.Errorf("enginetest: bad Sprecision value %q", value)
			}
			geo.precision = n
		case "Ssigned":
			geo.signed = value == "yes"
		default:
			return geo, fmt.Errorf("enginetest: unrecognized image attribute %q", key)
		}
	}
	if geo.components < 1 || geo.width < 1 || geo.height < 1 || geo.precision < 1 {
		return geo, fmt.Errorf("enginetest: incomplete image geometry")
	}
	return geo, nil
}

// parseCoding resolves the C* attributes, applying engine defaults for
// everything unassigned: LRCP progression, 5 levels, 64x64 blocks,
// classic block coding, irreversible transform.
func parseCoding(assignments []string) (coding, error) {
	cod := coding{
		qfactor:     85,
		levels:      5,
		blockWidth:  64,
		blockHeight: 64,
	}
	for _, a := range assignments {
		key, value, _ := strings.Cut(a, "=")
		switch key {
		case "Cmodes":
			if value != "HT" {
				return cod, fmt.Errorf("enginetest: unsupported Cmodes value %q", value)
			}
			cod.ht = true
		case "Creversible":
			cod.reversible = value == "yes"
		case "Qfactor":
			q, err := strconv.Atoi(value)
			if err != nil || q < 0 || q > 100 {
				return cod, fmt.Errorf("enginetest: bad Qfactor value %q", value)
			}
			cod.qfactor = q
		case "Corder":
			p, ok := progressionValue(value)
			if !ok {
				return cod, fmt.Errorf("enginetest: bad Corder value %q", value)
			}
			cod.progression = p
		case "Clevels":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 || n > 32 {
				return cod, fmt.Errorf("enginetest: bad Clevels value %q", value)
			}
			cod.levels = n
		case "Cblk":
			if _, err := fmt.Sscanf(value, "{%d,%d}", &cod.blockWidth, &cod.blockHeight); err != nil {
				return cod, fmt.Errorf("enginetest: bad Cblk value %q", value)
			}
			if err := checkBlockSize(cod.blockWidth, cod.blockHeight); err != nil {
				return cod, err
			}
		default:
			return cod, fmt.Errorf("enginetest: unrecognized coding attribute %q", key)
		}
	}
	return cod, nil
}

// checkBlockSize applies the code-block constraints of ISO/IEC 15444-1:
// powers of two, each side in 4..1024, combined area at most 4096.
func checkBlockSize(width, height int) error {
	for _, side := range []int{width, height} {
		if side < 4 || side > 1024 || side&(side-1) != 0 {
			return fmt.Errorf("enginetest: illegal code-block side %d", side)
		}
	}
	if width*height > 4096 {
		return fmt.Errorf("enginetest: code-block area %dx%d exceeds 4096 samples", width, height)
	}
	return nil
}

func progressionValue(keyword string) (uint8, bool) {
	switch keyword {
	case "LRCP":
		return 0, true
	case "RLCP":
		return 1, true
	case "RPCL":
		return 2, true
	case "PCRL":
		return 3, true
	case "CPRL":
		return 4, true
	default:
		return 0, false
	}
}

// buildCodestream assembles the marker skeleton around the payload.
func buildCodestream(geo geometry, cod coding, payload []byte) []byte {
	if !cod.reversible {
		// Model rate reduction: keep a qfactor-proportional share of
		// the payload.
		keep := len(payload) * cod.qfactor / 100
		if keep < 1 {
			keep = 1
		}
		payload = payload[:keep]
	}

	var out bytes.Buffer
	writeMarker(&out, codestream.MarkerSOC)
	writeSegment(&out, codestream.MarkerSIZ, sizBody(geo, cod.ht))
	if cod.ht {
		writeSegment(&out, codestream.MarkerCAP, capBody())
	}
	writeSegment(&out, codestream.MarkerCOD, codBody(cod))
	writeSegment(&out, codestream.MarkerQCD, qcdBody(geo, cod))
	writeSegment(&out, codestream.MarkerSOT, sotBody(len(payload)))
	writeMarker(&out, codestream.MarkerSOD)
	out.Write(payload)
	writeMarker(&out, codestream.MarkerEOC)
	return out.Bytes()
}

func writeMarker(out *bytes.Buffer, marker uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], marker)
	out.Write(b[:])
}

func writeSegment(out *bytes.Buffer, marker uint16, body []byte) {
	writeMarker(out, marker)
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(len(body)+2))
	out.Write(b[:])
	out.Write(body)
}

func sizBody(geo geometry, ht bool) []byte {
	body := make([]byte, 36+3*geo.components)
	var rsiz uint16
	if ht {
		rsiz = codestream.RsizCapHT
	}
	binary.BigEndian.PutUint16(body[0:], rsiz)
	binary.BigEndian.PutUint32(body[2:], uint32(geo.width))
	binary.BigEndian.PutUint32(body[6:], uint32(geo.height))
	// Image and tile offsets zero, single tile covering the image.
	binary.BigEndian.PutUint32(body[18:], uint32(geo.width))
	binary.BigEndian.PutUint32(body[22:], uint32(geo.height))
	binary.BigEndian.PutUint16(body[34:], uint16(geo.components))
	for i := 0; i < geo.components; i++ {
		ssiz := byte(geo.precision - 1)
		if geo.signed {
			ssiz |= 0x80
		}
		body[36+3*i] = ssiz
		body[36+3*i+1] = 1
		body[36+3*i+2] = 1
	}
	return body
}

// capBody advertises Part 15 (HT) capability: Pcap bit 15 plus an
// all-HT Ccap15.
func capBody() []byte {
	body := make([]byte, 6)
	binary.BigEndian.PutUint32(body[0:], 1<<(32-15))
	return body
}

func codBody(cod coding) []byte {
	body := make([]byte, 10)
	body[0] = 0 // Scod: default precincts, no SOP/EPH
	body[1] = cod.progression
	binary.BigEndian.PutUint16(body[2:], 1) // single quality layer
	body[4] = 0                             // no MCT
	body[5] = byte(cod.levels)
	body[6] = byte(bits.TrailingZeros(uint(cod.blockWidth)) - 2)
	body[7] = byte(bits.TrailingZeros(uint(cod.blockHeight)) - 2)
	body[8] = 0 // code-block style
	if cod.reversible {
		body[9] = 1
	}
	return body
}

func qcdBody(geo geometry, cod coding) []byte {
	subbands := 3*cod.levels + 1
	if cod.reversible {
		// No quantization, two guard bits, one exponent per subband.
		body := make([]byte, 1+subbands)
		body[0] = 0x40
		for i := 0; i < subbands; i++ {
			body[1+i] = byte(geo.precision+2) << 3
		}
		return body
	}
	// Scalar expounded, two guard bits, exponent/mantissa per subband.
	body := make([]byte, 1+2*subbands)
	body[0] = 0x42
	for i := 0; i < subbands; i++ {
		binary.BigEndian.PutUint16(body[1+2*i:], 0x5800|uint16(100-cod.qfactor))
	}
	return body
}

func sotBody(payloadLen int) []byte {
	body := make([]byte, 8)
	// Psot spans SOT through the end of the tile data.
	binary.BigEndian.PutUint32(body[2:], uint32(12+2+payloadLen))
	body[6] = 0 // TPsot
	body[7] = 1 // TNsot
	return body
}
