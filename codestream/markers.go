// Package codestream provides lightweight inspection of HTJ2K and JPEG 2000
// codestreams: marker constants and a main-header parser sufficient to
// verify structure and recover the coding geometry an encoder negotiated.
package codestream

// Marker codes.
// Reference: ISO/IEC 15444-1:2019 Table A.1 and ISO/IEC 15444-15:2019 (HT).

// Delimiting markers
const (
	// MarkerSOC - Start of codestream
	MarkerSOC uint16 = 0xFF4F

	// MarkerSOT - Start of tile-part
	MarkerSOT uint16 = 0xFF90

	// MarkerSOD - Start of data
	MarkerSOD uint16 = 0xFF93

	// MarkerEOC - End of codestream
	MarkerEOC uint16 = 0xFFD9
)

// Fixed information marker segments
const (
	// MarkerSIZ - Image and tile size
	MarkerSIZ uint16 = 0xFF51

	// MarkerCAP - Extended capabilities (carries the Part 15 HT signal)
	MarkerCAP uint16 = 0xFF50

	// MarkerCPF - Corresponding profile (HTJ2K, Part 15)
	MarkerCPF uint16 = 0xFF59
)

// Functional marker segments
const (
	// MarkerCOD - Coding style default
	MarkerCOD uint16 = 0xFF52

	// MarkerCOC - Coding style component
	MarkerCOC uint16 = 0xFF53

	// MarkerQCD - Quantization default
	MarkerQCD uint16 = 0xFF5C

	// MarkerQCC - Quantization component
	MarkerQCC uint16 = 0xFF5D

	// MarkerRGN - Region of interest
	MarkerRGN uint16 = 0xFF5E

	// MarkerPOC - Progression order change
	MarkerPOC uint16 = 0xFF5F
)

// Pointer and informational marker segments
const (
	// MarkerTLM - Tile-part lengths
	MarkerTLM uint16 = 0xFF55

	// MarkerPLM - Packet length, main header
	MarkerPLM uint16 = 0xFF57

	// MarkerPPM - Packed packet headers, main header
	MarkerPPM uint16 = 0xFF60

	// MarkerCRG - Component registration
	MarkerCRG uint16 = 0xFF63

	// MarkerCOM - Comment
	MarkerCOM uint16 = 0xFF64
)

// RsizCapHT is the Rsiz capability bit advertising that the codestream
// requires Part 15 (HT block coding) support.
const RsizCapHT uint16 = 0x4000

// MarkerName returns the name of a marker code
func MarkerName(marker uint16) string {
	switch marker {
	case MarkerSOC:
		return "SOC"
	case MarkerSOT:
		return "SOT"
	case MarkerSOD:
		return "SOD"
	case MarkerEOC:
		return "EOC"
	case MarkerSIZ:
		return "SIZ"
	case MarkerCAP:
		return "CAP"
	case MarkerCPF:
		return "CPF"
	case MarkerCOD:
		return "COD"
	case MarkerCOC:
		return "COC"
	case MarkerQCD:
		return "QCD"
	case MarkerQCC:
		return "QCC"
	case MarkerRGN:
		return "RGN"
	case MarkerPOC:
		return "POC"
	case MarkerTLM:
		return "TLM"
	case MarkerPLM:
		return "PLM"
	case MarkerPPM:
		return "PPM"
	case MarkerCRG:
		return "CRG"
	case MarkerCOM:
		return "COM"
	default:
		return "UNKNOWN"
	}
}

// HasLength returns true if the marker is followed by a length field
func HasLength(marker uint16) bool {
	switch marker {
	case MarkerSOC, MarkerSOD, MarkerEOC:
		return false
	default:
		return true
	}
}
