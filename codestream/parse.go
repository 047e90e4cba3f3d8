package codestream

import (
	"encoding/binary"
	"fmt"
)

// Info summarizes the coding geometry recovered from a main header.
type Info struct {
	Width          int
	Height         int
	Components     int
	BitsPerSample  int
	IsSigned       bool
	HT             bool // CAP segment with the Part 15 bit present
	Reversible     bool // 5/3 transform selected in COD
	Decompositions int
	BlockWidth     int
	BlockHeight    int
	Progression    uint8 // SGcod progression order value
}

// ParseMainHeader walks the main header of a codestream, from SOC up to
// the first tile-part, and returns the recovered coding geometry.
//
// Segment ordering follows ISO/IEC 15444-1 A.4: SOC first, SIZ immediately
// after, functional segments before the first SOT. Unknown segments with a
// valid length field are skipped.
func ParseMainHeader(data []byte) (*Info, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("codestream too short (%d bytes)", len(data))
	}
	if marker := binary.BigEndian.Uint16(data); marker != MarkerSOC {
		return nil, fmt.Errorf("expected SOC marker (0x%04X), got 0x%04X", MarkerSOC, marker)
	}

	info := &Info{}
	seenSIZ := false
	seenCOD := false
	offset := 2

	for {
		if offset+2 > len(data) {
			return nil, fmt.Errorf("unexpected end of codestream at offset %d", offset)
		}
		marker := binary.BigEndian.Uint16(data[offset:])
		if marker == MarkerSOT || marker == MarkerEOC {
			break
		}
		if marker < 0xFF00 {
			return nil, fmt.Errorf("invalid marker 0x%04X at offset %d", marker, offset)
		}
		offset += 2

		if !HasLength(marker) {
			return nil, fmt.Errorf("unexpected delimiting marker %s in main header", MarkerName(marker))
		}
		if offset+2 > len(data) {
			return nil, fmt.Errorf("truncated %s segment length", MarkerName(marker))
		}
		segLen := int(binary.BigEndian.Uint16(data[offset:]))
		if segLen < 2 || offset+segLen > len(data) {
			return nil, fmt.Errorf("%s segment length %d exceeds codestream", MarkerName(marker), segLen)
		}
		seg := data[offset+2 : offset+segLen]

		switch marker {
		case MarkerSIZ:
			if seenSIZ {
				return nil, fmt.Errorf("duplicate SIZ segment")
			}
			if err := parseSIZ(seg, info); err != nil {
				return nil, fmt.Errorf("failed to parse SIZ: %w", err)
			}
			seenSIZ = true

		case MarkerCAP:
			if !seenSIZ {
				return nil, fmt.Errorf("CAP encountered before SIZ")
			}
			if len(seg) >= 4 {
				pcap := binary.BigEndian.Uint32(seg)
				// Bit 15 counted from the MSB flags Part 15 capability.
				info.HT = pcap&(1<<(32-15)) != 0
			}

		case MarkerCOD:
			if !seenSIZ {
				return nil, fmt.Errorf("COD encountered before SIZ")
			}
			if seenCOD {
				return nil, fmt.Errorf("duplicate COD segment")
			}
			if err := parseCOD(seg, info); err != nil {
				return nil, fmt.Errorf("failed to parse COD: %w", err)
			}
			seenCOD = true

		default:
			// COC, QCD, QCC, COM and friends carry nothing Info needs.
		}

		offset += segLen
	}

	if !seenSIZ {
		return nil, fmt.Errorf("main header has no SIZ segment")
	}
	if !seenCOD {
		return nil, fmt.Errorf("main header has no COD segment")
	}
	return info, nil
}

// Validate checks that data is structurally a complete codestream: a
// parseable main header followed by tile data terminated by EOC.
func Validate(data []byte) error {
	if _, err := ParseMainHeader(data); err != nil {
		return err
	}
	if len(data) < 2 || binary.BigEndian.Uint16(data[len(data)-2:]) != MarkerEOC {
		return fmt.Errorf("codestream does not end with EOC marker")
	}
	return nil
}

// parseSIZ decodes an SIZ segment body (without marker and length).
func parseSIZ(seg []byte, info *Info) error {
	// Rsiz(2) Xsiz(4) Ysiz(4) XOsiz(4) YOsiz(4) XTsiz(4) YTsiz(4)
	// XTOsiz(4) YTOsiz(4) Csiz(2) then Ssiz/XRsiz/YRsiz per component.
	if len(seg) < 36 {
		return fmt.Errorf("segment too short (%d bytes)", len(seg))
	}
	rsiz := binary.BigEndian.Uint16(seg[0:])
	xsiz := binary.BigEndian.Uint32(seg[2:])
	ysiz := binary.BigEndian.Uint32(seg[6:])
	xosiz := binary.BigEndian.Uint32(seg[10:])
	yosiz := binary.BigEndian.Uint32(seg[14:])
	csiz := int(binary.BigEndian.Uint16(seg[34:]))

	if csiz < 1 {
		return fmt.Errorf("invalid component count %d", csiz)
	}
	if len(seg) < 36+3*csiz {
		return fmt.Errorf("segment too short for %d components", csiz)
	}
	if xsiz <= xosiz || ysiz <= yosiz {
		return fmt.Errorf("empty image region (%d,%d)-(%d,%d)", xosiz, yosiz, xsiz, ysiz)
	}

	info.Width = int(xsiz - xosiz)
	info.Height = int(ysiz - yosiz)
	info.Components = csiz
	if rsiz&RsizCapHT != 0 {
		info.HT = true
	}

	// All components are expected to share precision and signedness in
	// the streams this module produces; take them from component 0.
	ssiz := seg[36]
	info.BitsPerSample = int(ssiz&0x7F) + 1
	info.IsSigned = ssiz&0x80 != 0
	return nil
}

// parseCOD decodes a COD segment body (without marker and length).
func parseCOD(seg []byte, info *Info) error {
	// Scod(1) SGcod: order(1) layers(2) mct(1)
	// SPcod: levels(1) cbw(1) cbh(1) cbstyle(1) transform(1)
	if len(seg) < 10 {
		return fmt.Errorf("segment too short (%d bytes)", len(seg))
	}
	info.Progression = seg[1]
	info.Decompositions = int(seg[5])

	cbw := int(seg[6]&0x0F) + 2
	cbh := int(seg[7]&0x0F) + 2
	info.BlockWidth = 1 << cbw
	info.BlockHeight = 1 << cbh

	info.Reversible = seg[9] == 1
	return nil
}
