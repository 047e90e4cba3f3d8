package codestream

import (
	"encoding/binary"
	"testing"
)

// buildHeader assembles a minimal codestream for parser tests.
func buildHeader(t *testing.T, rsiz uint16, withCAP, withEOC bool) []byte {
	t.Helper()

	var out []byte
	appendMarker := func(m uint16) {
		out = binary.BigEndian.AppendUint16(out, m)
	}
	appendSegment := func(m uint16, body []byte) {
		appendMarker(m)
		out = binary.BigEndian.AppendUint16(out, uint16(len(body)+2))
		out = append(out, body...)
	}

	appendMarker(MarkerSOC)

	siz := make([]byte, 39)
	binary.BigEndian.PutUint16(siz[0:], rsiz)
	binary.BigEndian.PutUint32(siz[2:], 640)  // Xsiz
	binary.BigEndian.PutUint32(siz[6:], 480)  // Ysiz
	binary.BigEndian.PutUint32(siz[18:], 640) // XTsiz
	binary.BigEndian.PutUint32(siz[22:], 480) // YTsiz
	binary.BigEndian.PutUint16(siz[34:], 1)   // Csiz
	siz[36] = 11                              // 12-bit unsigned
	siz[37] = 1
	siz[38] = 1
	appendSegment(MarkerSIZ, siz)

	if withCAP {
		capSeg := make([]byte, 6)
		binary.BigEndian.PutUint32(capSeg[0:], 1<<(32-15))
		appendSegment(MarkerCAP, capSeg)
	}

	cod := make([]byte, 10)
	cod[1] = 2 // RPCL
	binary.BigEndian.PutUint16(cod[2:], 1)
	cod[5] = 5 // levels
	cod[6] = 4 // 64 wide
	cod[7] = 3 // 32 high
	cod[9] = 1 // reversible
	appendSegment(MarkerCOD, cod)

	appendSegment(MarkerQCD, []byte{0x40, 0x50})

	sot := make([]byte, 8)
	binary.BigEndian.PutUint32(sot[2:], 12+2+4)
	sot[7] = 1
	appendSegment(MarkerSOT, sot)
	appendMarker(MarkerSOD)
	out = append(out, 0xDE, 0xAD, 0xBE, 0xEF)
	if withEOC {
		appendMarker(MarkerEOC)
	}
	return out
}

// TestParseMainHeader verifies geometry recovery from SIZ and COD
func TestParseMainHeader(t *testing.T) {
	data := buildHeader(t, 0, false, true)

	info, err := ParseMainHeader(data)
	if err != nil {
		t.Fatalf("ParseMainHeader failed: %v", err)
	}
	if info.Width != 640 || info.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", info.Width, info.Height)
	}
	if info.Components != 1 {
		t.Errorf("Components = %d, want 1", info.Components)
	}
	if info.BitsPerSample != 12 {
		t.Errorf("BitsPerSample = %d, want 12", info.BitsPerSample)
	}
	if info.IsSigned {
		t.Error("IsSigned = true, want false")
	}
	if info.HT {
		t.Error("HT = true, want false without CAP or Rsiz bit")
	}
	if info.Decompositions != 5 {
		t.Errorf("Decompositions = %d, want 5", info.Decompositions)
	}
	if info.BlockWidth != 64 || info.BlockHeight != 32 {
		t.Errorf("block = %dx%d, want 64x32", info.BlockWidth, info.BlockHeight)
	}
	if !info.Reversible {
		t.Error("Reversible = false, want true")
	}
	if info.Progression != 2 {
		t.Errorf("Progression = %d, want 2", info.Progression)
	}
}

// TestParseMainHeaderHTSignals verifies both HT signals: the CAP segment
// and the Rsiz capability bit
func TestParseMainHeaderHTSignals(t *testing.T) {
	info, err := ParseMainHeader(buildHeader(t, 0, true, true))
	if err != nil {
		t.Fatalf("ParseMainHeader failed: %v", err)
	}
	if !info.HT {
		t.Error("HT = false with CAP segment, want true")
	}

	info, err = ParseMainHeader(buildHeader(t, RsizCapHT, false, true))
	if err != nil {
		t.Fatalf("ParseMainHeader failed: %v", err)
	}
	if !info.HT {
		t.Error("HT = false with Rsiz capability bit, want true")
	}
}

// TestParseMainHeaderErrors verifies structural error detection
func TestParseMainHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no SOC", []byte{0x00, 0x01, 0x02, 0x03}},
		{"SOC only", []byte{0xFF, 0x4F}},
		{"truncated SIZ", []byte{0xFF, 0x4F, 0xFF, 0x51, 0x00, 0x29, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMainHeader(tt.data); err == nil {
				t.Error("ParseMainHeader succeeded, want error")
			}
		})
	}

	// COD before SIZ
	bad := []byte{0xFF, 0x4F, 0xFF, 0x52, 0x00, 0x0C}
	bad = append(bad, make([]byte, 10)...)
	if _, err := ParseMainHeader(bad); err == nil {
		t.Error("ParseMainHeader accepted COD before SIZ, want error")
	}
}

// TestValidate verifies the trailing EOC requirement
func TestValidate(t *testing.T) {
	if err := Validate(buildHeader(t, 0, false, true)); err != nil {
		t.Errorf("Validate failed on complete codestream: %v", err)
	}
	if err := Validate(buildHeader(t, 0, false, false)); err == nil {
		t.Error("Validate accepted codestream without EOC, want error")
	}
}

// TestMarkerNames spot-checks marker naming and length classes
func TestMarkerNames(t *testing.T) {
	if got := MarkerName(MarkerCAP); got != "CAP" {
		t.Errorf("MarkerName(CAP) = %q, want CAP", got)
	}
	if got := MarkerName(0xFF00); got != "UNKNOWN" {
		t.Errorf("MarkerName(0xFF00) = %q, want UNKNOWN", got)
	}
	if HasLength(MarkerSOC) || HasLength(MarkerSOD) || HasLength(MarkerEOC) {
		t.Error("delimiting markers must not report a length field")
	}
	if !HasLength(MarkerSIZ) || !HasLength(MarkerCOD) {
		t.Error("segment markers must report a length field")
	}
}
