package htj2k

import (
	"reflect"
	"testing"
)

// TestSizAssignments verifies the geometry translation and its ordering
func TestSizAssignments(t *testing.T) {
	frame := FrameInfo{Width: 512, Height: 384, ComponentCount: 3, BitsPerSample: 8}

	got := sizAssignments(frame)
	want := []string{
		"Scomponents=3",
		"Sdims={384,512}",
		"Sprecision=8",
		"Ssigned=no",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sizAssignments() = %v, want %v", got, want)
	}
}

// TestSizAssignmentsSigned verifies the signedness flag
func TestSizAssignmentsSigned(t *testing.T) {
	frame := FrameInfo{Width: 64, Height: 64, ComponentCount: 1, BitsPerSample: 12, IsSigned: true}

	got := sizAssignments(frame)
	want := []string{
		"Scomponents=1",
		"Sdims={64,64}",
		"Sprecision=12",
		"Ssigned=yes",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sizAssignments() = %v, want %v", got, want)
	}
}

// TestCodingAssignmentsLosslessDefaults verifies the default lossless
// translation: HT on, reversible transform, RPCL, 5 levels, 64x64 blocks
func TestCodingAssignmentsLosslessDefaults(t *testing.T) {
	got := codingAssignments(DefaultEncodingOptions())
	want := []string{
		"Cmodes=HT",
		"Creversible=yes",
		"Corder=RPCL",
		"Clevels=5",
		"Cblk={64,64}",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("codingAssignments() = %v, want %v", got, want)
	}
}

// TestCodingAssignmentsLossy verifies that the irreversible transform
// carries a qfactor and that the quantization step stays unwired
func TestCodingAssignmentsLossy(t *testing.T) {
	opts := DefaultEncodingOptions()
	opts.Lossless = false
	opts.Qfactor = 50
	opts.QuantizationStep = 0.25

	got := codingAssignments(opts)
	want := []string{
		"Cmodes=HT",
		"Creversible=no",
		"Qfactor=50",
		"Corder=RPCL",
		"Clevels=5",
		"Cblk={64,64}",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("codingAssignments() = %v, want %v", got, want)
	}
}

// TestCodingAssignmentsProgressionMapping verifies the full 0-4 keyword
// table in the emitted Corder assignment
func TestCodingAssignmentsProgressionMapping(t *testing.T) {
	tests := []struct {
		order ProgressionOrder
		want  string
	}{
		{LRCP, "Corder=LRCP"},
		{RLCP, "Corder=RLCP"},
		{RPCL, "Corder=RPCL"},
		{PCRL, "Corder=PCRL"},
		{CPRL, "Corder=CPRL"},
	}

	for _, tt := range tests {
		opts := DefaultEncodingOptions()
		opts.Progression = tt.order
		assignments := codingAssignments(opts)

		found := false
		for _, a := range assignments {
			if a == tt.want {
				found = true
			}
		}
		if !found {
			t.Errorf("codingAssignments() for order %d = %v, missing %q", int(tt.order), assignments, tt.want)
		}
	}
}

// TestCodingAssignmentsUnmappedOrder verifies that out-of-range orders
// contribute no Corder assignment, leaving the engine default in place
func TestCodingAssignmentsUnmappedOrder(t *testing.T) {
	for _, order := range []ProgressionOrder{-1, 5, 7, 100} {
		opts := DefaultEncodingOptions()
		opts.Progression = order

		for _, a := range codingAssignments(opts) {
			if len(a) >= 7 && a[:7] == "Corder=" {
				t.Errorf("order %d emitted %q, want no Corder assignment", int(order), a)
			}
		}
	}
}

// TestCodingAssignmentsHTDisabled verifies that classic block coding
// omits the Cmodes assignment
func TestCodingAssignmentsHTDisabled(t *testing.T) {
	opts := DefaultEncodingOptions()
	opts.HTEnabled = false

	for _, a := range codingAssignments(opts) {
		if a == "Cmodes=HT" {
			t.Error("codingAssignments() emitted Cmodes=HT with HT disabled")
		}
	}
}

// TestCodingAssignmentsBlockDimensions verifies the bracketed pair format
func TestCodingAssignmentsBlockDimensions(t *testing.T) {
	opts := DefaultEncodingOptions()
	opts.BlockDimensions = Size{Width: 32, Height: 128}

	assignments := codingAssignments(opts)
	want := "Cblk={32,128}"
	if got := assignments[len(assignments)-1]; got != want {
		t.Errorf("last assignment = %q, want %q", got, want)
	}
}
