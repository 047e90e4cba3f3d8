package htj2k

import "fmt"

// The engine parses attribute assignments in two groups. Image geometry
// (the S* attributes) must be finalized before the codestream exists;
// coding attributes (the C* and Q* attributes) are applied to the created
// codestream and finalized before compression starts.

// sizAssignments translates frame geometry into the engine's image
// parameter attributes, in the order the engine expects them.
func sizAssignments(frame FrameInfo) []string {
	signed := "no"
	if frame.IsSigned {
		signed = "yes"
	}
	return []string{
		fmt.Sprintf("Scomponents=%d", frame.ComponentCount),
		fmt.Sprintf("Sdims={%d,%d}", frame.Height, frame.Width),
		fmt.Sprintf("Sprecision=%d", frame.BitsPerSample),
		"Ssigned=" + signed,
	}
}

// codingAssignments translates encoding options into the engine's coding
// attributes. Unmapped progression orders contribute no Corder assignment
// and leave the engine default untouched.
func codingAssignments(opts EncodingOptions) []string {
	assignments := make([]string, 0, 6)
	if opts.HTEnabled {
		assignments = append(assignments, "Cmodes=HT")
	}
	if opts.Lossless {
		assignments = append(assignments, "Creversible=yes")
	} else {
		assignments = append(assignments,
			"Creversible=no",
			fmt.Sprintf("Qfactor=%d", clampQfactor(opts.Qfactor)))
	}
	if order := opts.Progression.String(); order != "" {
		assignments = append(assignments, "Corder="+order)
	}
	assignments = append(assignments,
		fmt.Sprintf("Clevels=%d", opts.Decompositions),
		fmt.Sprintf("Cblk={%d,%d}", opts.BlockDimensions.Width, opts.BlockDimensions.Height))
	return assignments
}
