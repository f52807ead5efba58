package ode

// Sequence maps a table row index j >= 1 to the number of substeps used by
// the stage computed for that row. Sequences must be strictly increasing.
type Sequence func(j int) int

// SequenceKind selects a step-number sequence by name.
type SequenceKind string

const (
	// SequenceAuto picks per method family and dense-output need.
	SequenceAuto SequenceKind = "auto"
	// SequenceHarmonic is 1, 2, 3, 4, ... (Euler family).
	SequenceHarmonic SequenceKind = "harmonic"
	// SequenceHarmonicEven is 2, 4, 6, 8, ... (midpoint family; substep
	// counts must be even so the grid has a middle point).
	SequenceHarmonicEven SequenceKind = "harmonic-even"
	// SequenceDense is 2, 6, 10, 14, ... used when interior output times
	// require dense output from a symmetric method.
	SequenceDense SequenceKind = "dense"
)

func HarmonicSequence(j int) int { return j }

func HarmonicEvenSequence(j int) int { return 2 * j }

func DenseSequence(j int) int { return 4*j - 2 }

// SelectSequence resolves a kind to a concrete sequence. With SequenceAuto
// the choice depends on the method's symmetry and on whether the current
// step needs dense output.
func SelectSequence(kind SequenceKind, method Method, needDense bool) Sequence {
	switch kind {
	case SequenceHarmonic:
		return HarmonicSequence
	case SequenceHarmonicEven:
		return HarmonicEvenSequence
	case SequenceDense:
		return DenseSequence
	}
	if !method.Symmetric() {
		return HarmonicSequence
	}
	if needDense {
		return DenseSequence
	}
	return HarmonicEvenSequence
}
