package core

import "math"

// Atomic masses (monoisotopic)
const (
	MassH = 1.0078250321
	MassC = 12.0000000000
	MassN = 14.0030740052
	MassO = 15.9949146221
	MassS = 31.9720706900

	// Proton mass for charge calculations
	ProtonMass = 1.00727646688

	MassWater = 2*MassH + MassO
)

// AminoAcidComposition stores elemental composition of a residue.
type AminoAcidComposition struct {
	C, H, N, O, S int
}

// Mass returns the monoisotopic mass of the composition.
func (c AminoAcidComposition) Mass() float64 {
	return float64(c.C)*MassC +
		float64(c.H)*MassH +
		float64(c.N)*MassN +
		float64(c.O)*MassO +
		float64(c.S)*MassS
}

// AminoAcidMasses maps amino acid one-letter codes to residue composition.
var AminoAcidMasses = map[rune]AminoAcidComposition{
	'A': {C: 3, H: 5, N: 1, O: 1, S: 0},
	'R': {C: 6, H: 12, N: 4, O: 1, S: 0},
	'N': {C: 4, H: 6, N: 2, O: 2, S: 0},
	'D': {C: 4, H: 5, N: 1, O: 3, S: 0},
	'C': {C: 3, H: 5, N: 1, O: 1, S: 1},
	'E': {C: 5, H: 7, N: 1, O: 3, S: 0},
	'Q': {C: 5, H: 8, N: 2, O: 2, S: 0},
	'G': {C: 2, H: 3, N: 1, O: 1, S: 0},
	'H': {C: 6, H: 7, N: 3, O: 1, S: 0},
	'I': {C: 6, H: 11, N: 1, O: 1, S: 0},
	'L': {C: 6, H: 11, N: 1, O: 1, S: 0},
	'K': {C: 6, H: 12, N: 2, O: 1, S: 0},
	'M': {C: 5, H: 9, N: 1, O: 1, S: 1},
	'F': {C: 9, H: 9, N: 1, O: 1, S: 0},
	'P': {C: 5, H: 7, N: 1, O: 1, S: 0},
	'S': {C: 3, H: 5, N: 1, O: 2, S: 0},
	'T': {C: 4, H: 7, N: 1, O: 2, S: 0},
	'W': {C: 11, H: 10, N: 2, O: 1, S: 0},
	'Y': {C: 9, H: 9, N: 1, O: 2, S: 0},
	'V': {C: 5, H: 9, N: 1, O: 1, S: 0},
}

// ResidueMasses returns the monoisotopic residue mass of each amino acid in
// sequence. Unknown letters contribute zero.
func ResidueMasses(sequence string) []float64 {
	masses := make([]float64, 0, len(sequence))
	for _, aa := range sequence {
		masses = append(masses, AminoAcidMasses[aa].Mass())
	}
	return masses
}

// CalculateNeutralMass computes the neutral monoisotopic mass of a peptide.
func CalculateNeutralMass(sequence string, modifications []Modification) float64 {
	mass := MassWater
	for _, m := range ResidueMasses(sequence) {
		mass += m
	}
	for _, mod := range modifications {
		mass += mod.Mass
	}
	return mass
}

// CalculatePeptideMass returns the precursor m/z of a peptide at a charge state.
func CalculatePeptideMass(sequence string, charge int, modifications []Modification) float64 {
	if charge <= 0 {
		return 0
	}
	return MassToMZ(CalculateNeutralMass(sequence, modifications), charge)
}

// MassToMZ converts a neutral mass to m/z: (mass + charge * proton) / charge.
func MassToMZ(mass float64, charge int) float64 {
	return (mass + float64(charge)*ProtonMass) / float64(charge)
}

// FragmentMZ returns the m/z of a b or y fragment that contains n residues.
// residues holds per-residue masses with modifications already applied.
// ok is false for unsupported series or an out-of-range n.
func FragmentMZ(ion IonType, residues []float64, n, charge int) (float64, bool) {
	if n <= 0 || n >= len(residues) || charge <= 0 {
		return 0, false
	}

	var mass float64
	switch ion {
	case IonB:
		for _, m := range residues[:n] {
			mass += m
		}
	case IonY:
		for _, m := range residues[len(residues)-n:] {
			mass += m
		}
		mass += MassWater
	default:
		return 0, false
	}

	return MassToMZ(mass, charge), true
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
