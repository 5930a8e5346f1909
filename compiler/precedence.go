package compiler

// Precedence is a Pratt-parser binding power: the loop keeps consuming
// infix operators whose precedence is at least the level it was called
// with.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)
