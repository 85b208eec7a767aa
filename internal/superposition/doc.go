// Package superposition models a probability distribution over non-negative
// integers, the classical shadow of a register prepared in a superposition of
// basis states with real, non-negative amplitudes.
//
// A Superposition is immutable. Every constructor validates that the total
// probability is 1 within DefaultTolerance and returns a
// MalformedSuperpositionError otherwise. Classical functions are lifted onto
// superpositions by convolution (ApplyUnary, ApplyBinary), which is the
// expected effect of a correct reversible circuit.
package superposition
