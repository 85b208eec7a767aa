// Package protocol implements the superposition equivalence checks: prepare
// input registers in superpositions of basis states, apply the operation
// under test, read the output register back from a state dump and compare it
// with the classical function lifted onto the input distributions.
//
// A correct reversible circuit maps every branch of its input independently,
// so its output distribution is the convolution of the inputs under the
// classical function. A circuit that is only correct on basis states, for
// example one that leaves garbage entangled with the output, fails here.
package protocol
