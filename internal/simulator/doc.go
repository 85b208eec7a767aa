// Package simulator is an in-process reference engine for arithmetic
// circuits. It implements engine.Evaluator and engine.Resetter.
//
// The state is kept sparse: a list of branches, each holding one classical
// value per allocated register and a complex amplitude. Arithmetic operations
// are modelled as classical functions applied to every branch, which is exact
// for circuits built from reversible classical gates. State dumps follow the
// engine index convention (first allocated qubit is the most significant
// bit), so the reconstruction path exercised against this simulator is the
// one used against a real engine.
//
// Operations and routines are looked up in a Library. StandardLibrary
// provides correct reference circuits; FaultyLibrary adds deliberately broken
// ones used to prove that the harness catches defects.
package simulator
