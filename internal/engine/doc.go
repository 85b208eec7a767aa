// Package engine defines the boundary between the verification harness and
// the quantum execution engine that runs the circuits under test.
//
// The harness never talks to an engine in source text. It builds a Program,
// a structured list of statements (allocate a register, prepare a basis
// value or a superposition, apply an operation, measure, call a routine), and
// hands it to an Evaluator. Serialization into an engine language lives at
// the edge, in sub-packages such as engine/qsharp.
//
// Engine state is owned by a Session. A Session hands out unique register
// names and runs one Round at a time: a Round is the scope in which a check
// evaluates its program and reads the resulting state dump, and the engine is
// reset when the Round ends, whatever the outcome.
package engine
