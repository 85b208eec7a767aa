//go:generate mockgen -source=evaluator.go -destination=mocks/mock_evaluator.go -package=mocks

package engine

import (
	"context"
	"math/big"
)

// BasisAmplitude is the complex amplitude of one computational basis state.
type BasisAmplitude struct {
	Index     *big.Int
	Amplitude complex128
}

// StateDump is a snapshot of the engine state after a program ran. Indices
// follow the engine convention: the first allocated qubit is the most
// significant bit of the index, so the last allocated register occupies the
// trailing, lowest-order bits. Basis states with zero amplitude may be omitted.
type StateDump struct {
	Qubits  int
	Entries []BasisAmplitude
}

// Evaluator runs programs against a quantum execution engine.
type Evaluator interface {
	// Evaluate runs p and returns the classical outputs of its Measure and
	// Call statements. The engine state persists after the call.
	Evaluate(ctx context.Context, p Program) (Result, error)
	// DumpState returns the amplitudes of the current engine state.
	DumpState(ctx context.Context) (StateDump, error)
}

// Resetter is implemented by evaluators that can release all allocated
// qubits and return to an empty state.
type Resetter interface {
	Reset(ctx context.Context) error
}

// ResettingEvaluator is an Evaluator that also supports Reset.
type ResettingEvaluator interface {
	Evaluator
	Resetter
}
