package simulator

import (
	"math/big"
	"sort"

	"github.com/agbru/qarithcheck/internal/engine"
)

// Operand is one argument as seen by an operation. Register operands carry
// the register value of the current branch in Value; operations update it in
// place. Classical operands carry their constant in Value or Bool.
type Operand struct {
	Kind  engine.ArgKind
	Width int
	Value *big.Int
	Bool  bool
}

// Operation transforms the register operands of one branch.
type Operation func(args []Operand) error

// Routine computes a classical return value from classical arguments.
type Routine func(args []Operand) (engine.Value, error)

// Library maps fully qualified names to operations and routines.
type Library struct {
	ops        map[string]Operation
	controlled map[string]Operation
	routines   map[string]Routine
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{
		ops:        make(map[string]Operation),
		controlled: make(map[string]Operation),
		routines:   make(map[string]Routine),
	}
}

// Define registers op under name and returns l for chaining.
func (l *Library) Define(name string, op Operation) *Library {
	l.ops[name] = op
	return l
}

// DefineControlled overrides the controlled variant of name. The override
// receives the control registers as leading operands and decides itself
// whether to act. Without an override the simulator applies the plain
// operation only on branches where every control qubit is set.
func (l *Library) DefineControlled(name string, op Operation) *Library {
	l.controlled[name] = op
	return l
}

// DefineRoutine registers a routine under name.
func (l *Library) DefineRoutine(name string, r Routine) *Library {
	l.routines[name] = r
	return l
}

// Merge copies every definition of other into l, overriding duplicates.
func (l *Library) Merge(other *Library) *Library {
	for k, v := range other.ops {
		l.ops[k] = v
	}
	for k, v := range other.controlled {
		l.controlled[k] = v
	}
	for k, v := range other.routines {
		l.routines[k] = v
	}
	return l
}

// Names returns every defined operation and routine name, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.ops)+len(l.routines))
	for k := range l.ops {
		names = append(names, k)
	}
	for k := range l.routines {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (l *Library) operation(name string) (Operation, bool) {
	op, ok := l.ops[name]
	return op, ok
}

func (l *Library) controlledOperation(name string) (Operation, bool) {
	op, ok := l.controlled[name]
	return op, ok
}

func (l *Library) routine(name string) (Routine, bool) {
	r, ok := l.routines[name]
	return r, ok
}
