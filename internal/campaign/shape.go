package campaign

import (
	"fmt"
)

// Kind is the calling convention of an operation under test.
type Kind int

const (
	// UnaryInPlace: op(x) maps x to f(x) in place.
	UnaryInPlace Kind = iota
	// UnaryPredicate: op(x, target) flips one target qubit when f(x) is
	// true and leaves x unchanged.
	UnaryPredicate
	// BinaryInPlace: op(x, y) maps y to f(x, y) and leaves x unchanged.
	BinaryInPlace
	// BinaryInPlaceCarry: op(x, y, carry) maps y to f(x, y) mod 2^n and
	// the carry qubit to the overflow bit, so y + carry*2^n equals f(x, y).
	BinaryInPlaceCarry
	// BinaryOutOfPlace: op(x, y, out) writes f(x, y) into a zero output
	// register and leaves x and y unchanged.
	BinaryOutOfPlace
	// ReadAll: every register is read back and compared, for operations
	// that transform several registers at once (dividers, square roots,
	// table lookups).
	ReadAll
	// Returned: the operation is a routine that runs the circuit itself and
	// returns classical values.
	Returned
)

var kindNames = map[Kind]string{
	UnaryInPlace:       "unary-inplace",
	UnaryPredicate:     "unary-predicate",
	BinaryInPlace:      "binary-inplace",
	BinaryInPlaceCarry: "binary-inplace-carry",
	BinaryOutOfPlace:   "binary-out-of-place",
	ReadAll:            "read-all",
	Returned:           "returned",
}

// String returns the kind name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Shape is the full calling convention: the kind plus its modifiers.
type Shape struct {
	Kind Kind
	// Controlled checks the controlled variant: with the control qubit set
	// the operation must act as f, with it clear as the identity.
	Controlled bool
	// Radix, when positive, is passed as a trailing classical argument.
	Radix int
	// OutWidth is the width of the output register of a BinaryOutOfPlace
	// shape when no layout is given; 0 means n.
	OutWidth int
}

// String renders the shape, e.g. "controlled unary-inplace".
func (s Shape) String() string {
	out := s.Kind.String()
	if s.Controlled {
		out = "controlled " + out
	}
	if s.Radix > 0 {
		out = fmt.Sprintf("%s radix %d", out, s.Radix)
	}
	return out
}

// registers returns the default register widths of the shape at width n.
func (s Shape) registers(n int) []int {
	switch s.Kind {
	case UnaryInPlace:
		return []int{n}
	case UnaryPredicate:
		return []int{n, 1}
	case BinaryInPlace:
		return []int{n, n}
	case BinaryInPlaceCarry:
		return []int{n, n, 1}
	case BinaryOutOfPlace:
		out := s.OutWidth
		if out == 0 {
			out = n
		}
		return []int{n, n, out}
	default:
		return []int{n}
	}
}

// fixedRegisters returns the register count the kind requires, 0 when any
// count is allowed.
func (s Shape) fixedRegisters() int {
	switch s.Kind {
	case ReadAll, Returned:
		return 0
	default:
		return len(s.registers(1))
	}
}

// inputs returns how many of the layout registers carry an input value.
func (s Shape) inputs(layout []int) int {
	switch s.Kind {
	case UnaryInPlace, UnaryPredicate:
		return 1
	case BinaryInPlace, BinaryInPlaceCarry, BinaryOutOfPlace:
		return 2
	default:
		return len(layout)
	}
}

// outputs returns how many reference values the shape expects.
func (s Shape) outputs(layout []int) int {
	switch s.Kind {
	case ReadAll:
		return len(layout)
	case Returned:
		return -1
	default:
		return 1
	}
}
