package engine

import (
	"fmt"
	"math/big"
	"strings"
)

// Kind discriminates Value.
type Kind int

// Value kinds.
const (
	KindInt Kind = iota
	KindBool
	KindTuple
	KindArray
)

// Value is a classical value returned by the engine: an integer, a boolean,
// or a tuple or array of values.
type Value struct {
	Kind  Kind
	Int   *big.Int
	Bool  bool
	Items []Value
}

// IntValue wraps an integer.
func IntValue(v *big.Int) Value { return Value{Kind: KindInt, Int: new(big.Int).Set(v)} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// TupleValue wraps a tuple.
func TupleValue(items ...Value) Value { return Value{Kind: KindTuple, Items: items} }

// ArrayValue wraps an array.
func ArrayValue(items ...Value) Value { return Value{Kind: KindArray, Items: items} }

// Ints flattens v depth-first into integers. Booleans become 0 or 1.
func (v Value) Ints() []*big.Int {
	switch v.Kind {
	case KindInt:
		return []*big.Int{new(big.Int).Set(v.Int)}
	case KindBool:
		if v.Bool {
			return []*big.Int{big.NewInt(1)}
		}
		return []*big.Int{big.NewInt(0)}
	default:
		var out []*big.Int
		for _, it := range v.Items {
			out = append(out, it.Ints()...)
		}
		return out
	}
}

// String renders v in engine-neutral notation: 5, true, (1, 2), [3, 4].
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return v.Int.String()
	case KindBool:
		return fmt.Sprint(v.Bool)
	}
	parts := make([]string, len(v.Items))
	for i, it := range v.Items {
		parts[i] = it.String()
	}
	if v.Kind == KindArray {
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Result holds the classical outputs of one Evaluate call, one Value per
// Measure or Call statement, in program order.
type Result struct {
	Outputs []Value
}

// Ints flattens all outputs into integers.
func (r Result) Ints() []*big.Int {
	var out []*big.Int
	for _, v := range r.Outputs {
		out = append(out, v.Ints()...)
	}
	return out
}
