package campaign

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/agbru/qarithcheck/internal/engine"
	apperrors "github.com/agbru/qarithcheck/internal/errors"
	"github.com/agbru/qarithcheck/internal/oracle"
)

// Range returns the closed interval of admissible values of one argument at
// sweep width n.
type Range func(n int) (low, high *big.Int)

// Span is the constant range [low, high].
func Span(low, high int64) Range {
	return func(int) (*big.Int, *big.Int) { return big.NewInt(low), big.NewInt(high) }
}

// Bits is the range of an unsigned integer of width(n) bits.
func Bits(width func(n int) int) Range {
	return func(n int) (*big.Int, *big.Int) { return big.NewInt(0), oracle.MaxValue(width(n)) }
}

// Zero is the range holding only 0, for registers that must start clear.
func Zero() Range { return Span(0, 0) }

// Reference computes the classical result of a case. args are the classical
// parameters followed by the register inputs. The returned values depend on
// the shape: one value f for the unary and binary kinds (a predicate returns
// 0 or 1), every register value for ReadAll, and the routine's return values
// for Returned.
type Reference func(n int, args []*big.Int) ([]*big.Int, error)

// Filter rejects argument combinations outside the circuit's domain.
type Filter func(n int, args []*big.Int) bool

// Sampler draws random arguments (parameters then inputs) for one case at
// width n. It replaces uniform sampling over Params and Bounds.
type Sampler func(r *rand.Rand, n int) ([]*big.Int, error)

// Circuit declares one operation under test.
type Circuit struct {
	// Name identifies the campaign in registries, reports and seeds.
	Name string
	// Description is a one-line summary for listings.
	Description string
	// Op is the engine operation. Param placeholders are filled with the
	// case parameters; holes with the layout registers.
	Op engine.OpRef
	// Shape is the calling convention.
	Shape Shape
	// Reference is the classical function the operation must match.
	Reference Reference
	// Widths are the sweep widths n.
	Widths []int
	// ExhaustiveWidths, when set, lists the widths enumerated exhaustively
	// instead of the strategy thresholds.
	ExhaustiveWidths []int
	// Layout maps n to register widths. The default follows the shape.
	Layout func(n int) []int
	// Params are the ranges of the classical parameters, one per Param
	// placeholder of Op.
	Params []Range
	// Bounds restrict the register inputs, one entry per input; a missing
	// or nil entry means the full register range.
	Bounds []Range
	// Filter rejects argument combinations.
	Filter Filter
	// Sampler overrides uniform sampling in the random regime.
	Sampler Sampler
	// Superposition lists the widths at which the superposition protocol
	// runs as well. Only in-place and out-of-place kinds support it.
	Superposition []int
	// Samples overrides the strategy sample count.
	Samples int
}

// layout returns the register widths at n.
func (c Circuit) layout(n int) []int {
	if c.Layout != nil {
		return c.Layout(n)
	}
	return c.Shape.registers(n)
}

// ranges returns one range per argument at n: parameters, then inputs.
func (c Circuit) ranges(n int) ([]*big.Int, []*big.Int) {
	layout := c.layout(n)
	inputs := c.Shape.inputs(layout)
	lows := make([]*big.Int, 0, len(c.Params)+inputs)
	highs := make([]*big.Int, 0, len(c.Params)+inputs)
	for _, p := range c.Params {
		lo, hi := p(n)
		lows, highs = append(lows, lo), append(highs, hi)
	}
	for i := 0; i < inputs; i++ {
		var lo, hi *big.Int
		if i < len(c.Bounds) && c.Bounds[i] != nil {
			lo, hi = c.Bounds[i](n)
		} else {
			lo, hi = big.NewInt(0), oracle.MaxValue(layout[i])
		}
		lows, highs = append(lows, lo), append(highs, hi)
	}
	return lows, highs
}

// Validate checks that the declaration is consistent.
func (c Circuit) Validate() error {
	invalid := func(field, format string, a ...any) error {
		return apperrors.ValidationError{Field: field, Message: fmt.Sprintf("%s: %s", c.Name, fmt.Sprintf(format, a...))}
	}
	switch {
	case c.Name == "":
		return apperrors.ValidationError{Field: "name", Message: "circuit has no name"}
	case c.Op.Name == "":
		return invalid("op", "no operation")
	case c.Reference == nil:
		return invalid("reference", "no reference function")
	case len(c.Widths) == 0:
		return invalid("widths", "no widths to sweep")
	case c.Op.Params() != len(c.Params):
		return invalid("params", "operation references %d parameters, %d ranges declared", c.Op.Params(), len(c.Params))
	case c.Shape.Kind == Returned && c.Shape.Controlled:
		return invalid("shape", "a returning routine cannot be controlled")
	case c.Shape.Radix > 0 && c.Shape.Kind != BinaryInPlace:
		return invalid("shape", "radix is only supported for binary in-place operations")
	case c.Shape.Kind == ReadAll && c.Layout == nil:
		return invalid("layout", "read-all shapes need an explicit layout")
	}

	for _, n := range c.Widths {
		if n < 1 {
			return invalid("widths", "width %d is not positive", n)
		}
		layout := c.layout(n)
		if fixed := c.Shape.fixedRegisters(); fixed > 0 && len(layout) != fixed {
			return invalid("layout", "width %d: %s needs %d registers, layout has %d", n, c.Shape, fixed, len(layout))
		}
		if len(layout) == 0 {
			return invalid("layout", "width %d: empty layout", n)
		}
		for _, w := range layout {
			if w < 1 {
				return invalid("layout", "width %d: register width %d is not positive", n, w)
			}
		}
		lows, highs := c.ranges(n)
		for i := range lows {
			if highs[i].Cmp(lows[i]) < 0 {
				return invalid("bounds", "width %d: argument %d has empty range [%s, %s]", n, i, lows[i], highs[i])
			}
		}
	}
	for _, n := range c.Superposition {
		switch c.Shape.Kind {
		case UnaryInPlace, BinaryInPlace:
		case BinaryOutOfPlace:
			if len(c.layout(n)) != 3 {
				return invalid("superposition", "out-of-place superposition checks need three registers")
			}
		default:
			return invalid("superposition", "%s does not support superposition checks", c.Shape)
		}
		if c.Shape.Kind == BinaryInPlace {
			if l := c.layout(n); l[0] != l[1] {
				return invalid("superposition", "in-place superposition checks need equal widths, got %v", l)
			}
		}
	}
	return nil
}
