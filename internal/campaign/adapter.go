package campaign

import (
	"fmt"
	"math/big"

	"github.com/agbru/qarithcheck/internal/engine"
)

// Plan variants of controlled shapes.
const (
	VariantControlActive = "control-active"
	VariantControlIdle   = "control-idle"
)

// Case is one fully specified input of a circuit.
type Case struct {
	// N is the sweep width.
	N int
	// Layout are the register widths at N.
	Layout []int
	// Params are the classical parameters bound into the operation.
	Params []*big.Int
	// Inputs are the initial values of the input registers.
	Inputs []*big.Int
}

// Args returns the parameters followed by the inputs.
func (c Case) Args() []*big.Int {
	out := make([]*big.Int, 0, len(c.Params)+len(c.Inputs))
	out = append(out, c.Params...)
	return append(out, c.Inputs...)
}

// Plan is one engine program for a case with its decoder and the decoded
// values a correct operation produces.
type Plan struct {
	// Variant distinguishes the two plans of a controlled shape.
	Variant string
	// Widths are the widths of the registers the program allocates, in
	// order. The caller names them.
	Widths []int
	// Expected is the decoded result of a correct operation.
	Expected []*big.Int

	build  func(regs []engine.Register) (engine.Program, error)
	decode func(res engine.Result) ([]*big.Int, error)
}

// Program builds the engine program over regs, which must match Widths.
func (p Plan) Program(regs []engine.Register) (engine.Program, error) {
	if len(regs) != len(p.Widths) {
		return engine.Program{}, fmt.Errorf("plan needs %d registers, got %d", len(p.Widths), len(regs))
	}
	return p.build(regs)
}

// Decode maps the engine result to the values compared with Expected.
func (p Plan) Decode(res engine.Result) ([]*big.Int, error) {
	return p.decode(res)
}

// Adapter turns a shape, an operation and a case into engine plans.
type Adapter struct{}

// Plan builds the plans of one case. values is the reference output. A
// controlled shape yields two plans: control set, expecting values, and
// control clear, expecting the inputs unchanged.
func (Adapter) Plan(shape Shape, op engine.OpRef, cs Case, values []*big.Int) ([]Plan, error) {
	resolved, err := op.Resolve(cs.Params)
	if err != nil {
		return nil, err
	}
	if shape.Kind == Returned {
		return []Plan{returnedPlan(resolved, cs, values)}, nil
	}
	if want := shape.outputs(cs.Layout); len(values) != want {
		return nil, fmt.Errorf("reference returned %d values, %s expects %d", len(values), shape, want)
	}
	if want := shape.inputs(cs.Layout); len(cs.Inputs) != want {
		return nil, fmt.Errorf("case has %d inputs, %s expects %d", len(cs.Inputs), shape, want)
	}
	for i, in := range cs.Inputs {
		if in.Sign() < 0 || in.BitLen() > cs.Layout[i] {
			return nil, fmt.Errorf("input %d = %s does not fit %d qubits", i, in, cs.Layout[i])
		}
	}

	bound := shape.operation(resolved, len(cs.Layout))
	if !shape.Controlled {
		return []Plan{registerPlan(shape, bound, cs, values, "")}, nil
	}
	return []Plan{
		registerPlan(shape, bound, cs, values, VariantControlActive),
		registerPlan(shape, bound, cs, values, VariantControlIdle),
	}, nil
}

// operation appends the radix argument of radix shapes. Registers fill the
// existing holes, or are inserted before the radix when op has none.
func (s Shape) operation(op engine.OpRef, registers int) engine.OpRef {
	if s.Radix <= 0 {
		return op
	}
	radix := engine.Int(big.NewInt(int64(s.Radix)))
	for _, a := range op.Bound {
		if a.Kind == engine.ArgHole {
			return op.With(radix)
		}
	}
	args := make([]engine.Arg, 0, registers+1)
	for i := 0; i < registers; i++ {
		args = append(args, engine.Hole())
	}
	return op.With(append(args, radix)...)
}

func registerPlan(shape Shape, op engine.OpRef, cs Case, values []*big.Int, variant string) Plan {
	controlled := variant != ""
	active := variant != VariantControlIdle

	widths := append([]int(nil), cs.Layout...)
	if controlled {
		widths = append([]int{1}, widths...)
	}

	build := func(regs []engine.Register) (engine.Program, error) {
		var prog engine.Program
		var controls []engine.Register
		work := regs
		if controlled {
			ctl := regs[0]
			work = regs[1:]
			controls = []engine.Register{ctl}
			prog.Add(engine.Allocate{Register: ctl})
			if active {
				prog.Add(engine.SetInt{Target: ctl, Value: big.NewInt(1)})
			}
		}
		for i, r := range work {
			prog.Add(engine.Allocate{Register: r})
			if i < len(cs.Inputs) && cs.Inputs[i].Sign() != 0 {
				prog.Add(engine.SetInt{Target: r, Value: cs.Inputs[i]})
			}
		}
		args, err := op.Bind(work...)
		if err != nil {
			return engine.Program{}, err
		}
		prog.Add(engine.Apply{Op: op, Args: args, Controls: controls})
		for _, r := range regs {
			prog.Add(engine.Measure{Target: r})
		}
		return prog, nil
	}

	decode := func(res engine.Result) ([]*big.Int, error) {
		ints := res.Ints()
		if len(ints) != len(widths) {
			return nil, fmt.Errorf("expected %d measured registers, got %d", len(widths), len(ints))
		}
		if shape.Kind != BinaryInPlaceCarry {
			return ints, nil
		}
		// Fold the carry qubit into the sum: y + carry*2^n.
		k := len(ints)
		sum := new(big.Int).Lsh(ints[k-1], uint(cs.Layout[1]))
		sum.Add(sum, ints[k-2])
		return append(ints[:k-2], sum), nil
	}

	return Plan{
		Variant:  variant,
		Widths:   widths,
		Expected: expectedValues(shape, cs, values, controlled, active),
		build:    build,
		decode:   decode,
	}
}

func expectedValues(shape Shape, cs Case, values []*big.Int, controlled, active bool) []*big.Int {
	var out []*big.Int
	if controlled {
		ctl := int64(0)
		if active {
			ctl = 1
		}
		out = append(out, big.NewInt(ctl))
	}
	in := cloneInts(cs.Inputs)
	zero := big.NewInt(0)
	switch shape.Kind {
	case UnaryInPlace:
		if active {
			return append(out, values[0])
		}
		return append(out, in[0])
	case UnaryPredicate:
		if active {
			return append(out, in[0], new(big.Int).And(values[0], big.NewInt(1)))
		}
		return append(out, in[0], zero)
	case BinaryInPlace, BinaryInPlaceCarry:
		if active {
			return append(out, in[0], values[0])
		}
		return append(out, in[0], in[1])
	case BinaryOutOfPlace:
		if active {
			return append(out, in[0], in[1], values[0])
		}
		return append(out, in[0], in[1], zero)
	default:
		if active {
			return append(out, cloneInts(values)...)
		}
		return append(out, in...)
	}
}

func returnedPlan(op engine.OpRef, cs Case, values []*big.Int) Plan {
	return Plan{
		Expected: cloneInts(values),
		build: func([]engine.Register) (engine.Program, error) {
			args := []engine.Arg{engine.Int(big.NewInt(int64(cs.N)))}
			for _, in := range cs.Inputs {
				args = append(args, engine.Int(in))
			}
			var prog engine.Program
			prog.Add(engine.Call{Op: op, Args: args})
			return prog, nil
		},
		decode: func(res engine.Result) ([]*big.Int, error) {
			return res.Ints(), nil
		},
	}
}
