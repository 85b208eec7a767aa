package engine

import (
	"fmt"
	"math/big"
)

// Register is a named, fixed-width qubit register. Index 0 is the least
// significant bit of the value it holds.
type Register struct {
	Name  string
	Width int
}

// OpRef names an engine operation, optionally partially applied. Bound holds
// the operation's arguments in call order; Hole entries are filled by the
// registers supplied when the operation is applied. Without any Hole the
// registers follow the bound arguments.
type OpRef struct {
	Namespace string
	Name      string
	Bound     []Arg
}

// Op returns a reference to namespace.name without bound arguments.
func Op(namespace, name string) OpRef {
	return OpRef{Namespace: namespace, Name: name}
}

// With returns a copy of o with additional bound arguments.
func (o OpRef) With(args ...Arg) OpRef {
	bound := make([]Arg, 0, len(o.Bound)+len(args))
	bound = append(bound, o.Bound...)
	bound = append(bound, args...)
	return OpRef{Namespace: o.Namespace, Name: o.Name, Bound: bound}
}

// FullName returns the namespace-qualified operation name.
func (o OpRef) FullName() string {
	if o.Namespace == "" {
		return o.Name
	}
	return o.Namespace + "." + o.Name
}

// String renders the reference with its bound arguments, e.g.
// "Std.AddConstant(5, _)".
func (o OpRef) String() string {
	if len(o.Bound) == 0 {
		return o.FullName()
	}
	s := o.FullName() + "("
	for i, a := range o.Bound {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

// Resolve replaces every Param placeholder with the matching value of params.
func (o OpRef) Resolve(params []*big.Int) (OpRef, error) {
	out := OpRef{Namespace: o.Namespace, Name: o.Name, Bound: make([]Arg, len(o.Bound))}
	for i, a := range o.Bound {
		if a.Kind != ArgParam {
			out.Bound[i] = a
			continue
		}
		if a.Param < 0 || a.Param >= len(params) {
			return OpRef{}, fmt.Errorf("operation %s references parameter %d, have %d", o.FullName(), a.Param, len(params))
		}
		if a.Bool {
			out.Bound[i] = Bool(params[a.Param].Sign() != 0)
			continue
		}
		out.Bound[i] = Int(params[a.Param])
	}
	return out, nil
}

// Params returns the number of parameters o references, i.e. one more than
// the highest Param index.
func (o OpRef) Params() int {
	n := 0
	for _, a := range o.Bound {
		if a.Kind == ArgParam && a.Param+1 > n {
			n = a.Param + 1
		}
	}
	return n
}

// Bind fills the holes of o with regs and returns the complete argument list.
// It fails when the number of registers does not match the number of holes.
func (o OpRef) Bind(regs ...Register) ([]Arg, error) {
	holes := 0
	for _, a := range o.Bound {
		if a.Kind == ArgHole {
			holes++
		}
	}
	if holes == 0 {
		args := make([]Arg, 0, len(o.Bound)+len(regs))
		args = append(args, o.Bound...)
		for _, r := range regs {
			args = append(args, Reg(r))
		}
		return args, nil
	}
	if holes != len(regs) {
		return nil, fmt.Errorf("operation %s has %d holes, got %d registers", o.FullName(), holes, len(regs))
	}
	args := make([]Arg, len(o.Bound))
	next := 0
	for i, a := range o.Bound {
		if a.Kind == ArgHole {
			args[i] = Reg(regs[next])
			next++
			continue
		}
		args[i] = a
	}
	return args, nil
}

// ArgKind discriminates Arg.
type ArgKind int

// Argument kinds.
const (
	ArgRegister ArgKind = iota
	ArgInt
	ArgBool
	ArgHole
	ArgParam
)

// Arg is one operation argument: a register, a classical integer, a boolean,
// a hole to be filled by Bind, or a parameter placeholder filled by Resolve.
type Arg struct {
	Kind     ArgKind
	Register Register
	Int      *big.Int
	Bool     bool
	// Param is the parameter index of an ArgParam. Bool marks a parameter
	// that resolves to a boolean.
	Param int
}

// Reg wraps a register argument.
func Reg(r Register) Arg { return Arg{Kind: ArgRegister, Register: r} }

// Int wraps a classical integer argument.
func Int(v *big.Int) Arg { return Arg{Kind: ArgInt, Int: new(big.Int).Set(v)} }

// Bool wraps a classical boolean argument.
func Bool(b bool) Arg { return Arg{Kind: ArgBool, Bool: b} }

// Hole is a placeholder filled by Bind.
func Hole() Arg { return Arg{Kind: ArgHole} }

// Param is a placeholder for the i-th classical parameter of a case, filled
// by Resolve.
func Param(i int) Arg { return Arg{Kind: ArgParam, Param: i} }

// ParamBool is like Param but resolves to a boolean that is true when the
// parameter is non-zero.
func ParamBool(i int) Arg { return Arg{Kind: ArgParam, Param: i, Bool: true} }

// String renders the argument for diagnostics.
func (a Arg) String() string {
	switch a.Kind {
	case ArgRegister:
		return a.Register.Name
	case ArgInt:
		return a.Int.String()
	case ArgBool:
		if a.Bool {
			return "true"
		}
		return "false"
	case ArgParam:
		if a.Bool {
			return fmt.Sprintf("$%d?", a.Param)
		}
		return fmt.Sprintf("$%d", a.Param)
	default:
		return "_"
	}
}

// Statement is one step of a Program. The set of statements is closed.
type Statement interface {
	statement()
}

// Allocate allocates a fresh register in the all-zero state.
type Allocate struct {
	Register Register
}

// SetInt XORs a basis value into a register, which sets it when the register
// is freshly allocated.
type SetInt struct {
	Target Register
	Value  *big.Int
}

// Term is one component of a prepared superposition.
type Term struct {
	Value     *big.Int
	Amplitude float64
}

// Prepare puts a freshly allocated register into sum_i Amplitude_i |Value_i>.
// One or two terms are supported; a single term is a basis value.
type Prepare struct {
	Target Register
	Terms  []Term
}

// Apply invokes an operation with the given arguments. With Controls set, the
// controlled variant is invoked with those registers as the control qubits.
type Apply struct {
	Op       OpRef
	Args     []Arg
	Controls []Register
}

// Measure reads a register in the computational basis and appends the value
// to the Result outputs.
type Measure struct {
	Target Register
}

// Call invokes a routine that returns classical values and appends its
// return value to the Result outputs.
type Call struct {
	Op   OpRef
	Args []Arg
}

func (Allocate) statement() {}
func (SetInt) statement()   {}
func (Prepare) statement()  {}
func (Apply) statement()    {}
func (Measure) statement()  {}
func (Call) statement()     {}

// Program is an ordered list of statements evaluated in a single engine call.
type Program struct {
	Statements []Statement
}

// Add appends statements and returns the program for chaining.
func (p *Program) Add(stmts ...Statement) *Program {
	p.Statements = append(p.Statements, stmts...)
	return p
}

// Registers returns the registers allocated by the program, in order.
func (p Program) Registers() []Register {
	var out []Register
	for _, s := range p.Statements {
		if a, ok := s.(Allocate); ok {
			out = append(out, a.Register)
		}
	}
	return out
}
