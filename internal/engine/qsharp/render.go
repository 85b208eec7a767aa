// Package qsharp renders engine programs as Q# source text.
//
// The rendering follows the conventions of a Q# interactive session:
// registers are allocated with top-level "use" statements, classical
// values are written with ApplyXorInPlaceL, superpositions are prepared and
// registers measured through helper operations of a configurable namespace,
// and the values produced by measurements and routine calls form the final
// expression of the snippet.
package qsharp

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/agbru/qarithcheck/internal/engine"
)

// DefaultHelpers is the namespace of the helper operations
// PrepareSuperposition, PrepareState and MeasureBigInt.
const DefaultHelpers = "TestUtils"

// Snippet is a rendered program.
type Snippet struct {
	// Code is the Q# source.
	Code string
	// Outputs is the number of values the final expression evaluates to:
	// one per Measure and Call statement.
	Outputs int
	// Registers are the registers the snippet allocates, in order.
	Registers []engine.Register
}

// Renderer turns programs into Q# text.
type Renderer struct {
	helpers string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithHelpers sets the namespace of the helper operations.
func WithHelpers(ns string) Option {
	return func(r *Renderer) { r.helpers = ns }
}

// NewRenderer returns a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{helpers: DefaultHelpers}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders p with the default helpers namespace.
func Render(p engine.Program) (Snippet, error) {
	return NewRenderer().Render(p)
}

// Render renders p. It fails on values Q# cannot represent in a register
// (negative integers written to qubits) and on unresolved arguments.
func (r *Renderer) Render(p engine.Program) (Snippet, error) {
	var b strings.Builder
	var outputs []string
	snip := Snippet{}
	for i, st := range p.Statements {
		line, out, err := r.statement(st, len(outputs))
		if err != nil {
			return Snippet{}, fmt.Errorf("statement %d: %w", i, err)
		}
		b.WriteString(line)
		b.WriteByte('\n')
		if out != "" {
			outputs = append(outputs, out)
		}
		if a, ok := st.(engine.Allocate); ok {
			snip.Registers = append(snip.Registers, a.Register)
		}
	}
	switch len(outputs) {
	case 0:
	case 1:
		b.WriteString(outputs[0])
		b.WriteByte('\n')
	default:
		b.WriteString("(" + strings.Join(outputs, ", ") + ")\n")
	}
	snip.Code = b.String()
	snip.Outputs = len(outputs)
	return snip, nil
}

// Release renders the statement returning regs to the zero state.
func Release(regs []engine.Register) string {
	if len(regs) == 0 {
		return ""
	}
	return "ResetAll(" + joinRegisters(regs) + ");"
}

func (r *Renderer) statement(st engine.Statement, k int) (line, output string, err error) {
	switch st := st.(type) {
	case engine.Allocate:
		if st.Register.Width < 1 {
			return "", "", fmt.Errorf("register %q has width %d", st.Register.Name, st.Register.Width)
		}
		return fmt.Sprintf("use %s = Qubit[%d];", st.Register.Name, st.Register.Width), "", nil
	case engine.SetInt:
		if st.Value.Sign() < 0 {
			return "", "", fmt.Errorf("cannot write negative value %s to %q", st.Value, st.Target.Name)
		}
		return fmt.Sprintf("ApplyXorInPlaceL(%s, %s);", bigLiteral(st.Value), st.Target.Name), "", nil
	case engine.Prepare:
		return r.prepare(st)
	case engine.Apply:
		args, err := arguments(st.Args)
		if err != nil {
			return "", "", err
		}
		if len(st.Controls) == 0 {
			return fmt.Sprintf("%s(%s);", st.Op.FullName(), args), "", nil
		}
		return fmt.Sprintf("Controlled %s(%s, (%s));", st.Op.FullName(), joinRegisters(st.Controls), args), "", nil
	case engine.Measure:
		name := fmt.Sprintf("r%d", k)
		return fmt.Sprintf("let %s = %s.MeasureBigInt(%s);", name, r.helpers, st.Target.Name), name, nil
	case engine.Call:
		args, err := arguments(st.Args)
		if err != nil {
			return "", "", err
		}
		name := fmt.Sprintf("r%d", k)
		return fmt.Sprintf("let %s = %s(%s);", name, st.Op.FullName(), args), name, nil
	default:
		return "", "", fmt.Errorf("unsupported statement %T", st)
	}
}

func (r *Renderer) prepare(st engine.Prepare) (string, string, error) {
	for _, t := range st.Terms {
		if t.Value.Sign() < 0 {
			return "", "", fmt.Errorf("cannot prepare negative value %s in %q", t.Value, st.Target.Name)
		}
	}
	switch len(st.Terms) {
	case 0:
		return "", "", fmt.Errorf("empty preparation of %q", st.Target.Name)
	case 1:
		return fmt.Sprintf("ApplyXorInPlaceL(%s, %s);", bigLiteral(st.Terms[0].Value), st.Target.Name), "", nil
	case 2:
		a, b := st.Terms[0], st.Terms[1]
		return fmt.Sprintf("%s.PrepareSuperposition(%s, %s, %s, %s, %s);", r.helpers, st.Target.Name,
			double(a.Amplitude), bigLiteral(a.Value), double(b.Amplitude), bigLiteral(b.Value)), "", nil
	default:
		amps := make([]string, len(st.Terms))
		vals := make([]string, len(st.Terms))
		for i, t := range st.Terms {
			amps[i] = double(t.Amplitude)
			vals[i] = bigLiteral(t.Value)
		}
		return fmt.Sprintf("%s.PrepareState(%s, [%s], [%s]);", r.helpers, st.Target.Name,
			strings.Join(amps, ", "), strings.Join(vals, ", ")), "", nil
	}
}

func arguments(args []engine.Arg) (string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		switch a.Kind {
		case engine.ArgRegister:
			parts[i] = a.Register.Name
		case engine.ArgInt:
			parts[i] = intLiteral(a.Int)
		case engine.ArgBool:
			parts[i] = strconv.FormatBool(a.Bool)
		default:
			return "", fmt.Errorf("unresolved argument %s", a)
		}
	}
	return strings.Join(parts, ", "), nil
}

func joinRegisters(regs []engine.Register) string {
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = r.Name
	}
	return strings.Join(names, " + ")
}

// intLiteral renders a classical argument as a Q# Int when it fits in 64
// bits and as a BigInt otherwise.
func intLiteral(v *big.Int) string {
	if v.IsInt64() {
		return v.String()
	}
	return bigLiteral(v)
}

func bigLiteral(v *big.Int) string { return v.String() + "L" }

// double renders a Q# Double literal, which always needs a decimal point.
func double(x float64) string {
	s := strconv.FormatFloat(x, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
