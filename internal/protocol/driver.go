package protocol

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"time"

	"github.com/agbru/qarithcheck/internal/engine"
	apperrors "github.com/agbru/qarithcheck/internal/errors"
	"github.com/agbru/qarithcheck/internal/logging"
	"github.com/agbru/qarithcheck/internal/oracle"
	"github.com/agbru/qarithcheck/internal/reconstruct"
	"github.com/agbru/qarithcheck/internal/superposition"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the driver spans.
const TracerName = "github.com/agbru/qarithcheck/internal/protocol"

// Check kinds, used in span names, logs and observer callbacks.
const (
	KindUnaryInPlace     = "unary_inplace"
	KindBinaryInPlace    = "binary_inplace"
	KindBinaryOutOfPlace = "binary_out_of_place"
)

// Outcome is the result of one superposition check.
type Outcome struct {
	// Inputs are the prepared input distributions, in register order.
	Inputs []superposition.Superposition
	// Expected is the classical function lifted onto Inputs.
	Expected superposition.Superposition
	// Actual is the distribution read back from the engine.
	Actual superposition.Superposition
	// Deviation is the diagnostic of the comparison.
	Deviation superposition.Deviation
}

// Observer is notified after every check. ok is false for mismatches and
// for checks that failed before a comparison could be made.
type Observer interface {
	ObserveCheck(kind string, op engine.OpRef, widths []int, ok bool, elapsed time.Duration)
}

// Driver runs superposition checks on one engine session. A Driver is not
// safe for concurrent use; the session serializes its rounds anyway.
type Driver struct {
	session   *engine.Session
	rng       *rand.Rand
	tolerance float64
	logger    logging.Logger
	tracer    trace.Tracer
	observer  Observer
}

// Option configures a Driver.
type Option func(*Driver)

// WithTolerance sets the absolute tolerance for probability comparison.
func WithTolerance(tol float64) Option {
	return func(d *Driver) { d.tolerance = tol }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithTracer sets the tracer; the default is the global provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(d *Driver) { d.tracer = t }
}

// WithObserver registers an observer for check outcomes.
func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observer = o }
}

// NewDriver returns a Driver over session drawing random inputs from rng.
func NewDriver(session *engine.Session, rng *rand.Rand, opts ...Option) *Driver {
	d := &Driver{
		session:   session,
		rng:       rng,
		tolerance: superposition.DefaultTolerance,
		logger:    logging.Nop(),
		tracer:    otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// UnaryInPlace prepares x in an n-qubit register, applies op to it and
// checks that the register holds f lifted onto x.
func (d *Driver) UnaryInPlace(ctx context.Context, n int, op engine.OpRef, f superposition.UnaryFunc, x superposition.Superposition) (Outcome, error) {
	expected, err := superposition.ApplyUnary(x, f)
	if err != nil {
		return Outcome{}, err
	}
	return d.check(ctx, KindUnaryInPlace, op, []int{n}, []superposition.Superposition{x}, expected)
}

// RandomUnaryInPlace runs UnaryInPlace on a random two-point superposition.
func (d *Driver) RandomUnaryInPlace(ctx context.Context, n int, op engine.OpRef, f superposition.UnaryFunc) (Outcome, error) {
	x, err := d.randomInput(n)
	if err != nil {
		return Outcome{}, err
	}
	return d.UnaryInPlace(ctx, n, op, f, x)
}

// BinaryInPlace prepares x and y in two n-qubit registers, applies op(x, y)
// and checks that the second register holds f lifted onto (x, y).
func (d *Driver) BinaryInPlace(ctx context.Context, n int, op engine.OpRef, f superposition.BinaryFunc, x, y superposition.Superposition) (Outcome, error) {
	expected, err := superposition.ApplyBinary(x, y, f)
	if err != nil {
		return Outcome{}, err
	}
	return d.check(ctx, KindBinaryInPlace, op, []int{n, n}, []superposition.Superposition{x, y}, expected)
}

// RandomBinaryInPlace runs BinaryInPlace on two random two-point
// superpositions.
func (d *Driver) RandomBinaryInPlace(ctx context.Context, n int, op engine.OpRef, f superposition.BinaryFunc) (Outcome, error) {
	x, err := d.randomInput(n)
	if err != nil {
		return Outcome{}, err
	}
	y, err := d.randomInput(n)
	if err != nil {
		return Outcome{}, err
	}
	return d.BinaryInPlace(ctx, n, op, f, x, y)
}

// BinaryOutOfPlace prepares x and y in registers of widths n[0] and n[1],
// allocates a zero output register of width n[2], applies op(x, y, out) and
// checks that the output register holds f lifted onto (x, y).
func (d *Driver) BinaryOutOfPlace(ctx context.Context, n [3]int, op engine.OpRef, f superposition.BinaryFunc, x, y superposition.Superposition) (Outcome, error) {
	expected, err := superposition.ApplyBinary(x, y, f)
	if err != nil {
		return Outcome{}, err
	}
	return d.check(ctx, KindBinaryOutOfPlace, op, n[:], []superposition.Superposition{x, y}, expected)
}

// RandomBinaryOutOfPlace runs BinaryOutOfPlace on two random two-point
// superpositions.
func (d *Driver) RandomBinaryOutOfPlace(ctx context.Context, n [3]int, op engine.OpRef, f superposition.BinaryFunc) (Outcome, error) {
	x, err := d.randomInput(n[0])
	if err != nil {
		return Outcome{}, err
	}
	y, err := d.randomInput(n[1])
	if err != nil {
		return Outcome{}, err
	}
	return d.BinaryOutOfPlace(ctx, n, op, f, x, y)
}

func (d *Driver) randomInput(n int) (superposition.Superposition, error) {
	return superposition.RandomOfTwo(d.rng, big.NewInt(0), oracle.MaxValue(n))
}

// check runs one round: a single Evaluate that allocates a register per width,
// prepares the inputs in the leading registers and applies op, then one
// DumpState. The last register is the output.
func (d *Driver) check(ctx context.Context, kind string, op engine.OpRef, widths []int, inputs []superposition.Superposition, expected superposition.Superposition) (out Outcome, err error) {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "protocol."+kind, trace.WithAttributes(
		attribute.String("op", op.String()),
		attribute.IntSlice("widths", widths),
	))
	defer func() {
		ok := err == nil
		if !ok {
			span.RecordError(err)
			span.SetStatus(codes.Error, "check failed")
		}
		span.End()
		if d.observer != nil {
			d.observer.ObserveCheck(kind, op, widths, ok, time.Since(start))
		}
	}()

	out = Outcome{Inputs: inputs, Expected: expected}
	for i, in := range inputs {
		if hi := in.MaxValue(); hi != nil && hi.BitLen() > widths[i] {
			return out, apperrors.ValidationError{
				Field:   fmt.Sprintf("input %d", i),
				Message: fmt.Sprintf("value %s does not fit %d qubits", hi, widths[i]),
			}
		}
	}

	err = d.session.Round(ctx, func(ctx context.Context, r *engine.Round) error {
		regs := make([]engine.Register, len(widths))
		var prog engine.Program
		for i, w := range widths {
			regs[i] = r.Register(w)
			prog.Add(engine.Allocate{Register: regs[i]})
			if i < len(inputs) {
				prog.Add(prepare(regs[i], inputs[i]))
			}
		}
		args, err := op.Bind(regs...)
		if err != nil {
			return err
		}
		prog.Add(engine.Apply{Op: op, Args: args})

		if _, err := r.Evaluate(ctx, prog); err != nil {
			return err
		}
		dump, err := r.DumpState(ctx)
		if err != nil {
			return err
		}
		window, err := reconstruct.ForRegister(regs, regs[len(regs)-1])
		if err != nil {
			return err
		}
		out.Actual, err = reconstruct.Project(dump, window)
		return err
	})
	if err != nil {
		return out, err
	}

	ok, dev := superposition.Equal(out.Actual, expected, d.tolerance)
	out.Deviation = dev
	span.SetAttributes(attribute.Float64("max_delta", dev.Delta()))
	d.logger.Debug("superposition check",
		logging.String("kind", kind),
		logging.String("op", op.String()),
		logging.Bool("ok", ok),
		logging.String("expected", expected.String()),
		logging.String("actual", out.Actual.String()))
	if !ok {
		return out, apperrors.MismatchError{
			Circuit:       op.String(),
			Widths:        append([]int(nil), widths...),
			Distributions: Render(inputs),
			Expected:      expected.String(),
			Actual:        fmt.Sprintf("%s (%s)", out.Actual, dev),
		}
	}
	return out, nil
}

// Render formats input distributions in register order.
func Render(inputs []superposition.Superposition) []string {
	out := make([]string, len(inputs))
	for i, in := range inputs {
		out[i] = in.String()
	}
	return out
}

// prepare writes s into a fresh register: a basis value becomes an XOR, two
// or more values a superposition preparation.
func prepare(r engine.Register, s superposition.Superposition) engine.Statement {
	amps := s.Amplitudes()
	if len(amps) == 1 {
		return engine.SetInt{Target: r, Value: amps[0].Value}
	}
	terms := make([]engine.Term, len(amps))
	for i, a := range amps {
		terms[i] = engine.Term{Value: a.Value, Amplitude: a.Amplitude}
	}
	return engine.Prepare{Target: r, Terms: terms}
}
