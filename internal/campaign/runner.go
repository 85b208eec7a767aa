package campaign

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/agbru/qarithcheck/internal/engine"
	apperrors "github.com/agbru/qarithcheck/internal/errors"
	"github.com/agbru/qarithcheck/internal/logging"
	"github.com/agbru/qarithcheck/internal/protocol"
	"github.com/agbru/qarithcheck/internal/seed"
	"github.com/agbru/qarithcheck/internal/superposition"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the runner spans.
const TracerName = "github.com/agbru/qarithcheck/internal/campaign"

// Failure is one failed case, with everything needed to reproduce it.
type Failure struct {
	Circuit string
	// Regime is the regime that produced the case, suffixed with the plan
	// variant for controlled shapes ("random/control-idle").
	Regime string
	// Widths are the register widths of the case.
	Widths []int
	// Inputs are the case arguments, parameters first. Superposition checks
	// carry only their sampled parameters here.
	Inputs []*big.Int
	// Distributions are the prepared input superpositions of a
	// superposition check, in register order.
	Distributions []string
	Expected      string
	Actual        string
	// Seed replays a random or superposition case through seed.Replay; 0
	// for exhaustive cases.
	Seed int64
	// Err is the underlying error: a MismatchError, a
	// MalformedSuperpositionError or an engine failure.
	Err error
}

// Error implements error.
func (f Failure) Error() string {
	return fmt.Sprintf("%s [%s] widths %v: %v", f.Circuit, f.Regime, f.Widths, f.Err)
}

// Unwrap returns the underlying error.
func (f Failure) Unwrap() error { return f.Err }

// WidthStats summarizes one regime at one sweep width.
type WidthStats struct {
	N        int
	Regime   string
	Cases    int
	Passed   int
	Duration time.Duration
}

// Report is the outcome of one campaign.
type Report struct {
	Circuit  string
	Cases    int
	Passed   int
	Failures []Failure
	Widths   []WidthStats
	Duration time.Duration
	// Err is set when the campaign could not run to completion: an invalid
	// declaration or a canceled context.
	Err error
}

// OK reports whether every case passed and the campaign completed.
func (r Report) OK() bool { return r.Err == nil && len(r.Failures) == 0 }

// FirstError returns Err, or the first failure, or nil.
func (r Report) FirstError() error {
	if r.Err != nil {
		return r.Err
	}
	if len(r.Failures) > 0 {
		return r.Failures[0]
	}
	return nil
}

// Observer is notified after every case.
type Observer interface {
	ObserveCase(circuit, regime string, n int, ok bool, elapsed time.Duration)
}

// Runner executes campaigns on one engine session.
type Runner struct {
	session   *engine.Session
	strategy  Strategy
	master    int64
	tolerance float64
	logger    logging.Logger
	tracer    trace.Tracer
	observer  Observer
	checks    protocol.Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithStrategy sets the case selection thresholds.
func WithStrategy(s Strategy) Option {
	return func(r *Runner) { r.strategy = s }
}

// WithSeed sets the master seed from which every case seed is derived.
func WithSeed(master int64) Option {
	return func(r *Runner) { r.master = master }
}

// WithTolerance sets the tolerance of superposition checks.
func WithTolerance(tol float64) Option {
	return func(r *Runner) { r.tolerance = tol }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// WithObserver registers a case observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithCheckObserver registers an observer for superposition checks.
func WithCheckObserver(o protocol.Observer) Option {
	return func(r *Runner) { r.checks = o }
}

// NewRunner returns a Runner over session.
func NewRunner(session *engine.Session, opts ...Option) *Runner {
	r := &Runner{
		session:   session,
		strategy:  DefaultStrategy(),
		tolerance: superposition.DefaultTolerance,
		logger:    logging.Nop(),
		tracer:    otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Planned returns the number of cases Run is expected to execute for c.
func (r *Runner) Planned(c Circuit) int { return r.strategy.Planned(c) }

// Run executes every width of c. A failing case never stops the campaign;
// only an invalid declaration or a canceled context does.
func (r *Runner) Run(ctx context.Context, c Circuit) (rep Report) {
	start := time.Now()
	rep.Circuit = c.Name
	ctx, span := r.tracer.Start(ctx, "campaign.Run", trace.WithAttributes(
		attribute.String("circuit", c.Name),
		attribute.String("shape", c.Shape.String()),
	))
	defer func() {
		rep.Duration = time.Since(start)
		span.SetAttributes(attribute.Int("cases", rep.Cases), attribute.Int("failures", len(rep.Failures)))
		if !rep.OK() {
			if err := rep.FirstError(); err != nil {
				span.RecordError(err)
			}
			span.SetStatus(codes.Error, "campaign failed")
		}
		span.End()
	}()

	if err := c.Validate(); err != nil {
		rep.Err = err
		return rep
	}

	for _, n := range c.Widths {
		if err := ctx.Err(); err != nil {
			rep.Err = err
			return rep
		}
		regime := RegimeRandom
		if r.strategy.Exhaustive(c, n) {
			regime = RegimeExhaustive
		}
		r.width(ctx, c, n, regime, &rep)
		if slices.Contains(c.Superposition, n) {
			r.width(ctx, c, n, RegimeSuperposition, &rep)
		}
	}
	if err := ctx.Err(); err != nil {
		rep.Err = err
	}
	r.logger.Info("campaign finished",
		logging.String("circuit", c.Name),
		logging.Int("cases", rep.Cases),
		logging.Int("failures", len(rep.Failures)),
		logging.Float64("seconds", time.Since(start).Seconds()))
	return rep
}

// tally accumulates the cases of one width.
type tally struct {
	rep   *Report
	stats WidthStats
}

func (t *tally) record(ok bool) {
	t.rep.Cases++
	t.stats.Cases++
	if ok {
		t.rep.Passed++
		t.stats.Passed++
	}
}

func (r *Runner) width(ctx context.Context, c Circuit, n int, regime string, rep *Report) {
	start := time.Now()
	t := &tally{rep: rep, stats: WidthStats{N: n, Regime: regime}}
	switch regime {
	case RegimeExhaustive:
		r.exhaustive(ctx, c, n, t)
	case RegimeRandom:
		r.random(ctx, c, n, t)
	case RegimeSuperposition:
		r.superposition(ctx, c, n, t)
	}
	t.stats.Duration = time.Since(start)
	rep.Widths = append(rep.Widths, t.stats)
	r.logger.Debug("width done",
		logging.String("circuit", c.Name),
		logging.Int("n", n),
		logging.String("regime", regime),
		logging.Int("cases", t.stats.Cases),
		logging.Int("passed", t.stats.Passed))
}

func (r *Runner) exhaustive(ctx context.Context, c Circuit, n int, t *tally) {
	lows, highs := c.ranges(n)
	enumerate(lows, highs, func(args []*big.Int) bool {
		if c.Filter == nil || c.Filter(n, args) {
			r.runCase(ctx, c, n, RegimeExhaustive, cloneInts(args), 0, t)
		}
		return ctx.Err() == nil
	})
}

func (r *Runner) random(ctx context.Context, c Circuit, n int, t *tally) {
	for i := 0; i < r.strategy.samples(c) && ctx.Err() == nil; i++ {
		s := seed.Derive(r.master, c.Name, n, i)
		args, err := r.draw(c, n, seed.Replay(s))
		if err != nil {
			r.fail(c, n, t, Failure{Regime: RegimeRandom, Widths: c.layout(n), Seed: s, Err: err})
			continue
		}
		r.runCase(ctx, c, n, RegimeRandom, args, s, t)
	}
}

// draw returns one admissible random argument tuple.
func (r *Runner) draw(c Circuit, n int, rng *rand.Rand) ([]*big.Int, error) {
	lows, highs := c.ranges(n)
	attempts := r.strategy.FilterAttempts
	if attempts <= 0 {
		attempts = DefaultFilterAttempts
	}
	for i := 0; i < attempts; i++ {
		var args []*big.Int
		var err error
		if c.Sampler != nil {
			args, err = c.Sampler(rng, n)
		} else {
			args, err = sample(rng, lows, highs)
		}
		if err != nil {
			return nil, err
		}
		if c.Filter == nil || c.Filter(n, args) {
			return args, nil
		}
	}
	return nil, fmt.Errorf("no admissible arguments after %d draws", attempts)
}

func (r *Runner) runCase(ctx context.Context, c Circuit, n int, regime string, args []*big.Int, s int64, t *tally) {
	layout := c.layout(n)
	cs := Case{N: n, Layout: layout, Params: args[:len(c.Params)], Inputs: args[len(c.Params):]}
	base := Failure{Regime: regime, Widths: layout, Inputs: args, Seed: s}

	values, err := c.Reference(n, args)
	if err != nil {
		base.Err = apperrors.WrapError(err, "reference")
		r.fail(c, n, t, base)
		return
	}
	plans, err := Adapter{}.Plan(c.Shape, c.Op, cs, values)
	if err != nil {
		base.Err = err
		r.fail(c, n, t, base)
		return
	}

	for _, p := range plans {
		start := time.Now()
		label := regime
		if p.Variant != "" {
			label += "/" + p.Variant
		}
		actual, err := r.execute(ctx, p)
		if apperrors.IsContextError(err) && ctx.Err() != nil {
			return
		}
		f := base
		f.Regime = label
		f.Expected = apperrors.JoinInts(p.Expected)
		switch {
		case err != nil:
			f.Err = err
		case !equalInts(actual, p.Expected):
			f.Actual = apperrors.JoinInts(actual)
			f.Err = apperrors.MismatchError{
				Circuit:  c.Name,
				Widths:   layout,
				Inputs:   args,
				Expected: f.Expected,
				Actual:   f.Actual,
			}
		}
		if f.Err != nil {
			r.fail(c, n, t, f)
		} else {
			t.record(true)
		}
		if r.observer != nil {
			r.observer.ObserveCase(c.Name, label, n, f.Err == nil, time.Since(start))
		}
	}
}

// execute runs one plan in its own round.
func (r *Runner) execute(ctx context.Context, p Plan) ([]*big.Int, error) {
	var actual []*big.Int
	err := r.session.Round(ctx, func(ctx context.Context, round *engine.Round) error {
		regs := make([]engine.Register, len(p.Widths))
		for i, w := range p.Widths {
			regs[i] = round.Register(w)
		}
		prog, err := p.Program(regs)
		if err != nil {
			return err
		}
		res, err := round.Evaluate(ctx, prog)
		if err != nil {
			return err
		}
		actual, err = p.Decode(res)
		return err
	})
	return actual, err
}

func (r *Runner) fail(c Circuit, n int, t *tally, f Failure) {
	f.Circuit = c.Name
	t.record(false)
	t.rep.Failures = append(t.rep.Failures, f)
	r.logger.Error("case failed", f.Err,
		logging.String("circuit", c.Name),
		logging.Int("n", n),
		logging.String("regime", f.Regime),
		logging.String("inputs", apperrors.JoinInts(f.Inputs)),
		logging.String("distributions", strings.Join(f.Distributions, " ")),
		logging.Int64("seed", f.Seed))
}

func (r *Runner) superposition(ctx context.Context, c Circuit, n int, t *tally) {
	layout := c.layout(n)
	for i := 0; i < r.strategy.superpositionSamples() && ctx.Err() == nil; i++ {
		start := time.Now()
		s := seed.Derive(r.master, c.Name+"/"+RegimeSuperposition, n, i)
		params, out, err := r.superpositionCheck(ctx, c, n, seed.Replay(s))
		if apperrors.IsContextError(err) && ctx.Err() != nil {
			return
		}
		if err != nil {
			var mismatch apperrors.MismatchError
			if errors.As(err, &mismatch) {
				mismatch.Circuit = c.Name
				mismatch.Inputs = params
				err = mismatch
			}
			f := Failure{
				Regime:        RegimeSuperposition,
				Widths:        layout,
				Inputs:        params,
				Distributions: protocol.Render(out.Inputs),
				Seed:          s,
				Err:           err,
			}
			if out.Expected.Len() > 0 {
				f.Expected = out.Expected.String()
			}
			if out.Actual.Len() > 0 {
				f.Actual = out.Actual.String()
			}
			r.fail(c, n, t, f)
		} else {
			t.record(true)
		}
		if r.observer != nil {
			r.observer.ObserveCase(c.Name, RegimeSuperposition, n, err == nil, time.Since(start))
		}
	}
}

// superpositionCheck draws the parameters and two-point inputs of one check
// from rng and runs it through the protocol driver.
func (r *Runner) superpositionCheck(ctx context.Context, c Circuit, n int, rng *rand.Rand) ([]*big.Int, protocol.Outcome, error) {
	layout := c.layout(n)
	lows, highs := c.ranges(n)
	params, err := sample(rng, lows[:len(c.Params)], highs[:len(c.Params)])
	if err != nil {
		return nil, protocol.Outcome{}, err
	}
	resolved, err := c.Op.Resolve(params)
	if err != nil {
		return params, protocol.Outcome{}, err
	}
	op := c.Shape.operation(resolved, len(layout))

	inputs, err := r.superpositionInputs(c, n, rng, params, lows[len(c.Params):], highs[len(c.Params):])
	if err != nil {
		return params, protocol.Outcome{}, err
	}

	// Reference failures inside the lifted function surface after the check.
	var refErr error
	eval := func(xs ...*big.Int) *big.Int {
		args := append(cloneInts(params), xs...)
		vs, err := c.Reference(n, args)
		if err == nil && len(vs) == 0 {
			err = errors.New("reference returned no value")
		}
		if err != nil {
			if refErr == nil {
				refErr = apperrors.WrapError(err, "reference")
			}
			return new(big.Int)
		}
		return vs[0]
	}

	opts := []protocol.Option{
		protocol.WithTolerance(r.tolerance),
		protocol.WithLogger(r.logger),
		protocol.WithTracer(r.tracer),
	}
	if r.checks != nil {
		opts = append(opts, protocol.WithObserver(r.checks))
	}
	d := protocol.NewDriver(r.session, rng, opts...)

	var out protocol.Outcome
	switch c.Shape.Kind {
	case UnaryInPlace:
		out, err = d.UnaryInPlace(ctx, layout[0], op, func(x *big.Int) *big.Int { return eval(x) }, inputs[0])
	case BinaryInPlace:
		out, err = d.BinaryInPlace(ctx, layout[0], op, func(x, y *big.Int) *big.Int { return eval(x, y) }, inputs[0], inputs[1])
	case BinaryOutOfPlace:
		out, err = d.BinaryOutOfPlace(ctx, [3]int{layout[0], layout[1], layout[2]}, op,
			func(x, y *big.Int) *big.Int { return eval(x, y) }, inputs[0], inputs[1])
	default:
		err = fmt.Errorf("%s does not support superposition checks", c.Shape)
	}
	if refErr != nil {
		return params, out, refErr
	}
	return params, out, err
}

// superpositionInputs draws one two-point superposition per input register,
// or a basis state when its range holds a single value, retrying until every
// combination of support values passes the filter.
func (r *Runner) superpositionInputs(c Circuit, n int, rng *rand.Rand, params, lows, highs []*big.Int) ([]superposition.Superposition, error) {
	attempts := r.strategy.FilterAttempts
	if attempts <= 0 {
		attempts = DefaultFilterAttempts
	}
	for i := 0; i < attempts; i++ {
		inputs := make([]superposition.Superposition, len(lows))
		for j := range lows {
			var err error
			if lows[j].Cmp(highs[j]) == 0 {
				inputs[j] = superposition.Basis(lows[j])
				continue
			}
			if inputs[j], err = superposition.RandomOfTwo(rng, lows[j], highs[j]); err != nil {
				return nil, err
			}
		}
		if c.Filter == nil || admissible(c, n, params, inputs) {
			return inputs, nil
		}
	}
	return nil, fmt.Errorf("no admissible superposition inputs after %d draws", attempts)
}

// admissible reports whether every combination of support values passes
// the filter.
func admissible(c Circuit, n int, params []*big.Int, inputs []superposition.Superposition) bool {
	lows := make([]*big.Int, len(inputs))
	highs := make([]*big.Int, len(inputs))
	support := make([][]*big.Int, len(inputs))
	for i, in := range inputs {
		support[i] = in.Values()
		lows[i] = big.NewInt(0)
		highs[i] = big.NewInt(int64(len(support[i]) - 1))
	}
	ok := true
	enumerate(lows, highs, func(idx []*big.Int) bool {
		args := cloneInts(params)
		for i, k := range idx {
			args = append(args, support[i][k.Int64()])
		}
		ok = c.Filter(n, args)
		return ok
	})
	return ok
}

func equalInts(a, b []*big.Int) bool {
	return slices.EqualFunc(a, b, func(x, y *big.Int) bool { return x.Cmp(y) == 0 })
}
