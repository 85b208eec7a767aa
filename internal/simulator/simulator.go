package simulator

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"math/cmplx"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/agbru/qarithcheck/internal/engine"
	"github.com/agbru/qarithcheck/internal/logging"
	"github.com/agbru/qarithcheck/internal/oracle"
)

// amplitudeEpsilon is the magnitude below which a branch is considered empty.
const amplitudeEpsilon = 1e-15

// DefaultMaxBranches bounds the number of live branches.
const DefaultMaxBranches = 1 << 16

type branch struct {
	vals []*big.Int
	amp  complex128
}

// Simulator is a sparse reference engine. It is safe for concurrent use, but
// interleaving programs from different callers mixes their registers; use one
// Simulator per engine.Session.
type Simulator struct {
	mu          sync.Mutex
	lib         *Library
	rng         *rand.Rand
	logger      logging.Logger
	maxBranches int

	regs     []engine.Register
	slot     map[string]int
	qubits   int
	branches []branch
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithSeed seeds the generator used to collapse measurements of
// superposed registers.
func WithSeed(seed int64) Option {
	return func(s *Simulator) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithLogger sets the logger for evaluation diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// WithMaxBranches bounds the number of live branches.
func WithMaxBranches(n int) Option {
	return func(s *Simulator) { s.maxBranches = n }
}

// New returns a Simulator over lib in the empty state.
func New(lib *Library, opts ...Option) *Simulator {
	s := &Simulator{
		lib:         lib,
		rng:         rand.New(rand.NewSource(1)),
		logger:      logging.Nop(),
		maxBranches: DefaultMaxBranches,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clear()
	return s
}

func (s *Simulator) clear() {
	s.regs = nil
	s.slot = make(map[string]int)
	s.qubits = 0
	s.branches = []branch{{amp: 1}}
}

// Reset releases every register and returns to the empty state.
func (s *Simulator) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	return nil
}

// Qubits returns the number of allocated qubits.
func (s *Simulator) Qubits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qubits
}

// Evaluate runs p statement by statement. On error the state reflects the
// statements that completed; callers reset through their session.
func (s *Simulator) Evaluate(ctx context.Context, p engine.Program) (engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res engine.Result
	for i, st := range p.Statements {
		if err := ctx.Err(); err != nil {
			return engine.Result{}, err
		}
		var err error
		switch st := st.(type) {
		case engine.Allocate:
			err = s.allocate(st.Register)
		case engine.SetInt:
			err = s.setInt(st)
		case engine.Prepare:
			err = s.prepare(st)
		case engine.Apply:
			err = s.apply(st)
		case engine.Measure:
			var v *big.Int
			v, err = s.measure(st.Target)
			if err == nil {
				res.Outputs = append(res.Outputs, engine.IntValue(v))
			}
		case engine.Call:
			var v engine.Value
			v, err = s.call(st)
			if err == nil {
				res.Outputs = append(res.Outputs, v)
			}
		default:
			err = fmt.Errorf("unsupported statement %T", st)
		}
		if err != nil {
			return engine.Result{}, fmt.Errorf("statement %d: %w", i, err)
		}
	}
	s.logger.Debug("program evaluated",
		logging.Int("statements", len(p.Statements)),
		logging.Int("qubits", s.qubits),
		logging.Int("branches", len(s.branches)))
	return res, nil
}

// DumpState returns the amplitudes of all live branches, sorted by index.
func (s *Simulator) DumpState(ctx context.Context) (engine.StateDump, error) {
	if err := ctx.Err(); err != nil {
		return engine.StateDump{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dump := engine.StateDump{Qubits: s.qubits, Entries: make([]engine.BasisAmplitude, 0, len(s.branches))}
	for _, b := range s.branches {
		dump.Entries = append(dump.Entries, engine.BasisAmplitude{Index: s.index(b), Amplitude: b.amp})
	}
	sort.Slice(dump.Entries, func(i, j int) bool { return dump.Entries[i].Index.Cmp(dump.Entries[j].Index) < 0 })
	return dump, nil
}

// index maps a branch to its basis-state index. Qubit k in allocation order
// is index bit qubits-1-k, and bit i of a register is its i-th qubit.
func (s *Simulator) index(b branch) *big.Int {
	idx := new(big.Int)
	start := 0
	for r, reg := range s.regs {
		v := b.vals[r]
		for i := 0; i < reg.Width; i++ {
			if v.Bit(i) == 1 {
				idx.SetBit(idx, s.qubits-1-(start+i), 1)
			}
		}
		start += reg.Width
	}
	return idx
}

func (s *Simulator) lookup(r engine.Register) (int, error) {
	i, ok := s.slot[r.Name]
	if !ok {
		return 0, fmt.Errorf("register %q is not allocated", r.Name)
	}
	if s.regs[i].Width != r.Width {
		return 0, fmt.Errorf("register %q has width %d, not %d", r.Name, s.regs[i].Width, r.Width)
	}
	return i, nil
}

func (s *Simulator) allocate(r engine.Register) error {
	if r.Width < 1 {
		return fmt.Errorf("register %q: width must be positive, got %d", r.Name, r.Width)
	}
	if _, ok := s.slot[r.Name]; ok {
		return fmt.Errorf("register %q is already allocated", r.Name)
	}
	s.slot[r.Name] = len(s.regs)
	s.regs = append(s.regs, r)
	s.qubits += r.Width
	for i := range s.branches {
		s.branches[i].vals = append(s.branches[i].vals, new(big.Int))
	}
	return nil
}

func (s *Simulator) setInt(st engine.SetInt) error {
	i, err := s.lookup(st.Target)
	if err != nil {
		return err
	}
	if st.Value.Sign() < 0 || st.Value.BitLen() > st.Target.Width {
		return fmt.Errorf("value %s does not fit register %q of width %d", st.Value, st.Target.Name, st.Target.Width)
	}
	for _, b := range s.branches {
		b.vals[i].Xor(b.vals[i], st.Value)
	}
	return nil
}

func (s *Simulator) prepare(st engine.Prepare) error {
	i, err := s.lookup(st.Target)
	if err != nil {
		return err
	}
	if len(st.Terms) == 0 {
		return fmt.Errorf("prepare %q: no terms", st.Target.Name)
	}
	norm := 0.0
	seen := make(map[string]bool, len(st.Terms))
	for _, t := range st.Terms {
		if t.Value.Sign() < 0 || t.Value.BitLen() > st.Target.Width {
			return fmt.Errorf("prepare %q: value %s does not fit width %d", st.Target.Name, t.Value, st.Target.Width)
		}
		key := t.Value.String()
		if seen[key] {
			return fmt.Errorf("prepare %q: duplicate value %s", st.Target.Name, t.Value)
		}
		seen[key] = true
		norm += t.Amplitude * t.Amplitude
	}
	if math.Abs(norm-1) > 1e-9 {
		return fmt.Errorf("prepare %q: amplitudes are not normalized (sum of squares %g)", st.Target.Name, norm)
	}

	next := make([]branch, 0, len(s.branches)*len(st.Terms))
	for _, b := range s.branches {
		if b.vals[i].Sign() != 0 {
			return fmt.Errorf("prepare %q: register is not in the zero state", st.Target.Name)
		}
		for _, t := range st.Terms {
			vals := cloneVals(b.vals)
			vals[i].Set(t.Value)
			next = append(next, branch{vals: vals, amp: b.amp * complex(t.Amplitude, 0)})
		}
	}
	return s.commit(next)
}

func (s *Simulator) apply(st engine.Apply) error {
	name := st.Op.FullName()
	op, ok := s.lib.operation(name)
	if !ok {
		return fmt.Errorf("unknown operation %s", name)
	}
	controls := make([]int, len(st.Controls))
	for k, c := range st.Controls {
		i, err := s.lookup(c)
		if err != nil {
			return err
		}
		controls[k] = i
	}
	override, hasOverride := s.lib.controlledOperation(name)
	if len(controls) > 0 && hasOverride {
		args := make([]engine.Arg, 0, len(st.Controls)+len(st.Args))
		for _, c := range st.Controls {
			args = append(args, engine.Reg(c))
		}
		args = append(args, st.Args...)
		return s.transform(name, override, args, nil)
	}
	return s.transform(name, op, st.Args, controls)
}

// transform runs op on every branch whose control registers are all ones and
// merges branches that become identical.
func (s *Simulator) transform(name string, op Operation, args []engine.Arg, controls []int) error {
	slots := make([]int, len(args))
	used := make(map[int]bool, len(args))
	for k, a := range args {
		slots[k] = -1
		switch a.Kind {
		case engine.ArgRegister:
			i, err := s.lookup(a.Register)
			if err != nil {
				return err
			}
			if used[i] {
				return fmt.Errorf("%s: register %q passed twice", name, a.Register.Name)
			}
			used[i] = true
			slots[k] = i
		case engine.ArgInt, engine.ArgBool:
		default:
			return fmt.Errorf("%s: unresolved argument %s", name, a)
		}
	}
	for _, c := range controls {
		if used[c] {
			return fmt.Errorf("%s: control register %q is also a target", name, s.regs[c].Name)
		}
	}

	next := make([]branch, 0, len(s.branches))
	for _, b := range s.branches {
		vals := cloneVals(b.vals)
		if !allOnes(vals, controls, s.regs) {
			next = append(next, branch{vals: vals, amp: b.amp})
			continue
		}
		operands := make([]Operand, len(args))
		for k, a := range args {
			switch a.Kind {
			case engine.ArgRegister:
				operands[k] = Operand{Kind: a.Kind, Width: a.Register.Width, Value: vals[slots[k]]}
			case engine.ArgInt:
				operands[k] = Operand{Kind: a.Kind, Value: new(big.Int).Set(a.Int)}
			case engine.ArgBool:
				operands[k] = Operand{Kind: a.Kind, Bool: a.Bool}
			}
		}
		if err := op(operands); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for k, a := range args {
			if a.Kind == engine.ArgRegister {
				vals[slots[k]] = oracle.Mod2N(operands[k].Value, a.Register.Width)
			}
		}
		next = append(next, branch{vals: vals, amp: b.amp})
	}
	return s.commit(next)
}

func (s *Simulator) measure(r engine.Register) (*big.Int, error) {
	i, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	probs := make(map[string]float64)
	values := make(map[string]*big.Int)
	var keys []string
	for _, b := range s.branches {
		k := b.vals[i].String()
		if _, ok := probs[k]; !ok {
			keys = append(keys, k)
			values[k] = b.vals[i]
		}
		a := cmplx.Abs(b.amp)
		probs[k] += a * a
	}
	if len(keys) == 1 {
		return new(big.Int).Set(values[keys[0]]), nil
	}

	sort.Strings(keys)
	total := 0.0
	for _, k := range keys {
		total += probs[k]
	}
	pick := s.rng.Float64() * total
	chosen := keys[len(keys)-1]
	for _, k := range keys {
		pick -= probs[k]
		if pick < 0 {
			chosen = k
			break
		}
	}

	scale := complex(1/math.Sqrt(probs[chosen]/total), 0)
	next := make([]branch, 0, len(s.branches))
	for _, b := range s.branches {
		if b.vals[i].String() == chosen {
			next = append(next, branch{vals: b.vals, amp: b.amp * scale})
		}
	}
	s.branches = next
	return new(big.Int).Set(values[chosen]), nil
}

func (s *Simulator) call(st engine.Call) (engine.Value, error) {
	name := st.Op.FullName()
	r, ok := s.lib.routine(name)
	if !ok {
		return engine.Value{}, fmt.Errorf("unknown routine %s", name)
	}
	args := append(append([]engine.Arg{}, st.Op.Bound...), st.Args...)
	operands := make([]Operand, len(args))
	for k, a := range args {
		switch a.Kind {
		case engine.ArgInt:
			operands[k] = Operand{Kind: a.Kind, Value: new(big.Int).Set(a.Int)}
		case engine.ArgBool:
			operands[k] = Operand{Kind: a.Kind, Bool: a.Bool}
		default:
			return engine.Value{}, fmt.Errorf("%s: routine arguments must be classical, got %s", name, a)
		}
	}
	v, err := r(operands)
	if err != nil {
		return engine.Value{}, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// commit merges identical branches, drops empty ones and installs next.
func (s *Simulator) commit(next []branch) error {
	merged := make(map[string]int, len(next))
	out := next[:0]
	for _, b := range next {
		k := key(b.vals)
		if j, ok := merged[k]; ok {
			out[j].amp += b.amp
			continue
		}
		merged[k] = len(out)
		out = append(out, b)
	}
	live := out[:0]
	for _, b := range out {
		if cmplx.Abs(b.amp) > amplitudeEpsilon {
			live = append(live, b)
		}
	}
	if len(live) > s.maxBranches {
		return fmt.Errorf("state has %d branches, limit is %d", len(live), s.maxBranches)
	}
	s.branches = live
	return nil
}

func key(vals []*big.Int) string {
	var sb strings.Builder
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(v.Text(16))
	}
	return sb.String()
}

func cloneVals(vals []*big.Int) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = new(big.Int).Set(v)
	}
	return out
}

func allOnes(vals []*big.Int, controls []int, regs []engine.Register) bool {
	for _, c := range controls {
		if vals[c].Cmp(oracle.MaxValue(regs[c].Width)) != 0 {
			return false
		}
	}
	return true
}
