package reconstruct

import (
	"context"
	"errors"
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/agbru/qarithcheck/internal/engine"
	apperrors "github.com/agbru/qarithcheck/internal/errors"
	"github.com/agbru/qarithcheck/internal/oracle"
	"github.com/agbru/qarithcheck/internal/simulator"
	"github.com/agbru/qarithcheck/internal/superposition"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func amp(index int64, a float64) engine.BasisAmplitude {
	return engine.BasisAmplitude{Index: big.NewInt(index), Amplitude: complex(a, 0)}
}

func TestProject_TrailingReversed(t *testing.T) {
	t.Parallel()
	// Three qubits, output window is the last two. Index 0b001 has trailing
	// bits 01 which reverse to the value 2.
	dump := engine.StateDump{Qubits: 3, Entries: []engine.BasisAmplitude{
		amp(0b001, math.Sqrt(0.25)),
		amp(0b101, math.Sqrt(0.25)),
		amp(0b110, math.Sqrt(0.5)),
	}}
	got, err := Project(dump, Trailing(2))
	if err != nil {
		t.Fatal(err)
	}
	want := superposition.MustNew(
		superposition.Entry{Value: big.NewInt(2), Probability: 0.5},
		superposition.Entry{Value: big.NewInt(1), Probability: 0.5},
	)
	if ok, dev := superposition.Equal(got, want, superposition.DefaultTolerance); !ok {
		t.Errorf("got %s, want %s (%s)", got, want, dev)
	}
}

func TestProject_NativeOrderAndOffset(t *testing.T) {
	t.Parallel()
	dump := engine.StateDump{Qubits: 4, Entries: []engine.BasisAmplitude{amp(0b0110, 1)}}
	got, err := Project(dump, Window{Offset: 1, Width: 2, Order: Native})
	if err != nil {
		t.Fatal(err)
	}
	if got.Probability(big.NewInt(3)) != 1 {
		t.Errorf("got %s, want {3: 1}", got)
	}
}

func TestProject_Malformed(t *testing.T) {
	t.Parallel()
	dump := engine.StateDump{Qubits: 2, Entries: []engine.BasisAmplitude{amp(0, math.Sqrt(0.5))}}
	_, err := Project(dump, Trailing(2))
	var malformed apperrors.MalformedSuperpositionError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedSuperpositionError, got %v", err)
	}
	if malformed.Stage != "reconstruction" || math.Abs(malformed.Total-0.5) > 1e-12 {
		t.Errorf("unexpected error fields %+v", malformed)
	}
}

func TestWindow_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		w     Window
		field string
	}{
		{"zero width", Window{Width: 0}, "width"},
		{"negative offset", Window{Offset: -1, Width: 2}, "offset"},
		{"exceeds dump", Window{Offset: 3, Width: 2}, "offset"},
		{"wider than dump", Trailing(5), "offset"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.w.Validate(4)
			var valErr apperrors.ValidationError
			if !errors.As(err, &valErr) || valErr.Field != tt.field {
				t.Errorf("expected ValidationError on %q, got %v", tt.field, err)
			}
		})
	}
	if err := (Window{Offset: 2, Width: 2}).Validate(4); err != nil {
		t.Errorf("valid window rejected: %v", err)
	}
}

func TestForRegister(t *testing.T) {
	t.Parallel()
	regs := []engine.Register{{Name: "a", Width: 3}, {Name: "b", Width: 4}, {Name: "c", Width: 2}}
	tests := []struct {
		target engine.Register
		offset int
	}{
		{regs[2], 0},
		{regs[1], 2},
		{regs[0], 6},
	}
	for _, tt := range tests {
		w, err := ForRegister(regs, tt.target)
		if err != nil {
			t.Fatal(err)
		}
		if w.Offset != tt.offset || w.Width != tt.target.Width {
			t.Errorf("ForRegister(%s) = %+v, want offset %d", tt.target.Name, w, tt.offset)
		}
	}
	if _, err := ForRegister(regs, engine.Register{Name: "z", Width: 1}); err == nil {
		t.Error("expected error for unknown register")
	}
	if _, err := ForRegister(regs, engine.Register{Name: "a", Width: 1}); err == nil {
		t.Error("expected error for width mismatch")
	}
}

// roundTrip prepares s in a register that is followed by a trailing scratch
// register, then reads it back through the simulator dump.
func roundTrip(s superposition.Superposition, n int) (superposition.Superposition, error) {
	sim := simulator.New(simulator.StandardLibrary())
	q := engine.Register{Name: "q", Width: n}
	lead := engine.Register{Name: "lead", Width: 3}
	terms := make([]engine.Term, 0, s.Len())
	for _, a := range s.Amplitudes() {
		terms = append(terms, engine.Term{Value: a.Value, Amplitude: a.Amplitude})
	}
	prog := engine.Program{Statements: []engine.Statement{
		engine.Allocate{Register: lead},
		engine.SetInt{Target: lead, Value: big.NewInt(5)},
		engine.Allocate{Register: q},
		engine.Prepare{Target: q, Terms: terms},
	}}
	ctx := context.Background()
	if _, err := sim.Evaluate(ctx, prog); err != nil {
		return superposition.Superposition{}, err
	}
	dump, err := sim.DumpState(ctx)
	if err != nil {
		return superposition.Superposition{}, err
	}
	w, err := ForRegister(prog.Registers(), q)
	if err != nil {
		return superposition.Superposition{}, err
	}
	return Project(dump, w)
}

// TestRoundTrip_PropertyBased checks prepare -> dump -> reconstruct returns
// the prepared distribution for random two-point superpositions.
func TestRoundTrip_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Project(dump(prepare(s))) == s", prop.ForAll(
		func(seed int64, n int) bool {
			r := rand.New(rand.NewSource(seed))
			s, err := superposition.RandomOfTwo(r, big.NewInt(0), oracle.MaxValue(n))
			if err != nil {
				return false
			}
			got, err := roundTrip(s, n)
			if err != nil {
				return false
			}
			ok, _ := superposition.Equal(got, s, superposition.DefaultTolerance)
			return ok
		},
		gen.Int64(),
		gen.IntRange(1, 70),
	))

	properties.TestingRun(t)
}
