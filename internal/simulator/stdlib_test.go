package simulator

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"testing"

	"github.com/agbru/qarithcheck/internal/engine"
	"github.com/agbru/qarithcheck/internal/oracle"
)

// run allocates one register per value, applies op to them (after any bound
// arguments) and returns every register measured in order.
func run(t *testing.T, lib *Library, op engine.OpRef, widths []int, values ...int64) []int64 {
	t.Helper()
	sim := New(lib)
	var stmts []engine.Statement
	rs := make([]engine.Register, len(widths))
	for i, w := range widths {
		rs[i] = engine.Register{Name: string(rune('a' + i)), Width: w}
		stmts = append(stmts, engine.Allocate{Register: rs[i]}, engine.SetInt{Target: rs[i], Value: big.NewInt(values[i])})
	}
	args, err := op.Bind(rs...)
	if err != nil {
		t.Fatal(err)
	}
	stmts = append(stmts, engine.Apply{Op: op, Args: args})
	for _, r := range rs {
		stmts = append(stmts, engine.Measure{Target: r})
	}
	res, err := sim.Evaluate(context.Background(), engine.Program{Statements: stmts})
	if err != nil {
		t.Fatalf("%s: %v", op, err)
	}
	out := make([]int64, 0, len(widths))
	for _, v := range res.Ints() {
		out = append(out, v.Int64())
	}
	return out
}

func equal(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStandardLibrary(t *testing.T) {
	t.Parallel()
	lib := StandardLibrary()
	c := func(v int64) engine.Arg { return engine.Int(big.NewInt(v)) }

	tests := []struct {
		name   string
		op     engine.OpRef
		widths []int
		in     []int64
		want   []int64
	}{
		{"add", OpAdd, []int{4, 4}, []int64{9, 10}, []int64{9, 3}},
		{"add with carry", OpAddWithCarry, []int{4, 4, 1}, []int64{9, 10, 0}, []int64{9, 3, 1}},
		{"subtract", OpSubtract, []int{4, 4}, []int64{5, 3}, []int64{5, 14}},
		{"increment", OpIncrement, []int{3}, []int64{7}, []int64{0}},
		{"add negative constant", OpAddConstant.With(c(-20), engine.Hole()), []int{4}, []int64{3}, []int64{15}},
		{"compare LT true", OpCompareByConstLT.With(c(3), engine.Hole(), engine.Hole()), []int{4, 1}, []int64{5, 0}, []int64{5, 1}},
		{"compare LT false", OpCompareByConstLT.With(c(5), engine.Hole(), engine.Hole()), []int{4, 1}, []int64{5, 0}, []int64{5, 0}},
		{"compare LE", OpCompareByConstLE.With(c(5), engine.Hole(), engine.Hole()), []int{4, 1}, []int64{5, 0}, []int64{5, 1}},
		{"compare GT", OpCompareByConstGT.With(c(6), engine.Hole(), engine.Hole()), []int{4, 1}, []int64{5, 0}, []int64{5, 1}},
		{"compare GE", OpCompareByConstGE.With(c(4), engine.Hole(), engine.Hole()), []int{4, 1}, []int64{5, 0}, []int64{5, 0}},
		{"overflow with carry in", OpOverflowBit.With(c(10), engine.Hole(), engine.Hole(), engine.Bool(true)), []int{4, 1}, []int64{5, 0}, []int64{5, 1}},
		{"overflow without carry in", OpOverflowBit.With(c(11), engine.Hole(), engine.Hole(), engine.Bool(false)), []int{4, 1}, []int64{5, 0}, []int64{5, 1}},
		{"no overflow", OpOverflowBit.With(c(9), engine.Hole(), engine.Hole(), engine.Bool(false)), []int{4, 1}, []int64{5, 0}, []int64{5, 0}},
		{"multiply", OpMultiply, []int{4, 4, 8}, []int64{13, 11, 0}, []int64{13, 11, 143}},
		{"divide", OpDivide, []int{5, 5, 5}, []int64{29, 4, 0}, []int64{1, 4, 7}},
		{"divide by zero", OpDivide, []int{3, 3, 3}, []int64{5, 0, 0}, []int64{5, 0, 7}},
		{"square root", OpSquareRoot, []int{6, 3}, []int64{40, 0}, []int64{4, 6}},
		{"factorial table", OpFactorialTable, []int{3, 16}, []int64{7, 0}, []int64{7, 5040}},
		{"gcd", OpGCD, []int{6, 6, 6}, []int64{48, 36, 0}, []int64{48, 36, 12}},
		{"modexp", OpModExp.With(c(4), c(497), engine.Hole(), engine.Hole()), []int{4, 9}, []int64{13, 0}, []int64{13, 445}},
		{"radix adder", OpAddRadix.With(engine.Hole(), engine.Hole(), c(3)), []int{5, 5}, []int64{14, 9}, []int64{14, 23}},
		{"radix adder wraps", OpAddRadix.With(engine.Hole(), engine.Hole(), c(3)), []int{4, 4}, []int64{14, 9}, []int64{14, 7}},
		{"fermat butterfly", OpFermatButterfly, []int{5, 5}, []int64{10, 12}, []int64{5, 15}},
		{"mod add", OpModAdd.With(engine.Hole(), engine.Hole(), c(11)), []int{4, 4}, []int64{7, 9}, []int64{7, 5}},
		{"mod double", OpModDbl.With(engine.Hole(), c(13)), []int{4}, []int64{9}, []int64{5}},
		{"mod multiply", OpModMulFast.With(engine.Hole(), engine.Hole(), engine.Hole(), c(13)), []int{4, 4, 4}, []int64{7, 9, 0}, []int64{7, 9, 11}},
		{"montgomery multiply", OpMontgomeryMul.With(engine.Hole(), engine.Hole(), engine.Hole(), c(13)), []int{4, 4, 4}, []int64{7, 9, 0}, []int64{7, 9, 8}},
		{"multiply add constant mod", OpMulAddConstMod.With(c(5), c(7), engine.Hole(), engine.Hole()), []int{3, 3}, []int64{6, 0}, []int64{6, 2}},
		{"multiply add constant mod accumulates", OpMulAddConstMod.With(c(5), c(7), engine.Hole(), engine.Hole()), []int{3, 3}, []int64{6, 3}, []int64{6, 5}},
		{"multiply constant mod", OpMulConstMod.With(c(5), c(7), engine.Hole()), []int{3}, []int64{3}, []int64{1}},
		{"multiply constant mod keeps x >= N", OpMulConstMod.With(c(5), c(7), engine.Hole()), []int{3}, []int64{7}, []int64{7}},
		{"left shift", OpLeftShift, []int{4}, []int64{5}, []int64{10}},
		{"left shift wraps the top bit", OpLeftShift, []int{4}, []int64{9}, []int64{3}},
		{"cyclic shift", OpCyclicShiftRight.With(engine.Hole(), c(1)), []int{4}, []int64{9}, []int64{3}},
		{"cyclic shift negative", OpCyclicShiftRight.With(engine.Hole(), c(-1)), []int{4}, []int64{9}, []int64{12}},
		{"cyclic shift full turn", OpCyclicShiftRight.With(engine.Hole(), c(4)), []int{4}, []int64{9}, []int64{9}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := run(t, lib, tt.op, tt.widths, tt.in...); !equal(got, tt.want) {
				t.Errorf("%s(%v) = %v, want %v", tt.op, tt.in, got, tt.want)
			}
		})
	}
}

func TestAddExhaustive(t *testing.T) {
	t.Parallel()
	lib := StandardLibrary()
	for n := 1; n <= 4; n++ {
		max := int64(1) << n
		for x := int64(0); x < max; x++ {
			for y := int64(0); y < max; y++ {
				got := run(t, lib, OpAdd, []int{n, n}, x, y)
				want := oracle.Mod2N(big.NewInt(x+y), n).Int64()
				if got[0] != x || got[1] != want {
					t.Fatalf("n=%d: Add(%d, %d) = %v, want [%d %d]", n, x, y, got, x, want)
				}
			}
		}
	}
}

func TestFaultyLibrary(t *testing.T) {
	t.Parallel()
	lib := FaultyLibrary()
	if got := run(t, lib, OpXorAdd, []int{4, 4}, 3, 1); got[1] != 2 {
		t.Errorf("XorAdd(3, 1) = %v", got)
	}
	if got := run(t, lib, OpAddSkipsMax, []int{3, 3}, 7, 1); got[1] != 1 {
		t.Errorf("AddSkipsMax(7, 1) = %v", got)
	}
	if got := run(t, lib, OpAddSkipsMax, []int{3, 3}, 6, 1); got[1] != 7 {
		t.Errorf("AddSkipsMax(6, 1) = %v", got)
	}
	if got := run(t, lib, OpMultiplyDropsHigh, []int{4, 4, 8}, 15, 15, 0); got[2] != 225-128 {
		t.Errorf("MultiplyDropsHigh(15, 15) = %v", got)
	}
	if got := run(t, lib, OpWrongCarry, []int{4, 4, 1}, 9, 10, 0); got[2] != 0 {
		t.Errorf("WrongCarry(9, 10) carry = %v", got)
	}
}

func TestRoutines(t *testing.T) {
	t.Parallel()
	sim := New(StandardLibrary())
	args := func(vs ...int64) []engine.Arg {
		out := make([]engine.Arg, len(vs))
		for i, v := range vs {
			out[i] = engine.Int(big.NewInt(v))
		}
		return out
	}
	res, err := sim.Evaluate(context.Background(), engine.Program{Statements: []engine.Statement{
		engine.Call{Op: RoutineMultiply, Args: args(4, 13, 11)},
		engine.Call{Op: RoutineDivide, Args: args(5, 29, 4)},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Outputs[0].String(); got != "143" {
		t.Errorf("RunMultiply = %s", got)
	}
	if got := res.Outputs[1].String(); got != "(7, 1)" {
		t.Errorf("RunDivide = %s", got)
	}
}

func TestFermatFFT_MatchesDFT(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(5))
	for _, tt := range []struct{ n, m1 int }{{4, 1}, {8, 1}, {32, 2}, {48, 3}} {
		d := tt.n / tt.m1
		xs := make([]*big.Int, d)
		for i := range xs {
			xs[i] = new(big.Int).Rand(rng, oracle.FermatModulus(tt.n))
		}
		var args []engine.Arg
		var stmts []engine.Statement
		for i, x := range xs {
			r := engine.Register{Name: fmt.Sprintf("x%d", i), Width: tt.n + 1}
			stmts = append(stmts, engine.Allocate{Register: r}, engine.SetInt{Target: r, Value: x})
			args = append(args, engine.Reg(r))
		}
		stmts = append(stmts, engine.Apply{Op: OpFermatFFT, Args: append([]engine.Arg{engine.Int(big.NewInt(int64(tt.m1)))}, args...)})
		for _, a := range args {
			stmts = append(stmts, engine.Measure{Target: a.Register})
		}
		res, err := New(StandardLibrary()).Evaluate(context.Background(), engine.Program{Statements: stmts})
		if err != nil {
			t.Fatalf("n=%d: %v", tt.n, err)
		}
		want := oracle.FermatDFT(xs, tt.n, tt.m1)
		for i, got := range res.Ints() {
			if got.Cmp(want[i]) != 0 {
				t.Errorf("n=%d: out[%d] = %s, want %s", tt.n, i, got, want[i])
			}
		}
	}
}

func TestFermatFFT_RejectsBadSizes(t *testing.T) {
	t.Parallel()
	var stmts []engine.Statement
	args := []engine.Arg{engine.Int(big.NewInt(1))}
	for i := 0; i < 3; i++ {
		r := engine.Register{Name: fmt.Sprintf("x%d", i), Width: 4}
		stmts = append(stmts, engine.Allocate{Register: r})
		args = append(args, engine.Reg(r))
	}
	stmts = append(stmts, engine.Apply{Op: OpFermatFFT, Args: args})
	if _, err := New(StandardLibrary()).Evaluate(context.Background(), engine.Program{Statements: stmts}); err == nil {
		t.Error("expected an error for three points")
	}
}

func TestRunFFT(t *testing.T) {
	t.Parallel()
	xs := []int64{1, 2, 3, 4}
	args := []engine.Arg{engine.Int(big.NewInt(4))}
	in := make([]*big.Int, len(xs))
	for i, x := range xs {
		in[i] = big.NewInt(x)
		args = append(args, engine.Int(in[i]))
	}
	res, err := New(StandardLibrary()).Evaluate(context.Background(), engine.Program{Statements: []engine.Statement{
		engine.Call{Op: RoutineFFT.With(engine.Int(big.NewInt(1))), Args: args},
	}})
	if err != nil {
		t.Fatal(err)
	}
	// Over Z/17 with root 4: [10, 7, 15, 6].
	if got := res.Outputs[0].String(); got != "[10, 7, 15, 6]" {
		t.Errorf("RunFFT = %s", got)
	}
	want := oracle.FermatDFT(in, 4, 1)
	for i, got := range res.Ints() {
		if got.Cmp(want[i]) != 0 {
			t.Errorf("out[%d] = %s, want %s", i, got, want[i])
		}
	}
}

func TestLibraryNames(t *testing.T) {
	t.Parallel()
	names := NewLibrary().
		Define("B.op", increment).
		DefineRoutine("A.run", runMultiply).
		Merge(NewLibrary().Define("C.op", add)).
		Names()
	if len(names) != 3 || names[0] != "A.run" || names[2] != "C.op" {
		t.Errorf("Names() = %v", names)
	}
}
