package engine

import (
	"math/big"
	"testing"
)

func TestOpRef_Bind(t *testing.T) {
	t.Parallel()
	a := Register{Name: "q0", Width: 4}
	b := Register{Name: "q1", Width: 4}

	tests := []struct {
		name    string
		op      OpRef
		regs    []Register
		want    string
		wantErr bool
	}{
		{name: "no bound args", op: Op("Std", "Add"), regs: []Register{a, b}, want: "q0 q1"},
		{name: "bound args precede registers", op: Op("Std", "AddConstant").With(Int(big.NewInt(5))), regs: []Register{a}, want: "5 q0"},
		{name: "holes are filled in order", op: Op("Std", "ModExp").With(Int(big.NewInt(3)), Hole(), Int(big.NewInt(7)), Hole()), regs: []Register{a, b}, want: "3 q0 7 q1"},
		{name: "hole count mismatch", op: Op("Std", "F").With(Hole()), regs: []Register{a, b}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			args, err := tt.op.Bind(tt.regs...)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got := ""
			for i, arg := range args {
				if i > 0 {
					got += " "
				}
				got += arg.String()
			}
			if got != tt.want {
				t.Errorf("Bind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpRef_String(t *testing.T) {
	t.Parallel()
	op := Op("Std", "AddConstant").With(Int(big.NewInt(5)), Hole(), Bool(true))
	if got := op.String(); got != "Std.AddConstant(5, _, true)" {
		t.Errorf("String() = %q", got)
	}
	if got := Op("", "Local").FullName(); got != "Local" {
		t.Errorf("FullName() = %q", got)
	}
	// With must not alias the receiver's slice.
	base := Op("Std", "F").With(Int(big.NewInt(1)))
	x := base.With(Int(big.NewInt(2)))
	y := base.With(Int(big.NewInt(3)))
	if x.Bound[1].Int.Int64() != 2 || y.Bound[1].Int.Int64() != 3 {
		t.Errorf("With aliased bound arguments: %s %s", x, y)
	}
}

func TestValue(t *testing.T) {
	t.Parallel()
	v := TupleValue(
		IntValue(big.NewInt(7)),
		BoolValue(true),
		ArrayValue(IntValue(big.NewInt(1)), IntValue(big.NewInt(2))),
	)
	if got := v.String(); got != "(7, true, [1, 2])" {
		t.Errorf("String() = %q", got)
	}
	ints := Result{Outputs: []Value{v, BoolValue(false)}}.Ints()
	want := []int64{7, 1, 1, 2, 0}
	if len(ints) != len(want) {
		t.Fatalf("Ints() = %v", ints)
	}
	for i := range want {
		if ints[i].Int64() != want[i] {
			t.Errorf("Ints()[%d] = %s, want %d", i, ints[i], want[i])
		}
	}
}

func TestProgram_Registers(t *testing.T) {
	t.Parallel()
	a := Register{Name: "q0", Width: 2}
	b := Register{Name: "q1", Width: 3}
	var p Program
	p.Add(Allocate{Register: a}, SetInt{Target: a, Value: big.NewInt(1)}).
		Add(Allocate{Register: b}, Apply{Op: Op("Std", "Add"), Args: []Arg{Reg(a), Reg(b)}})
	regs := p.Registers()
	if len(regs) != 2 || regs[0] != a || regs[1] != b {
		t.Errorf("Registers() = %v", regs)
	}
}

func TestOpRef_Resolve(t *testing.T) {
	t.Parallel()
	op := Op("Arith", "AddConstant").With(Param(0), Hole())
	if op.Params() != 1 {
		t.Fatalf("Params() = %d, want 1", op.Params())
	}
	resolved, err := op.Resolve([]*big.Int{big.NewInt(-42)})
	if err != nil {
		t.Fatal(err)
	}
	if got := resolved.String(); got != "Arith.AddConstant(-42, _)" {
		t.Errorf("Resolve() = %q", got)
	}
	if op.Bound[0].Kind != ArgParam {
		t.Error("Resolve mutated the receiver")
	}
	if _, err := op.Resolve(nil); err == nil {
		t.Error("expected error for missing parameter")
	}
}

func TestOpRef_ResolveBool(t *testing.T) {
	t.Parallel()
	op := Op("Arith", "OverflowBit").With(Param(0), Hole(), Hole(), ParamBool(1))
	if op.Params() != 2 {
		t.Fatalf("Params() = %d, want 2", op.Params())
	}
	if got := op.String(); got != "Arith.OverflowBit($0, _, _, $1?)" {
		t.Errorf("String() = %q", got)
	}
	tests := []struct {
		carry int64
		want  string
	}{
		{0, "Arith.OverflowBit(5, _, _, false)"},
		{1, "Arith.OverflowBit(5, _, _, true)"},
	}
	for _, tt := range tests {
		resolved, err := op.Resolve([]*big.Int{big.NewInt(5), big.NewInt(tt.carry)})
		if err != nil {
			t.Fatal(err)
		}
		if got := resolved.String(); got != tt.want {
			t.Errorf("Resolve(carry=%d) = %q, want %q", tt.carry, got, tt.want)
		}
	}
}
