package simulator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/agbru/qarithcheck/internal/engine"
	"github.com/agbru/qarithcheck/internal/oracle"
)

// Namespace is the namespace of the reference circuits.
const Namespace = "Arith"

// Reference circuits provided by StandardLibrary.
var (
	OpAdd              = engine.Op(Namespace, "Add")
	OpAddWithCarry     = engine.Op(Namespace, "AddWithCarry")
	OpSubtract         = engine.Op(Namespace, "Subtract")
	OpIncrement        = engine.Op(Namespace, "Increment")
	OpAddConstant      = engine.Op(Namespace, "AddConstant")
	OpCompareByConstLT = engine.Op(Namespace, "CompareByConstLT")
	OpCompareByConstLE = engine.Op(Namespace, "CompareByConstLE")
	OpCompareByConstGT = engine.Op(Namespace, "CompareByConstGT")
	OpCompareByConstGE = engine.Op(Namespace, "CompareByConstGE")
	OpOverflowBit      = engine.Op(Namespace, "OverflowBit")
	OpMultiply         = engine.Op(Namespace, "Multiply")
	OpDivide           = engine.Op(Namespace, "Divide")
	OpSquareRoot       = engine.Op(Namespace, "SquareRoot")
	OpFactorialTable   = engine.Op(Namespace, "FactorialTable")
	OpGCD              = engine.Op(Namespace, "GCD")
	OpModExp           = engine.Op(Namespace, "ModExp")
	OpAddRadix         = engine.Op(Namespace, "AddRadix")
	OpFermatButterfly  = engine.Op(Namespace, "FermatButterfly")
	OpFermatFFT        = engine.Op(Namespace, "FermatFFT")
	OpModAdd           = engine.Op(Namespace, "ModAdd")
	OpModDbl           = engine.Op(Namespace, "ModDbl")
	OpModMulFast       = engine.Op(Namespace, "ModMulFast")
	OpMontgomeryMul    = engine.Op(Namespace, "MontgomeryMul")
	OpMulAddConstMod   = engine.Op(Namespace, "MulAddConstMod")
	OpMulConstMod      = engine.Op(Namespace, "MulConstMod")
	OpLeftShift        = engine.Op(Namespace, "LeftShift")
	OpCyclicShiftRight = engine.Op(Namespace, "CyclicShiftRight")

	RoutineMultiply = engine.Op(Namespace, "RunMultiply")
	RoutineDivide   = engine.Op(Namespace, "RunDivide")
	RoutineFFT      = engine.Op(Namespace, "RunFFT")
)

// StandardLibrary returns the correct reference circuits.
func StandardLibrary() *Library {
	return NewLibrary().
		Define(OpAdd.FullName(), add).
		Define(OpAddWithCarry.FullName(), addWithCarry).
		Define(OpSubtract.FullName(), subtract).
		Define(OpIncrement.FullName(), increment).
		Define(OpAddConstant.FullName(), addConstant).
		Define(OpCompareByConstLT.FullName(), compareByConst(func(c int) bool { return c < 0 })).
		Define(OpCompareByConstLE.FullName(), compareByConst(func(c int) bool { return c <= 0 })).
		Define(OpCompareByConstGT.FullName(), compareByConst(func(c int) bool { return c > 0 })).
		Define(OpCompareByConstGE.FullName(), compareByConst(func(c int) bool { return c >= 0 })).
		Define(OpOverflowBit.FullName(), overflowBit).
		Define(OpMultiply.FullName(), multiply).
		Define(OpDivide.FullName(), divide).
		Define(OpSquareRoot.FullName(), squareRoot).
		Define(OpFactorialTable.FullName(), factorialTable).
		Define(OpGCD.FullName(), gcd).
		Define(OpModExp.FullName(), modExp).
		Define(OpAddRadix.FullName(), addRadix).
		Define(OpFermatButterfly.FullName(), fermatButterfly).
		Define(OpFermatFFT.FullName(), fermatFFT).
		Define(OpModAdd.FullName(), modAdd).
		Define(OpModDbl.FullName(), modDbl).
		Define(OpModMulFast.FullName(), modMulFast).
		Define(OpMontgomeryMul.FullName(), montgomeryMul).
		Define(OpMulAddConstMod.FullName(), mulAddConstMod).
		Define(OpMulConstMod.FullName(), mulConstMod).
		Define(OpLeftShift.FullName(), leftShift).
		Define(OpCyclicShiftRight.FullName(), cyclicShiftRight).
		DefineRoutine(RoutineMultiply.FullName(), runMultiply).
		DefineRoutine(RoutineDivide.FullName(), runDivide).
		DefineRoutine(RoutineFFT.FullName(), runFFT)
}

func expect(args []Operand, kinds ...engine.ArgKind) error {
	if len(args) != len(kinds) {
		return fmt.Errorf("expected %d arguments, got %d", len(kinds), len(args))
	}
	for i, k := range kinds {
		if args[i].Kind != k {
			return fmt.Errorf("argument %d has kind %d, want %d", i, args[i].Kind, k)
		}
	}
	return nil
}

const (
	reg  = engine.ArgRegister
	cint = engine.ArgInt
	cbit = engine.ArgBool
)

// add: y += x.
func add(args []Operand) error {
	if err := expect(args, reg, reg); err != nil {
		return err
	}
	args[1].Value.Add(args[1].Value, args[0].Value)
	return nil
}

// addWithCarry: y += x, carry ^= overflow.
func addWithCarry(args []Operand) error {
	if err := expect(args, reg, reg, reg); err != nil {
		return err
	}
	sum := new(big.Int).Add(args[0].Value, args[1].Value)
	args[1].Value.Set(oracle.Mod2N(sum, args[1].Width))
	args[2].Value.Xor(args[2].Value, new(big.Int).Rsh(sum, uint(args[1].Width)))
	return nil
}

// subtract: y -= x.
func subtract(args []Operand) error {
	if err := expect(args, reg, reg); err != nil {
		return err
	}
	args[1].Value.Sub(args[1].Value, args[0].Value)
	return nil
}

// increment: x += 1.
func increment(args []Operand) error {
	if err := expect(args, reg); err != nil {
		return err
	}
	args[0].Value.Add(args[0].Value, big.NewInt(1))
	return nil
}

// addConstant: x += c for any integer c.
func addConstant(args []Operand) error {
	if err := expect(args, cint, reg); err != nil {
		return err
	}
	args[1].Value.Add(args[1].Value, args[0].Value)
	return nil
}

// compareByConst: target ^= pred(cmp(c, x)).
func compareByConst(pred func(c int) bool) Operation {
	return func(args []Operand) error {
		if err := expect(args, cint, reg, reg); err != nil {
			return err
		}
		if pred(args[0].Value.Cmp(args[1].Value)) {
			args[2].Value.Xor(args[2].Value, big.NewInt(1))
		}
		return nil
	}
}

// overflowBit: target ^= (c + x + carryIn >= 2^n).
func overflowBit(args []Operand) error {
	if err := expect(args, cint, reg, reg, cbit); err != nil {
		return err
	}
	sum := new(big.Int).Add(args[0].Value, args[1].Value)
	if args[3].Bool {
		sum.Add(sum, big.NewInt(1))
	}
	if sum.Cmp(oracle.Pow2(args[1].Width)) >= 0 {
		args[2].Value.Xor(args[2].Value, big.NewInt(1))
	}
	return nil
}

// multiply: z ^= x*y.
func multiply(args []Operand) error {
	if err := expect(args, reg, reg, reg); err != nil {
		return err
	}
	p := new(big.Int).Mul(args[0].Value, args[1].Value)
	args[2].Value.Xor(args[2].Value, oracle.Mod2N(p, args[2].Width))
	return nil
}

// divide: x, q ^= x mod y, x div y. A zero divisor sets q to all ones and
// leaves x unchanged.
func divide(args []Operand) error {
	if err := expect(args, reg, reg, reg); err != nil {
		return err
	}
	x, y, q := args[0].Value, args[1].Value, args[2].Value
	if y.Sign() == 0 {
		q.Xor(q, oracle.MaxValue(args[2].Width))
		return nil
	}
	quo, rem := new(big.Int).QuoRem(x, y, new(big.Int))
	x.Set(rem)
	q.Xor(q, oracle.Mod2N(quo, args[2].Width))
	return nil
}

// squareRoot: root ^= isqrt(x), x -= isqrt(x)^2.
func squareRoot(args []Operand) error {
	if err := expect(args, reg, reg); err != nil {
		return err
	}
	root, err := oracle.ISqrt(args[0].Value)
	if err != nil {
		return err
	}
	args[0].Value.Sub(args[0].Value, new(big.Int).Mul(root, root))
	args[1].Value.Xor(args[1].Value, oracle.Mod2N(root, args[1].Width))
	return nil
}

// factorialTable: out ^= i! for a table index register i.
func factorialTable(args []Operand) error {
	if err := expect(args, reg, reg); err != nil {
		return err
	}
	f := oracle.Factorial(args[0].Value.Uint64())
	args[1].Value.Xor(args[1].Value, oracle.Mod2N(f, args[1].Width))
	return nil
}

// gcd: g ^= gcd(x, y).
func gcd(args []Operand) error {
	if err := expect(args, reg, reg, reg); err != nil {
		return err
	}
	g := oracle.GCD(args[0].Value, args[1].Value)
	args[2].Value.Xor(args[2].Value, oracle.Mod2N(g, args[2].Width))
	return nil
}

// modExp: out ^= base^e mod modulus.
func modExp(args []Operand) error {
	if err := expect(args, cint, cint, reg, reg); err != nil {
		return err
	}
	r, err := oracle.PowMod(args[0].Value, args[2].Value, args[1].Value)
	if err != nil {
		return err
	}
	args[3].Value.Xor(args[3].Value, oracle.Mod2N(r, args[3].Width))
	return nil
}

// addRadix: y += x, computed digit by digit in the given radix.
func addRadix(args []Operand) error {
	if err := expect(args, reg, reg, cint); err != nil {
		return err
	}
	radix := args[2].Value
	if radix.Cmp(big.NewInt(2)) < 0 {
		return fmt.Errorf("radix must be at least 2, got %s", radix)
	}
	x, y := new(big.Int).Set(args[0].Value), new(big.Int).Set(args[1].Value)
	sum, place, carry := new(big.Int), big.NewInt(1), new(big.Int)
	dx, dy := new(big.Int), new(big.Int)
	for x.Sign() > 0 || y.Sign() > 0 || carry.Sign() > 0 {
		x.QuoRem(x, radix, dx)
		y.QuoRem(y, radix, dy)
		d := new(big.Int).Add(dx, dy)
		d.Add(d, carry)
		carry.QuoRem(d, radix, d)
		sum.Add(sum, d.Mul(d, place))
		place.Mul(place, radix)
	}
	args[1].Value.Set(sum)
	return nil
}

// fermatButterfly: (a, b) -> ((a+b) mod 2^n+1, (a-b) mod 2^n+1) on two
// registers of width n+1.
func fermatButterfly(args []Operand) error {
	if err := expect(args, reg, reg); err != nil {
		return err
	}
	mod := oracle.FermatModulus(args[0].Width - 1)
	s, d := oracle.Butterfly(args[0].Value, args[1].Value, mod)
	args[0].Value.Set(s)
	args[1].Value.Set(d)
	return nil
}

// fermatFFT(m1, xs...) transforms D registers of width n+1 in place into
// the DFT over Z/(2^n+1) with root g = 2^(2*m1). D must be a power of two
// with m1*D = n, so that g is a primitive D-th root of unity. It runs the
// iterative radix-2 transform: a bit-reversal permutation, then log2(D)
// stages of butterflies with power-of-two twiddles.
func fermatFFT(args []Operand) error {
	if len(args) < 2 || args[0].Kind != cint {
		return fmt.Errorf("expected a block size and at least one register")
	}
	regs := args[1:]
	for i, a := range regs {
		if a.Kind != reg || a.Width != regs[0].Width {
			return fmt.Errorf("argument %d is not a register of width %d", i+1, regs[0].Width)
		}
	}
	n, d := regs[0].Width-1, len(regs)
	m1 := int(args[0].Value.Int64())
	if d&(d-1) != 0 || m1 < 1 || m1*d != n {
		return fmt.Errorf("cannot transform %d registers of %d bits with block size %d", d, n, m1)
	}
	mod := oracle.FermatModulus(n)
	bits := 0
	for 1<<bits < d {
		bits++
	}
	xs := make([]*big.Int, d)
	for i := range regs {
		j := int(oracle.ReverseBits(big.NewInt(int64(i)), bits).Int64())
		xs[j] = new(big.Int).Mod(regs[i].Value, mod)
	}
	for size := 2; size <= d; size *= 2 {
		half := size / 2
		// The stage root is g^(D/size) = 2^(2*m1*D/size).
		shift := 2 * m1 * d / size
		for start := 0; start < d; start += size {
			for j := 0; j < half; j++ {
				v := new(big.Int).Lsh(xs[start+j+half], uint(shift*j))
				v.Mod(v, mod)
				xs[start+j], xs[start+j+half] = oracle.Butterfly(xs[start+j], v, mod)
			}
		}
	}
	for i := range regs {
		regs[i].Value.Set(xs[i])
	}
	return nil
}

// modAdd: y = (x + y) mod N.
func modAdd(args []Operand) error {
	if err := expect(args, reg, reg, cint); err != nil {
		return err
	}
	mod, err := modulus(args[2])
	if err != nil {
		return err
	}
	y := args[1].Value
	y.Add(y, args[0].Value).Mod(y, mod)
	return nil
}

// modDbl: x = 2x mod N for an odd N.
func modDbl(args []Operand) error {
	if err := expect(args, reg, cint); err != nil {
		return err
	}
	mod, err := modulus(args[1])
	if err != nil {
		return err
	}
	x := args[0].Value
	x.Lsh(x, 1).Mod(x, mod)
	return nil
}

// modMulFast: z ^= x*y mod N.
func modMulFast(args []Operand) error {
	if err := expect(args, reg, reg, reg, cint); err != nil {
		return err
	}
	mod, err := modulus(args[3])
	if err != nil {
		return err
	}
	p := new(big.Int).Mul(args[0].Value, args[1].Value)
	args[2].Value.Xor(args[2].Value, p.Mod(p, mod))
	return nil
}

// montgomeryMul: z ^= x*y*2^-n mod N for an odd N, with n the width of x.
// The product is reduced bit by bit: add y for every set bit of x, add N
// when the accumulator is odd and halve.
func montgomeryMul(args []Operand) error {
	if err := expect(args, reg, reg, reg, cint); err != nil {
		return err
	}
	mod, err := modulus(args[3])
	if err != nil {
		return err
	}
	if mod.Bit(0) == 0 {
		return fmt.Errorf("reduction needs an odd modulus, got %s", mod)
	}
	x, y := args[0].Value, args[1].Value
	t := new(big.Int)
	for i := 0; i < args[0].Width; i++ {
		if x.Bit(i) == 1 {
			t.Add(t, y)
		}
		if t.Bit(0) == 1 {
			t.Add(t, mod)
		}
		t.Rsh(t, 1)
	}
	t.Mod(t, mod)
	args[2].Value.Xor(args[2].Value, t)
	return nil
}

// mulAddConstMod: out = (out + a*b) mod N.
func mulAddConstMod(args []Operand) error {
	if err := expect(args, cint, cint, reg, reg); err != nil {
		return err
	}
	mod, err := modulus(args[1])
	if err != nil {
		return err
	}
	out := args[3].Value
	out.Add(out, new(big.Int).Mul(args[0].Value, args[2].Value)).Mod(out, mod)
	return nil
}

// mulConstMod: x = a*x mod N for x < N and a invertible modulo N; larger x
// are left unchanged.
func mulConstMod(args []Operand) error {
	if err := expect(args, cint, cint, reg); err != nil {
		return err
	}
	mod, err := modulus(args[1])
	if err != nil {
		return err
	}
	a := args[0].Value
	inv, err := oracle.ModInverse(a, mod)
	if err != nil {
		return err
	}
	x := args[2].Value
	if x.Cmp(mod) >= 0 {
		return nil
	}
	// Out of place into y, then uncompute x = a^-1 * y.
	y := new(big.Int).Mul(a, x)
	y.Mod(y, mod)
	back := new(big.Int).Mul(inv, y)
	if back.Mod(back, mod).Cmp(x) != 0 {
		return fmt.Errorf("uncompute left %s, want %s", back, x)
	}
	x.Set(y)
	return nil
}

// leftShift rotates x left by one bit, which doubles x when its top bit is
// clear.
func leftShift(args []Operand) error {
	if err := expect(args, reg); err != nil {
		return err
	}
	rotate(args[0], 1)
	return nil
}

// cyclicShiftRight moves bit i of x to bit (i + r) mod n for any integer r.
func cyclicShiftRight(args []Operand) error {
	if err := expect(args, reg, cint); err != nil {
		return err
	}
	n := big.NewInt(int64(args[0].Width))
	r := new(big.Int).Mod(args[1].Value, n)
	rotate(args[0], int(r.Int64()))
	return nil
}

func rotate(x Operand, r int) {
	n := x.Width
	v := oracle.Mod2N(x.Value, n)
	hi := new(big.Int).Rsh(v, uint(n-r))
	v.Lsh(v, uint(r))
	x.Value.Set(oracle.Mod2N(v, n))
	x.Value.Or(x.Value, hi)
}

func modulus(a Operand) (*big.Int, error) {
	if a.Value.Sign() <= 0 {
		return nil, fmt.Errorf("modulus must be positive, got %s", a.Value)
	}
	return a.Value, nil
}

// runMultiply(n, x, y) allocates two n-bit inputs and a 2n-bit output in a
// private simulator, multiplies and returns the measured product.
func runMultiply(args []Operand) (engine.Value, error) {
	if err := expect(args, cint, cint, cint); err != nil {
		return engine.Value{}, err
	}
	n := int(args[0].Value.Int64())
	x := engine.Register{Name: "x", Width: n}
	y := engine.Register{Name: "y", Width: n}
	z := engine.Register{Name: "z", Width: 2 * n}
	var p engine.Program
	p.Add(
		engine.Allocate{Register: x}, engine.SetInt{Target: x, Value: args[1].Value},
		engine.Allocate{Register: y}, engine.SetInt{Target: y, Value: args[2].Value},
		engine.Allocate{Register: z},
		engine.Apply{Op: OpMultiply, Args: []engine.Arg{engine.Reg(x), engine.Reg(y), engine.Reg(z)}},
		engine.Measure{Target: z},
	)
	res, err := New(StandardLibrary()).Evaluate(context.Background(), p)
	if err != nil {
		return engine.Value{}, err
	}
	return res.Outputs[0], nil
}

// runDivide(n, x, y) returns (quotient, remainder) computed by the Divide
// circuit in a private simulator.
func runDivide(args []Operand) (engine.Value, error) {
	if err := expect(args, cint, cint, cint); err != nil {
		return engine.Value{}, err
	}
	n := int(args[0].Value.Int64())
	x := engine.Register{Name: "x", Width: n}
	y := engine.Register{Name: "y", Width: n}
	q := engine.Register{Name: "q", Width: n}
	var p engine.Program
	p.Add(
		engine.Allocate{Register: x}, engine.SetInt{Target: x, Value: args[1].Value},
		engine.Allocate{Register: y}, engine.SetInt{Target: y, Value: args[2].Value},
		engine.Allocate{Register: q},
		engine.Apply{Op: OpDivide, Args: []engine.Arg{engine.Reg(x), engine.Reg(y), engine.Reg(q)}},
		engine.Measure{Target: q},
		engine.Measure{Target: x},
	)
	res, err := New(StandardLibrary()).Evaluate(context.Background(), p)
	if err != nil {
		return engine.Value{}, err
	}
	return engine.TupleValue(res.Outputs[0], res.Outputs[1]), nil
}

// runFFT(m1, n, xs...) loads xs into registers of width n+1, runs the
// FermatFFT circuit and returns the measured array.
func runFFT(args []Operand) (engine.Value, error) {
	if len(args) < 3 {
		return engine.Value{}, fmt.Errorf("expected a block size, a width and inputs, got %d arguments", len(args))
	}
	for i, a := range args {
		if a.Kind != cint {
			return engine.Value{}, fmt.Errorf("argument %d has kind %d, want %d", i, a.Kind, cint)
		}
	}
	n := int(args[1].Value.Int64())
	var p engine.Program
	fft := []engine.Arg{engine.Int(args[0].Value)}
	regs := make([]engine.Register, 0, len(args)-2)
	for i, x := range args[2:] {
		r := engine.Register{Name: fmt.Sprintf("x%d", i), Width: n + 1}
		p.Add(engine.Allocate{Register: r}, engine.SetInt{Target: r, Value: x.Value})
		regs = append(regs, r)
		fft = append(fft, engine.Reg(r))
	}
	p.Add(engine.Apply{Op: OpFermatFFT, Args: fft})
	for _, r := range regs {
		p.Add(engine.Measure{Target: r})
	}
	res, err := New(StandardLibrary()).Evaluate(context.Background(), p)
	if err != nil {
		return engine.Value{}, err
	}
	return engine.ArrayValue(res.Outputs...), nil
}
