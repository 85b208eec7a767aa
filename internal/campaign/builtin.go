package campaign

import (
	"fmt"
	"math/big"
	"math/rand"
	"slices"

	"github.com/agbru/qarithcheck/internal/engine"
	"github.com/agbru/qarithcheck/internal/oracle"
	"github.com/agbru/qarithcheck/internal/simulator"
)

// DefaultRegistry returns the built-in campaigns over the reference
// simulator's namespace.
func DefaultRegistry() *Registry {
	return BuiltinRegistry(simulator.Namespace)
}

// BuiltinRegistry returns the built-in campaigns with operations resolved in
// namespace.
func BuiltinRegistry(namespace string) *Registry {
	return NewRegistry().MustRegister(Builtin(namespace)...)
}

// Builtin declares the built-in campaigns.
func Builtin(namespace string) []Circuit {
	op := func(name string, args ...engine.Arg) engine.OpRef {
		return engine.Op(namespace, name).With(args...)
	}
	return []Circuit{
		{
			Name:          "add",
			Description:   "ripple-carry addition y += x mod 2^n",
			Op:            op("Add"),
			Shape:         Shape{Kind: BinaryInPlace},
			Reference:     binary(func(n int, x, y *big.Int) *big.Int { return oracle.Mod2N(new(big.Int).Add(x, y), n) }),
			Widths:        []int{1, 2, 3, 4, 5, 6, 8, 16, 32, 63, 64, 65, 100},
			Superposition: []int{4, 8, 64},
		},
		{
			Name:        "add-with-carry",
			Description: "addition with the overflow written to a carry qubit",
			Op:          op("AddWithCarry"),
			Shape:       Shape{Kind: BinaryInPlaceCarry},
			Reference:   binary(func(_ int, x, y *big.Int) *big.Int { return new(big.Int).Add(x, y) }),
			Widths:      []int{1, 2, 3, 4, 6, 16, 64},
		},
		{
			Name:        "controlled-add",
			Description: "controlled addition, identity with the control clear",
			Op:          op("Add"),
			Shape:       Shape{Kind: BinaryInPlace, Controlled: true},
			Reference:   binary(func(n int, x, y *big.Int) *big.Int { return oracle.Mod2N(new(big.Int).Add(x, y), n) }),
			Widths:      []int{1, 2, 3, 4, 8, 32},
		},
		{
			Name:          "subtract",
			Description:   "subtraction y -= x mod 2^n",
			Op:            op("Subtract"),
			Shape:         Shape{Kind: BinaryInPlace},
			Reference:     binary(func(n int, x, y *big.Int) *big.Int { return oracle.Mod2N(new(big.Int).Sub(y, x), n) }),
			Widths:        []int{1, 2, 3, 4, 8, 16, 64},
			Superposition: []int{8},
		},
		{
			Name:          "increment",
			Description:   "increment x += 1 mod 2^n",
			Op:            op("Increment"),
			Shape:         Shape{Kind: UnaryInPlace},
			Reference:     unary(func(n int, x *big.Int) *big.Int { return oracle.Mod2N(new(big.Int).Add(x, big.NewInt(1)), n) }),
			Widths:        []int{1, 2, 3, 4, 5, 8, 32, 64},
			Superposition: []int{6},
		},
		{
			Name:        "add-constant",
			Description: "controlled addition of a classical constant in [-2^(n+1), 2^(n+1)]",
			Op:          op("AddConstant", engine.Param(0), engine.Hole()),
			Shape:       Shape{Kind: UnaryInPlace, Controlled: true},
			Params: []Range{func(n int) (*big.Int, *big.Int) {
				bound := oracle.Pow2(n + 1)
				return new(big.Int).Neg(bound), bound
			}},
			Reference: func(n int, args []*big.Int) ([]*big.Int, error) {
				return one(oracle.Mod2N(new(big.Int).Add(args[1], args[0]), n)), nil
			},
			Widths:        []int{1, 2, 3, 4, 6, 16, 32},
			Superposition: []int{5},
		},
		{
			Name:        "compare-less",
			Description: "flips a target qubit when the constant c is below x",
			Op:          op("CompareByConstLT", engine.Param(0), engine.Hole(), engine.Hole()),
			Shape:       Shape{Kind: UnaryPredicate},
			Params:      []Range{Bits(func(n int) int { return n })},
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				return one(truth(args[0].Cmp(args[1]) < 0)), nil
			},
			Widths: []int{1, 2, 3, 4, 12, 24},
		},
		{
			Name:        "compare-less-equal",
			Description: "flips a target qubit when the constant c is at most x",
			Op:          op("CompareByConstLE", engine.Param(0), engine.Hole(), engine.Hole()),
			Shape:       Shape{Kind: UnaryPredicate},
			Params:      []Range{Bits(func(n int) int { return n })},
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				return one(truth(args[0].Cmp(args[1]) <= 0)), nil
			},
			Widths: []int{1, 2, 3, 4, 12, 24},
		},
		{
			Name:        "compare-greater",
			Description: "flips a target qubit when the constant c is above x",
			Op:          op("CompareByConstGT", engine.Param(0), engine.Hole(), engine.Hole()),
			Shape:       Shape{Kind: UnaryPredicate},
			Params:      []Range{Bits(func(n int) int { return n })},
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				return one(truth(args[0].Cmp(args[1]) > 0)), nil
			},
			Widths: []int{1, 2, 3, 4, 12, 24},
		},
		{
			Name:        "compare-greater-equal",
			Description: "flips a target qubit when the constant c is at least x",
			Op:          op("CompareByConstGE", engine.Param(0), engine.Hole(), engine.Hole()),
			Shape:       Shape{Kind: UnaryPredicate},
			Params:      []Range{Bits(func(n int) int { return n })},
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				return one(truth(args[0].Cmp(args[1]) >= 0)), nil
			},
			Widths: []int{1, 2, 3, 4, 12, 24},
		},
		{
			Name:        "overflow-bit",
			Description: "flips a target qubit when c + x + carry-in overflows n bits",
			Op:          op("OverflowBit", engine.Param(0), engine.Hole(), engine.Hole(), engine.ParamBool(1)),
			Shape:       Shape{Kind: UnaryPredicate},
			Params:      []Range{Bits(func(n int) int { return n }), Span(0, 1)},
			Reference: func(n int, args []*big.Int) ([]*big.Int, error) {
				sum := new(big.Int).Add(args[0], args[1])
				sum.Add(sum, args[2])
				return one(truth(sum.BitLen() > n)), nil
			},
			Widths: []int{1, 2, 3, 4, 10, 40},
		},
		{
			Name:        "left-shift",
			Description: "x <- 2x for x below 2^(n-1)",
			Op:          op("LeftShift"),
			Shape:       Shape{Kind: UnaryInPlace},
			Bounds:      []Range{Bits(func(n int) int { return n - 1 })},
			Reference: unary(func(_ int, x *big.Int) *big.Int {
				return new(big.Int).Lsh(x, 1)
			}),
			Widths:        []int{1, 2, 4, 8, 16, 32},
			Superposition: []int{8},
		},
		{
			Name:        "cyclic-shift-right",
			Description: "rotation moving bit i to bit (i + r) mod n for r in [-n, n]",
			Op:          op("CyclicShiftRight", engine.Hole(), engine.Param(0)),
			Shape:       Shape{Kind: UnaryInPlace},
			Params: []Range{func(n int) (*big.Int, *big.Int) {
				return big.NewInt(int64(-n)), big.NewInt(int64(n))
			}},
			Reference: func(n int, args []*big.Int) ([]*big.Int, error) {
				r := int(new(big.Int).Mod(args[0], big.NewInt(int64(n))).Int64())
				x := args[1]
				out := new(big.Int).Rsh(x, uint(n-r))
				low := oracle.Mod2N(x, n-r)
				return one(out.Add(out, low.Lsh(low, uint(r)))), nil
			},
			Widths:        []int{1, 2, 4, 6, 8, 16, 32, 64},
			Superposition: []int{8},
		},
		{
			Name:          "multiply",
			Description:   "out-of-place product into a 2n-bit register",
			Op:            op("Multiply"),
			Shape:         Shape{Kind: BinaryOutOfPlace},
			Layout:        func(n int) []int { return []int{n, n, 2 * n} },
			Reference:     binary(func(_ int, x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) }),
			Widths:        []int{1, 2, 3, 4, 8, 16, 32},
			Superposition: []int{4},
		},
		{
			Name:        "divide",
			Description: "x, q <- x mod y, x div y for a divisor in [1, 2^(n-1)-1]",
			Op:          op("Divide"),
			Shape:       Shape{Kind: ReadAll},
			Layout:      func(n int) []int { return []int{n, n, n} },
			Bounds:      []Range{nil, divisorRange, Zero()},
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				x, y := args[0], args[1]
				if y.Sign() == 0 {
					return nil, fmt.Errorf("zero divisor")
				}
				q, r := new(big.Int).QuoRem(x, y, new(big.Int))
				return []*big.Int{r, new(big.Int).Set(y), q}, nil
			},
			Widths: []int{2, 3, 4, 8, 16, 64},
		},
		{
			Name:        "square-root",
			Description: "root <- isqrt(x) and x <- x - root^2 on a 2n-bit radicand",
			Op:          op("SquareRoot"),
			Shape:       Shape{Kind: ReadAll},
			Layout:      func(n int) []int { return []int{2 * n, n} },
			Bounds:      []Range{nil, Zero()},
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				root, err := oracle.ISqrt(args[0])
				if err != nil {
					return nil, err
				}
				rest := new(big.Int).Sub(args[0], new(big.Int).Mul(root, root))
				return []*big.Int{rest, root}, nil
			},
			Widths: []int{1, 2, 3, 8, 16, 32},
		},
		{
			Name:        "factorial-table",
			Description: "table lookup out ^= i! for an n-bit index",
			Op:          op("FactorialTable"),
			Shape:       Shape{Kind: ReadAll},
			Layout:      func(n int) []int { return []int{n, 4 << n} },
			Bounds:      []Range{nil, Zero()},
			Reference: func(n int, args []*big.Int) ([]*big.Int, error) {
				f := oracle.Factorial(args[0].Uint64())
				return []*big.Int{new(big.Int).Set(args[0]), oracle.Mod2N(f, 4<<n)}, nil
			},
			Widths: []int{1, 2, 3, 4, 6},
		},
		{
			Name:        "gcd",
			Description: "out-of-place greatest common divisor",
			Op:          op("GCD"),
			Shape:       Shape{Kind: BinaryOutOfPlace},
			Reference:   binary(func(_ int, x, y *big.Int) *big.Int { return oracle.GCD(x, y) }),
			Widths:      []int{1, 2, 3, 4, 8, 32},
		},
		{
			Name:        "modexp",
			Description: "out ^= base^e mod m for a base coprime to m",
			Op:          op("ModExp", engine.Param(0), engine.Param(1), engine.Hole(), engine.Hole()),
			Shape:       Shape{Kind: ReadAll},
			Layout:      func(n int) []int { return []int{n, n} },
			Params: []Range{
				func(n int) (*big.Int, *big.Int) { return big.NewInt(2), oracle.MaxValue(n) },
				func(n int) (*big.Int, *big.Int) { return big.NewInt(3), oracle.MaxValue(n) },
			},
			Bounds: []Range{nil, Zero()},
			Filter: func(_ int, args []*big.Int) bool {
				return oracle.GCD(args[0], args[1]).Cmp(big.NewInt(1)) == 0
			},
			Sampler: sampleModExp,
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				r, err := oracle.PowMod(args[0], args[2], args[1])
				if err != nil {
					return nil, err
				}
				return []*big.Int{new(big.Int).Set(args[2]), r}, nil
			},
			Widths:           []int{2, 3, 8, 16, 32, 64},
			ExhaustiveWidths: []int{2, 3},
		},
		{
			Name:        "radix-add",
			Description: "digitwise addition in radix 3 of inputs in [0, 2^(n-1)]",
			Op:          op("AddRadix"),
			Shape:       Shape{Kind: BinaryInPlace, Radix: 3},
			Bounds:      []Range{halfRange, halfRange},
			Reference: binary(func(n int, x, y *big.Int) *big.Int {
				return oracle.Mod2N(new(big.Int).Add(x, y), n)
			}),
			Widths:        []int{1, 2, 3, 4, 8, 32},
			Superposition: []int{6},
		},
		{
			Name:        "fermat-butterfly",
			Description: "(a, b) <- (a+b, a-b) mod 2^n+1",
			Op:          op("FermatButterfly"),
			Shape:       Shape{Kind: ReadAll},
			Layout:      func(n int) []int { return []int{n + 1, n + 1} },
			Bounds:      []Range{fermatRange, fermatRange},
			Reference: func(n int, args []*big.Int) ([]*big.Int, error) {
				s, d := oracle.Butterfly(args[0], args[1], oracle.FermatModulus(n))
				return []*big.Int{s, d}, nil
			},
			Widths: []int{1, 2, 3, 8, 16, 32},
		},
		{
			Name:        "fermat-fft",
			Description: "routine running an n/m1-point transform over Z/(2^n+1) with root 2^(2*m1)",
			Op:          op("RunFFT", engine.Param(0)),
			Shape:       Shape{Kind: Returned},
			Layout:      fftLayout,
			Params: []Range{func(n int) (*big.Int, *big.Int) {
				m1 := big.NewInt(int64(fftBlock(n)))
				return m1, m1
			}},
			Bounds: slices.Repeat([]Range{fermatRange}, maxFFTPoints),
			Reference: func(n int, args []*big.Int) ([]*big.Int, error) {
				return oracle.FermatDFT(args[1:], n, int(args[0].Int64())), nil
			},
			Widths:           []int{4, 8, 16, 32, 48},
			ExhaustiveWidths: []int{},
		},
		{
			Name:        "mod-add",
			Description: "y <- (x + y) mod N for x, y below N",
			Op:          op("ModAdd", engine.Hole(), engine.Hole(), engine.Param(0)),
			Shape:       Shape{Kind: BinaryInPlace},
			Params:      []Range{modulusRange(2)},
			Filter: func(_ int, args []*big.Int) bool {
				return below(args[0], args[1:]...)
			},
			Sampler: sampleModular(func(r *rand.Rand, n int) (*big.Int, error) {
				return oracle.RandInRange(r, big.NewInt(2), oracle.MaxValue(n))
			}, 2),
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				sum := new(big.Int).Add(args[1], args[2])
				return one(sum.Mod(sum, args[0])), nil
			},
			Widths: []int{2, 3, 4, 5, 6, 10, 20, 32},
		},
		{
			Name:        "mod-double",
			Description: "x <- 2x mod N for an odd N and x below N",
			Op:          op("ModDbl", engine.Hole(), engine.Param(0)),
			Shape:       Shape{Kind: UnaryInPlace},
			Params:      []Range{modulusRange(3)},
			Filter:      oddModulus,
			Sampler:     sampleModular(randomOddModulus, 1),
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				x := new(big.Int).Lsh(args[1], 1)
				return one(x.Mod(x, args[0])), nil
			},
			Widths: []int{2, 3, 4, 5, 6, 10, 20, 32},
		},
		{
			Name:        "mod-multiply",
			Description: "out-of-place z <- x*y mod N for an odd N",
			Op:          op("ModMulFast", engine.Hole(), engine.Hole(), engine.Hole(), engine.Param(0)),
			Shape:       Shape{Kind: BinaryOutOfPlace},
			Params:      []Range{modulusRange(3)},
			Filter:      oddModulus,
			Sampler:     sampleModular(randomOddModulus, 2),
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				p := new(big.Int).Mul(args[1], args[2])
				return one(p.Mod(p, args[0])), nil
			},
			Widths: []int{2, 3, 4, 5, 6, 10, 20},
		},
		{
			Name:        "montgomery-multiply",
			Description: "out-of-place Montgomery product z <- x*y*2^-n mod N for an odd N",
			Op:          op("MontgomeryMul", engine.Hole(), engine.Hole(), engine.Hole(), engine.Param(0)),
			Shape:       Shape{Kind: BinaryOutOfPlace},
			Params:      []Range{modulusRange(3)},
			Filter:      oddModulus,
			Sampler:     sampleModular(randomOddModulus, 2),
			Reference: func(n int, args []*big.Int) ([]*big.Int, error) {
				rInv, err := oracle.ModInverse(oracle.Pow2(n), args[0])
				if err != nil {
					return nil, err
				}
				p := new(big.Int).Mul(args[1], args[2])
				p.Mul(p, rInv)
				return one(p.Mod(p, args[0])), nil
			},
			Widths: []int{2, 3, 4, 6, 8, 16, 32},
		},
		{
			Name:        "multiply-add-constant-mod",
			Description: "out <- (out + a*b) mod N into a clear register, for a below N",
			Op:          op("MulAddConstMod", engine.Param(0), engine.Param(1), engine.Hole(), engine.Hole()),
			Shape:       Shape{Kind: ReadAll},
			Layout:      func(n int) []int { return []int{n, n} },
			Params: []Range{
				func(n int) (*big.Int, *big.Int) {
					return big.NewInt(1), new(big.Int).Sub(oracle.MaxValue(n), big.NewInt(1))
				},
				modulusRange(2),
			},
			Bounds: []Range{nil, Zero()},
			Filter: func(n int, args []*big.Int) bool {
				a, mod, b := args[0], args[1], args[2]
				limit := new(big.Int).Lsh(mod, uint(n))
				return a.Cmp(mod) < 0 && new(big.Int).Mul(a, b).Cmp(limit) < 0
			},
			Sampler: sampleMulAddConstMod,
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				p := new(big.Int).Mul(args[0], args[2])
				return []*big.Int{new(big.Int).Set(args[2]), p.Mod(p, args[1])}, nil
			},
			Widths: []int{2, 3, 4, 8, 16},
		},
		{
			Name:        "multiply-constant-mod",
			Description: "x <- a*x mod N in place for a coprime to N and x below N",
			Op:          op("MulConstMod", engine.Param(0), engine.Param(1), engine.Hole()),
			Shape:       Shape{Kind: UnaryInPlace},
			Params: []Range{
				func(n int) (*big.Int, *big.Int) {
					return big.NewInt(2), new(big.Int).Sub(oracle.MaxValue(n), big.NewInt(1))
				},
				modulusRange(3),
			},
			Filter: func(_ int, args []*big.Int) bool {
				a, mod := args[0], args[1]
				return below(mod, a, args[2]) && oracle.GCD(a, mod).Cmp(big.NewInt(1)) == 0
			},
			Sampler: sampleMulConstMod,
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				p := new(big.Int).Mul(args[0], args[2])
				return one(p.Mod(p, args[1])), nil
			},
			Widths: []int{2, 3, 4, 6, 8, 16},
		},
		{
			Name:        "multiply-returned",
			Description: "routine running the multiplier and returning the product",
			Op:          op("RunMultiply"),
			Shape:       Shape{Kind: Returned},
			Layout:      func(n int) []int { return []int{n, n} },
			Reference:   binary(func(_ int, x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) }),
			Widths:      []int{1, 2, 3, 4, 16, 64},
		},
		{
			Name:        "divide-returned",
			Description: "routine running the divider and returning (quotient, remainder)",
			Op:          op("RunDivide"),
			Shape:       Shape{Kind: Returned},
			Layout:      func(n int) []int { return []int{n, n} },
			Bounds:      []Range{nil, func(n int) (*big.Int, *big.Int) { return big.NewInt(1), oracle.MaxValue(n) }},
			Reference: func(_ int, args []*big.Int) ([]*big.Int, error) {
				if args[1].Sign() == 0 {
					return nil, fmt.Errorf("zero divisor")
				}
				q, r := new(big.Int).QuoRem(args[0], args[1], new(big.Int))
				return []*big.Int{q, r}, nil
			},
			Widths: []int{1, 2, 3, 4, 16, 64},
		},
	}
}

func one(v *big.Int) []*big.Int { return []*big.Int{v} }

func truth(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

func unary(f func(n int, x *big.Int) *big.Int) Reference {
	return func(n int, args []*big.Int) ([]*big.Int, error) {
		return one(f(n, args[len(args)-1])), nil
	}
}

func binary(f func(n int, x, y *big.Int) *big.Int) Reference {
	return func(n int, args []*big.Int) ([]*big.Int, error) {
		k := len(args)
		return one(f(n, args[k-2], args[k-1])), nil
	}
}

func divisorRange(n int) (*big.Int, *big.Int) {
	hi := oracle.MaxValue(n - 1)
	if hi.Sign() == 0 {
		hi.SetInt64(1)
	}
	return big.NewInt(1), hi
}

func halfRange(n int) (*big.Int, *big.Int) {
	return big.NewInt(0), oracle.Pow2(n - 1)
}

func fermatRange(n int) (*big.Int, *big.Int) {
	return big.NewInt(0), oracle.Pow2(n)
}

// sampleModExp draws a modulus, a base coprime to it and an exponent.
func sampleModExp(r *rand.Rand, n int) ([]*big.Int, error) {
	mod, err := oracle.RandInRange(r, big.NewInt(3), oracle.MaxValue(n))
	if err != nil {
		return nil, err
	}
	base, err := oracle.RandomCoprime(r, mod, 0)
	if err != nil {
		return nil, err
	}
	return []*big.Int{base, mod, oracle.RandBits(r, n), big.NewInt(0)}, nil
}

// maxFFTPoints is the largest transform size among the fermat-fft widths.
const maxFFTPoints = 16

// fftBlock returns m1 for width n: the transform has n/m1 points and root
// 2^(2*m1), a primitive root of unity of that order modulo 2^n+1.
func fftBlock(n int) int {
	return max(1, n/maxFFTPoints)
}

func fftLayout(n int) []int {
	return slices.Repeat([]int{n + 1}, n/fftBlock(n))
}

// modulusRange is the range [low, 2^n-1] of a modulus at width n.
func modulusRange(low int64) Range {
	return func(n int) (*big.Int, *big.Int) { return big.NewInt(low), oracle.MaxValue(n) }
}

// below reports whether every x is below mod.
func below(mod *big.Int, xs ...*big.Int) bool {
	for _, x := range xs {
		if x.Cmp(mod) >= 0 {
			return false
		}
	}
	return true
}

// oddModulus admits an odd modulus args[0] and inputs below it.
func oddModulus(_ int, args []*big.Int) bool {
	return args[0].Bit(0) == 1 && below(args[0], args[1:]...)
}

// randomOddModulus draws N = 1 + 2k for k in [1, 2^(n-1)-1].
func randomOddModulus(r *rand.Rand, n int) (*big.Int, error) {
	k, err := oracle.RandInRange(r, big.NewInt(1), oracle.MaxValue(n-1))
	if err != nil {
		return nil, err
	}
	return k.Lsh(k, 1).Add(k, big.NewInt(1)), nil
}

// sampleModular draws a modulus, then inputs uniform values below it.
func sampleModular(modulus func(r *rand.Rand, n int) (*big.Int, error), inputs int) Sampler {
	return func(r *rand.Rand, n int) ([]*big.Int, error) {
		mod, err := modulus(r, n)
		if err != nil {
			return nil, err
		}
		args := []*big.Int{mod}
		for i := 0; i < inputs; i++ {
			x, err := oracle.RandInRange(r, big.NewInt(0), new(big.Int).Sub(mod, big.NewInt(1)))
			if err != nil {
				return nil, err
			}
			args = append(args, x)
		}
		return args, nil
	}
}

// sampleMulAddConstMod draws a modulus N, a multiplier a below it and a
// multiplicand b with a*b < 2^n*N.
func sampleMulAddConstMod(r *rand.Rand, n int) ([]*big.Int, error) {
	mod, err := oracle.RandInRange(r, big.NewInt(2), oracle.MaxValue(n))
	if err != nil {
		return nil, err
	}
	a, err := oracle.RandInRange(r, big.NewInt(1), new(big.Int).Sub(mod, big.NewInt(1)))
	if err != nil {
		return nil, err
	}
	// b < min(2^n, ceil(2^n*N/a)).
	limit := new(big.Int).Lsh(mod, uint(n))
	limit.Add(limit, a).Sub(limit, big.NewInt(1)).Quo(limit, a)
	if p := oracle.Pow2(n); p.Cmp(limit) < 0 {
		limit = p
	}
	b, err := oracle.RandInRange(r, big.NewInt(0), limit.Sub(limit, big.NewInt(1)))
	if err != nil {
		return nil, err
	}
	return []*big.Int{a, mod, b, big.NewInt(0)}, nil
}

// sampleMulConstMod draws a modulus N, a multiplier coprime to it and an
// input below N.
func sampleMulConstMod(r *rand.Rand, n int) ([]*big.Int, error) {
	mod, err := oracle.RandInRange(r, big.NewInt(3), oracle.MaxValue(n))
	if err != nil {
		return nil, err
	}
	a, err := oracle.RandomCoprime(r, mod, 0)
	if err != nil {
		return nil, err
	}
	x, err := oracle.RandInRange(r, big.NewInt(0), new(big.Int).Sub(mod, big.NewInt(1)))
	if err != nil {
		return nil, err
	}
	return []*big.Int{a, mod, x}, nil
}
