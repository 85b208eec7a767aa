package campaign

import (
	"context"
	"math/big"
	"math/rand"
	"testing"

	"github.com/agbru/qarithcheck/internal/oracle"
	"github.com/agbru/qarithcheck/internal/simulator"
)

func TestBuiltin_SamplersDrawAdmissibleArguments(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(3))
	for _, c := range DefaultRegistry().GetAll() {
		if c.Sampler == nil {
			continue
		}
		t.Run(c.Name, func(t *testing.T) {
			for _, n := range c.Widths {
				layout := c.layout(n)
				want := len(c.Params) + c.Shape.inputs(layout)
				lows, highs := c.ranges(n)
				for i := 0; i < 200; i++ {
					args, err := c.Sampler(rng, n)
					if err != nil {
						t.Fatalf("n=%d: %v", n, err)
					}
					if len(args) != want {
						t.Fatalf("n=%d: drew %d arguments, want %d", n, len(args), want)
					}
					if c.Filter != nil && !c.Filter(n, args) {
						t.Fatalf("n=%d: %v rejected by the filter", n, args)
					}
					for j, a := range args {
						if a.Cmp(lows[j]) < 0 || a.Cmp(highs[j]) > 0 {
							t.Fatalf("n=%d: argument %d = %s outside [%s, %s]", n, j, a, lows[j], highs[j])
						}
					}
				}
			}
		})
	}
}

func TestBuiltin_FFTSizes(t *testing.T) {
	t.Parallel()
	c, err := DefaultRegistry().Get("fermat-fft")
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range c.Widths {
		d, m1 := len(c.layout(n)), fftBlock(n)
		if d&(d-1) != 0 || d > maxFFTPoints {
			t.Errorf("n=%d: %d points", n, d)
		}
		if m1*d != n {
			t.Errorf("n=%d: m1=%d and %d points do not cover the width", n, m1, d)
		}
		// The root 2^(2*m1) has order d modulo 2^n+1.
		g := oracle.Pow2(2 * m1)
		if new(big.Int).Exp(g, big.NewInt(int64(d)), oracle.FermatModulus(n)).Cmp(big.NewInt(1)) != 0 {
			t.Errorf("n=%d: g^%d != 1", n, d)
		}
	}
}

func TestBuiltin_OverflowBitVariesCarryIn(t *testing.T) {
	t.Parallel()
	c, err := DefaultRegistry().Get("overflow-bit")
	if err != nil {
		t.Fatal(err)
	}
	c.Widths = []int{3}

	// An overflow bit that ignores its carry-in passes every case with a
	// clear carry, so only cases drawing carry-in 1 can catch it.
	noCarry := simulator.NewLibrary().Define(simulator.OpOverflowBit.FullName(), func(args []simulator.Operand) error {
		sum := new(big.Int).Add(args[0].Value, args[1].Value)
		if sum.BitLen() > args[1].Width {
			args[2].Value.Xor(args[2].Value, big.NewInt(1))
		}
		return nil
	})
	rep := newRunner(simulator.StandardLibrary().Merge(noCarry)).Run(context.Background(), c)
	if rep.OK() {
		t.Fatal("an overflow bit ignoring its carry-in passed")
	}
	for _, f := range rep.Failures {
		if len(f.Inputs) < 2 || f.Inputs[1].Int64() != 1 {
			t.Errorf("failure with carry-in %v: %v", f.Inputs, f.Err)
		}
	}

	if rep := newRunner(simulator.StandardLibrary()).Run(context.Background(), c); !rep.OK() {
		t.Errorf("correct overflow bit failed: %v", rep.FirstError())
	}
}
