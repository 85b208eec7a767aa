package superposition

import (
	"math/big"
	"math/rand"

	apperrors "github.com/agbru/qarithcheck/internal/errors"
	"github.com/agbru/qarithcheck/internal/oracle"
)

// UnaryFunc is a classical function on one register value.
type UnaryFunc func(x *big.Int) *big.Int

// BinaryFunc is a classical function on two register values.
type BinaryFunc func(x, y *big.Int) *big.Int

// RandomOfTwo draws two distinct uniform values in [low, high] and splits the
// probability mass p ~ U(0, 1) and 1-p between them. Draws repeat until the
// values differ; a range with fewer than two integers fails immediately with
// a DegenerateRangeError.
func RandomOfTwo(r *rand.Rand, low, high *big.Int) (Superposition, error) {
	if high.Cmp(low) <= 0 {
		return Superposition{}, apperrors.DegenerateRangeError{Low: low, High: high, Need: 2}
	}
	var v1, v2 *big.Int
	for v1 == nil || v1.Cmp(v2) == 0 {
		var err error
		if v1, err = oracle.RandInRange(r, low, high); err != nil {
			return Superposition{}, err
		}
		if v2, err = oracle.RandInRange(r, low, high); err != nil {
			return Superposition{}, err
		}
	}
	p := openUnit(r)
	return New(Entry{Value: v1, Probability: p}, Entry{Value: v2, Probability: 1 - p})
}

// openUnit draws uniformly from the open interval (0, 1).
func openUnit(r *rand.Rand) float64 {
	for {
		if p := r.Float64(); p > 0 {
			return p
		}
	}
}

// ApplyUnary returns the image of s under f: each value v contributes its
// probability to f(v).
func ApplyUnary(s Superposition, f UnaryFunc) (Superposition, error) {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, Entry{Value: f(new(big.Int).Set(e.Value)), Probability: e.Probability})
	}
	return build("convolution", out)
}

// ApplyBinary returns the joint image of independent s and t under f: every
// pair (x, y) contributes p(x)*p(y) to f(x, y).
func ApplyBinary(s, t Superposition, f BinaryFunc) (Superposition, error) {
	out := make([]Entry, 0, len(s.entries)*len(t.entries))
	for _, a := range s.entries {
		for _, b := range t.entries {
			out = append(out, Entry{
				Value:       f(new(big.Int).Set(a.Value), new(big.Int).Set(b.Value)),
				Probability: a.Probability * b.Probability,
			})
		}
	}
	return build("convolution", out)
}
