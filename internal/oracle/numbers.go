package oracle

import (
	"math/big"

	apperrors "github.com/agbru/qarithcheck/internal/errors"
)

var bigOne = big.NewInt(1)

// GCD returns the greatest common divisor of |a| and |b|; GCD(0, 0) is 0.
func GCD(a, b *big.Int) *big.Int {
	x := new(big.Int).Abs(a)
	y := new(big.Int).Abs(b)
	return new(big.Int).GCD(nil, nil, x, y)
}

// ISqrt returns floor(sqrt(x)) for x >= 0.
func ISqrt(x *big.Int) (*big.Int, error) {
	if x.Sign() < 0 {
		return nil, apperrors.ValidationError{Field: "x", Message: "square root of a negative integer"}
	}
	return new(big.Int).Sqrt(x), nil
}

// Factorial returns n!.
func Factorial(n uint64) *big.Int {
	return new(big.Int).MulRange(1, int64(n))
}

// ModInverse returns the inverse of a modulo m, or an error when a and m are
// not coprime.
func ModInverse(a, m *big.Int) (*big.Int, error) {
	if m.Sign() <= 0 {
		return nil, apperrors.ValidationError{Field: "modulus", Message: "must be positive"}
	}
	inv := new(big.Int).ModInverse(new(big.Int).Mod(a, m), m)
	if inv == nil {
		return nil, apperrors.ValidationError{Field: "a", Message: a.String() + " is not invertible modulo " + m.String()}
	}
	return inv, nil
}

// Pow2 returns 2^n.
func Pow2(n int) *big.Int {
	return new(big.Int).Lsh(bigOne, uint(n))
}

// MaxValue returns 2^n - 1, the largest value of an n-bit register.
func MaxValue(n int) *big.Int {
	return new(big.Int).Sub(Pow2(n), bigOne)
}

// Mod2N reduces x into an n-bit register, i.e. x mod 2^n with a non-negative
// result for negative x.
func Mod2N(x *big.Int, n int) *big.Int {
	return new(big.Int).Mod(x, Pow2(n))
}

// ReverseBits reverses the lowest n bits of x. Bits above n are ignored.
func ReverseBits(x *big.Int, n int) *big.Int {
	out := new(big.Int)
	for i := 0; i < n; i++ {
		if x.Bit(i) == 1 {
			out.SetBit(out, n-1-i, 1)
		}
	}
	return out
}
