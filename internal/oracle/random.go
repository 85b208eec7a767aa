package oracle

import (
	"math/big"
	"math/rand"

	apperrors "github.com/agbru/qarithcheck/internal/errors"
)

// RandInRange returns a uniform integer in the closed range [low, high].
func RandInRange(r *rand.Rand, low, high *big.Int) (*big.Int, error) {
	if high.Cmp(low) < 0 {
		return nil, apperrors.DegenerateRangeError{Low: low, High: high, Need: 1}
	}
	span := new(big.Int).Sub(high, low)
	span.Add(span, bigOne)
	v := new(big.Int).Rand(r, span)
	return v.Add(v, low), nil
}

// RandBits returns a uniform integer in [0, 2^n).
func RandBits(r *rand.Rand, n int) *big.Int {
	return new(big.Int).Rand(r, Pow2(n))
}
