package oracle

import (
	"math/big"
	"math/rand"

	apperrors "github.com/agbru/qarithcheck/internal/errors"
)

// DefaultCoprimeAttempts bounds RandomCoprime when no explicit budget is given.
const DefaultCoprimeAttempts = 100

// RandomCoprime draws candidates uniformly from [2, modulus-1] and returns the
// first one coprime to modulus.
//
// The search is probabilistic: after attempts draws (DefaultCoprimeAttempts
// when attempts <= 0) it fails with a CoprimeExhaustedError instead of
// returning a wrong value. A modulus below 3 has an empty candidate range and
// fails immediately with a DegenerateRangeError.
func RandomCoprime(r *rand.Rand, modulus *big.Int, attempts int) (*big.Int, error) {
	if attempts <= 0 {
		attempts = DefaultCoprimeAttempts
	}
	low := big.NewInt(2)
	high := new(big.Int).Sub(modulus, big.NewInt(1))
	if high.Cmp(low) < 0 {
		return nil, apperrors.DegenerateRangeError{Low: low, High: high, Need: 1}
	}

	g := new(big.Int)
	for i := 0; i < attempts; i++ {
		candidate, err := RandInRange(r, low, high)
		if err != nil {
			return nil, err
		}
		if g.GCD(nil, nil, candidate, modulus).Cmp(big.NewInt(1)) == 0 {
			return candidate, nil
		}
	}
	return nil, apperrors.CoprimeExhaustedError{Modulus: new(big.Int).Set(modulus), Attempts: attempts}
}
