package oracle

import (
	"math/big"

	apperrors "github.com/agbru/qarithcheck/internal/errors"
)

// PowMod computes (base**exponent) % modulus by right-to-left binary
// exponentiation, using O(log exponent) modular multiplications.
//
// The result is always in [0, modulus), including for modulus 1 where it is
// 0, and for negative bases which are first reduced into the ring.
func PowMod(base, exponent, modulus *big.Int) (*big.Int, error) {
	if modulus == nil || modulus.Sign() <= 0 {
		return nil, apperrors.ValidationError{Field: "modulus", Message: "must be positive"}
	}
	if exponent == nil || exponent.Sign() < 0 {
		return nil, apperrors.ValidationError{Field: "exponent", Message: "must be non-negative"}
	}

	result := new(big.Int).Mod(big.NewInt(1), modulus)
	b := new(big.Int).Mod(base, modulus)
	for i := 0; i < exponent.BitLen(); i++ {
		if exponent.Bit(i) == 1 {
			result.Mul(result, b)
			result.Mod(result, modulus)
		}
		b.Mul(b, b)
		b.Mod(b, modulus)
	}
	return result, nil
}
