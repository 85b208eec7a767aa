//go:build gmp

package oracle

import (
	"math/big"

	"github.com/ncw/gmp"
)

// PowModGMP computes (base**exponent) % modulus with GMP. It is only built
// with the gmp tag and serves as an independent cross-check of PowMod.
func PowModGMP(base, exponent, modulus *big.Int) *big.Int {
	b, _ := new(gmp.Int).SetString(base.String(), 10)
	e, _ := new(gmp.Int).SetString(exponent.String(), 10)
	m, _ := new(gmp.Int).SetString(modulus.String(), 10)
	b.Mod(b, m)
	r := new(gmp.Int).Exp(b, e, m)
	out, _ := new(big.Int).SetString(r.String(), 10)
	return out
}
