package oracle

import "math/big"

// FermatModulus returns 2^n + 1.
func FermatModulus(n int) *big.Int {
	return new(big.Int).Add(Pow2(n), bigOne)
}

// Butterfly returns ((a+b) mod N, (a-b) mod N), the two outputs of one
// radix-2 transform stage.
func Butterfly(a, b, modulus *big.Int) (*big.Int, *big.Int) {
	sum := new(big.Int).Add(a, b)
	sum.Mod(sum, modulus)
	diff := new(big.Int).Sub(a, b)
	diff.Mod(diff, modulus)
	return sum, diff
}

// FermatDFT is the naive O(D^2) discrete Fourier transform over Z/(2^n1+1)
// with root g = 2^(2*m1):
//
//	out[m] = sum_t xs[t] * g^(t*m)  mod 2^n1+1
//
// It is the reference for FFT-style circuits working in a Fermat ring.
func FermatDFT(xs []*big.Int, n1, m1 int) []*big.Int {
	modulus := FermatModulus(n1)
	g := Pow2(2 * m1)
	out := make([]*big.Int, len(xs))
	for m := range xs {
		acc := new(big.Int)
		term := new(big.Int)
		for t, x := range xs {
			e := big.NewInt(int64(t * m))
			term.Exp(g, e, modulus)
			term.Mul(term, x)
			acc.Add(acc, term)
		}
		out[m] = acc.Mod(acc, modulus)
	}
	return out
}
