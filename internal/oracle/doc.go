// Package oracle provides exact classical reference implementations of the
// integer functions that quantum arithmetic circuits are verified against:
// modular exponentiation, coprime search, modular inverse, gcd, integer square
// root, factorial, Fermat-ring transforms and the register-width helpers used
// to reduce values modulo 2^n.
//
// All functions operate on arbitrary-precision integers and never mutate
// their arguments.
package oracle
