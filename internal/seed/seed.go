// Package seed derives reproducible per-case random seeds from one master
// seed, so a failing case can be replayed in isolation without rerunning the
// whole campaign.
package seed

import (
	"encoding/binary"
	"math/rand"

	"golang.org/x/crypto/sha3"
)

// Derive hashes the master seed, a domain label and any number of integer
// coordinates (width, case index, ...) with SHAKE-256 and folds the first
// eight output bytes into a non-negative int64 seed.
func Derive(master int64, label string, coords ...int) int64 {
	h := sha3.NewShake256()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(master))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(label))
	for _, c := range coords {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(c)))
		_, _ = h.Write(buf[:])
	}
	_, _ = h.Read(buf[:])
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}

// Rand returns a generator seeded with Derive(master, label, coords...).
func Rand(master int64, label string, coords ...int) *rand.Rand {
	return rand.New(rand.NewSource(Derive(master, label, coords...)))
}

// Replay returns a generator for a seed recorded in a failure report.
func Replay(s int64) *rand.Rand {
	return rand.New(rand.NewSource(s))
}
