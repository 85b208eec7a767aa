package superposition

import (
	"fmt"
	"math"
	"math/big"
)

// Deviation describes the largest difference found by Equal.
type Deviation struct {
	// Value is the integer where the distributions differ most, nil when
	// they are identical.
	Value *big.Int
	// Left and Right are the probabilities of Value on each side.
	Left, Right float64
	// Missing reports that Value is absent from one side entirely.
	Missing bool
}

// Delta returns |Left - Right|.
func (d Deviation) Delta() float64 { return math.Abs(d.Left - d.Right) }

// String renders the deviation for reports.
func (d Deviation) String() string {
	if d.Value == nil {
		return "none"
	}
	if d.Missing {
		return fmt.Sprintf("value %s present on one side only (%.6g vs %.6g)", d.Value, d.Left, d.Right)
	}
	return fmt.Sprintf("value %s: %.12g vs %.12g (|delta| %.3g)", d.Value, d.Left, d.Right, d.Delta())
}

// Equal reports whether a and b have the same support and every probability
// differs by at most tol. The returned Deviation names the first value that
// is missing from one side or, when supports match, the value with the
// largest difference.
func Equal(a, b Superposition, tol float64) (bool, Deviation) {
	i, j := 0, 0
	for i < len(a.entries) || j < len(b.entries) {
		switch {
		case j == len(b.entries) || (i < len(a.entries) && a.entries[i].Value.Cmp(b.entries[j].Value) < 0):
			e := a.entries[i]
			return false, Deviation{Value: new(big.Int).Set(e.Value), Left: e.Probability, Missing: true}
		case i == len(a.entries) || a.entries[i].Value.Cmp(b.entries[j].Value) > 0:
			e := b.entries[j]
			return false, Deviation{Value: new(big.Int).Set(e.Value), Right: e.Probability, Missing: true}
		}
		i++
		j++
	}

	var worst Deviation
	for k := range a.entries {
		d := Deviation{Value: a.entries[k].Value, Left: a.entries[k].Probability, Right: b.entries[k].Probability}
		if worst.Value == nil || d.Delta() > worst.Delta() {
			worst = d
		}
	}
	if worst.Value != nil {
		worst.Value = new(big.Int).Set(worst.Value)
	}
	return worst.Delta() <= tol, worst
}
