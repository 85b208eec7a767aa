// Package reconstruct projects an engine state dump onto one output register
// and turns it into a probability distribution over that register's values.
package reconstruct

import (
	"fmt"
	"math/big"
	"math/cmplx"

	"github.com/agbru/qarithcheck/internal/engine"
	apperrors "github.com/agbru/qarithcheck/internal/errors"
	"github.com/agbru/qarithcheck/internal/oracle"
	"github.com/agbru/qarithcheck/internal/superposition"
)

// BitOrder says how the bits of a window map onto the register value.
type BitOrder int

const (
	// Reversed is the engine convention: the first qubit of a register is
	// the most significant bit of its window, so the window must be
	// bit-reversed to get the little-endian register value.
	Reversed BitOrder = iota
	// Native takes the window bits as the value unchanged.
	Native
)

// String returns the order name.
func (o BitOrder) String() string {
	if o == Native {
		return "native"
	}
	return "reversed"
}

// Window locates an output register inside a dump index. Offset counts
// qubits from the trailing, lowest-order end of the index.
type Window struct {
	Offset int
	Width  int
	Order  BitOrder
}

// Trailing returns the window of the last allocated register of width k.
func Trailing(k int) Window {
	return Window{Width: k, Order: Reversed}
}

// ForRegister returns the window of target given the registers of a program
// in allocation order.
func ForRegister(regs []engine.Register, target engine.Register) (Window, error) {
	offset := 0
	for i := len(regs) - 1; i >= 0; i-- {
		if regs[i].Name == target.Name {
			if regs[i].Width != target.Width {
				return Window{}, apperrors.ValidationError{
					Field:   "register",
					Message: fmt.Sprintf("register %q has width %d, not %d", target.Name, regs[i].Width, target.Width),
				}
			}
			return Window{Offset: offset, Width: target.Width, Order: Reversed}, nil
		}
		offset += regs[i].Width
	}
	return Window{}, apperrors.ValidationError{Field: "register", Message: fmt.Sprintf("register %q is not part of the program", target.Name)}
}

// Validate checks that w fits a dump over the given number of qubits.
func (w Window) Validate(qubits int) error {
	switch {
	case w.Width < 1:
		return apperrors.ValidationError{Field: "width", Message: fmt.Sprintf("must be positive, got %d", w.Width)}
	case w.Offset < 0:
		return apperrors.ValidationError{Field: "offset", Message: fmt.Sprintf("must be non-negative, got %d", w.Offset)}
	case w.Offset+w.Width > qubits:
		return apperrors.ValidationError{
			Field:   "offset",
			Message: fmt.Sprintf("window [%d, %d) exceeds the %d qubits of the dump", w.Offset, w.Offset+w.Width, qubits),
		}
	}
	return nil
}

// Value extracts the register value of one basis-state index.
func (w Window) Value(index *big.Int) *big.Int {
	raw := new(big.Int).Rsh(index, uint(w.Offset))
	raw = oracle.Mod2N(raw, w.Width)
	if w.Order == Reversed {
		return oracle.ReverseBits(raw, w.Width)
	}
	return raw
}

// Project marginalizes dump onto w: every basis state contributes
// |amplitude|^2 to the value of its window. The result must be a normalized
// distribution; otherwise the harness is reading the wrong qubits or the
// circuit does not preserve the norm, and a MalformedSuperpositionError with
// stage "reconstruction" is returned.
func Project(dump engine.StateDump, w Window) (superposition.Superposition, error) {
	if err := w.Validate(dump.Qubits); err != nil {
		return superposition.Superposition{}, err
	}
	entries := make([]superposition.Entry, 0, len(dump.Entries))
	for _, e := range dump.Entries {
		a := cmplx.Abs(e.Amplitude)
		entries = append(entries, superposition.Entry{Value: w.Value(e.Index), Probability: a * a})
	}
	return superposition.Collect("reconstruction", entries)
}
