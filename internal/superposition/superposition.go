package superposition

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	apperrors "github.com/agbru/qarithcheck/internal/errors"
)

// DefaultTolerance is the absolute tolerance used for total-probability
// validation and for equality between distributions.
const DefaultTolerance = 1e-9

// Entry is one value of a distribution together with its probability.
type Entry struct {
	Value       *big.Int
	Probability float64
}

// Amplitude is one value together with its real amplitude sqrt(p).
type Amplitude struct {
	Value     *big.Int
	Amplitude float64
}

// Superposition is an immutable distribution over integers. Entries are kept
// sorted by value with no duplicates and no zero probabilities.
type Superposition struct {
	entries []Entry
}

// New builds a distribution from entries. Duplicate values are merged and
// zero-probability entries dropped. Nil values and negative or non-finite
// probabilities are rejected with a ValidationError.
func New(entries ...Entry) (Superposition, error) {
	return build("construction", entries)
}

// MustNew is like New but panics on error. It is intended for literals in
// tests and examples.
func MustNew(entries ...Entry) Superposition {
	s, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return s
}

// Collect is New for distributions assembled by a pipeline stage; a total
// probability error names stage.
func Collect(stage string, entries []Entry) (Superposition, error) {
	return build(stage, entries)
}

// Basis returns the distribution concentrated on v.
func Basis(v *big.Int) Superposition {
	return Superposition{entries: []Entry{{Value: new(big.Int).Set(v), Probability: 1}}}
}

func build(stage string, entries []Entry) (Superposition, error) {
	acc := make(map[string]*Entry, len(entries))
	for _, e := range entries {
		if e.Value == nil {
			return Superposition{}, apperrors.ValidationError{Field: "value", Message: "nil integer in superposition"}
		}
		if e.Probability < 0 || math.IsNaN(e.Probability) || math.IsInf(e.Probability, 0) {
			return Superposition{}, apperrors.ValidationError{
				Field:   "probability",
				Message: fmt.Sprintf("invalid probability %g for value %s", e.Probability, e.Value),
			}
		}
		key := e.Value.String()
		if existing, ok := acc[key]; ok {
			existing.Probability += e.Probability
			continue
		}
		acc[key] = &Entry{Value: new(big.Int).Set(e.Value), Probability: e.Probability}
	}

	out := make([]Entry, 0, len(acc))
	total := 0.0
	for _, e := range acc {
		total += e.Probability
		if e.Probability == 0 {
			continue
		}
		out = append(out, *e)
	}
	if math.Abs(total-1) > DefaultTolerance {
		return Superposition{}, apperrors.MalformedSuperpositionError{Stage: stage, Total: total, Tolerance: DefaultTolerance}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value.Cmp(out[j].Value) < 0 })
	return Superposition{entries: out}, nil
}

// Len returns the number of values with non-zero probability.
func (s Superposition) Len() int { return len(s.entries) }

// Entries returns a copy of the entries, sorted by value.
func (s Superposition) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = Entry{Value: new(big.Int).Set(e.Value), Probability: e.Probability}
	}
	return out
}

// Values returns the support, sorted ascending.
func (s Superposition) Values() []*big.Int {
	out := make([]*big.Int, len(s.entries))
	for i, e := range s.entries {
		out[i] = new(big.Int).Set(e.Value)
	}
	return out
}

// Amplitudes returns sqrt(p) for every value, sorted by value.
func (s Superposition) Amplitudes() []Amplitude {
	out := make([]Amplitude, len(s.entries))
	for i, e := range s.entries {
		out[i] = Amplitude{Value: new(big.Int).Set(e.Value), Amplitude: math.Sqrt(e.Probability)}
	}
	return out
}

// Probability returns the probability of v, 0 when v is not in the support.
func (s Superposition) Probability(v *big.Int) float64 {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Value.Cmp(v) >= 0 })
	if i < len(s.entries) && s.entries[i].Value.Cmp(v) == 0 {
		return s.entries[i].Probability
	}
	return 0
}

// Total returns the sum of all probabilities.
func (s Superposition) Total() float64 {
	total := 0.0
	for _, e := range s.entries {
		total += e.Probability
	}
	return total
}

// MaxValue returns the largest value in the support, or nil for the zero
// Superposition.
func (s Superposition) MaxValue() *big.Int {
	if len(s.entries) == 0 {
		return nil
	}
	return new(big.Int).Set(s.entries[len(s.entries)-1].Value)
}

// String renders the distribution as {v1: p1, v2: p2}.
func (s Superposition) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, e := range s.entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %.6g", e.Value, e.Probability)
	}
	sb.WriteByte('}')
	return sb.String()
}
