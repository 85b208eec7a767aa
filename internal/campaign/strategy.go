package campaign

import (
	"math/big"
	"math/rand"
	"slices"

	"github.com/agbru/qarithcheck/internal/oracle"
)

// Regimes name how a case was produced.
const (
	RegimeExhaustive    = "exhaustive"
	RegimeRandom        = "random"
	RegimeSuperposition = "superposition"
)

// Default strategy values.
const (
	DefaultUnaryExhaustiveMax = 5
	DefaultMultiExhaustiveMax = 4
	DefaultSamples            = 10
	DefaultMaxExhaustiveCases = 1 << 16
	DefaultFilterAttempts     = 1000
	DefaultSuperpositionRuns  = 3
)

// Strategy decides how the inputs of one width are chosen.
type Strategy struct {
	// UnaryExhaustiveMax is the largest width enumerated exhaustively when
	// a single argument varies.
	UnaryExhaustiveMax int
	// MultiExhaustiveMax is the largest width enumerated exhaustively when
	// several arguments vary.
	MultiExhaustiveMax int
	// Samples is the number of random cases per width above the thresholds.
	Samples int
	// MaxExhaustiveCases caps an exhaustive enumeration; larger domains are
	// sampled instead.
	MaxExhaustiveCases int64
	// FilterAttempts bounds the draws spent finding one admissible random
	// case.
	FilterAttempts int
	// SuperpositionRuns is the number of superposition checks per declared
	// width.
	SuperpositionRuns int
}

// DefaultStrategy returns the default thresholds.
func DefaultStrategy() Strategy {
	return Strategy{
		UnaryExhaustiveMax: DefaultUnaryExhaustiveMax,
		MultiExhaustiveMax: DefaultMultiExhaustiveMax,
		Samples:            DefaultSamples,
		MaxExhaustiveCases: DefaultMaxExhaustiveCases,
		FilterAttempts:     DefaultFilterAttempts,
		SuperpositionRuns:  DefaultSuperpositionRuns,
	}
}

// Exhaustive reports whether width n of c is enumerated exhaustively.
func (s Strategy) Exhaustive(c Circuit, n int) bool {
	if c.ExhaustiveWidths != nil {
		return slices.Contains(c.ExhaustiveWidths, n)
	}
	lows, highs := c.ranges(n)
	varying := 0
	for i := range lows {
		if lows[i].Cmp(highs[i]) != 0 {
			varying++
		}
	}
	limit := s.MultiExhaustiveMax
	if varying <= 1 {
		limit = s.UnaryExhaustiveMax
	}
	if n > limit {
		return false
	}
	return domainSize(lows, highs).Cmp(big.NewInt(s.MaxExhaustiveCases)) <= 0
}

// samples returns the random case count for c.
func (s Strategy) samples(c Circuit) int {
	if c.Samples > 0 {
		return c.Samples
	}
	if s.Samples > 0 {
		return s.Samples
	}
	return DefaultSamples
}

func (s Strategy) superpositionSamples() int {
	if s.SuperpositionRuns > 0 {
		return s.SuperpositionRuns
	}
	return DefaultSuperpositionRuns
}

// Planned returns the number of cases Run is expected to execute for c:
// exhaustive domains before filtering, random samples and superposition
// checks, with one case per plan of a controlled shape.
func (s Strategy) Planned(c Circuit) int {
	plans := 1
	if c.Shape.Controlled {
		plans = 2
	}
	total := 0
	for _, n := range c.Widths {
		if s.Exhaustive(c, n) {
			lows, highs := c.ranges(n)
			size := domainSize(lows, highs)
			if !size.IsInt64() || size.Int64() > s.MaxExhaustiveCases {
				size.SetInt64(s.MaxExhaustiveCases)
			}
			total += int(size.Int64()) * plans
		} else {
			total += s.samples(c) * plans
		}
		if slices.Contains(c.Superposition, n) {
			total += s.superpositionSamples()
		}
	}
	return total
}

func domainSize(lows, highs []*big.Int) *big.Int {
	size := big.NewInt(1)
	span := new(big.Int)
	for i := range lows {
		span.Sub(highs[i], lows[i])
		span.Add(span, big.NewInt(1))
		size.Mul(size, span)
	}
	return size
}

// enumerate calls fn with every argument tuple of the box [lows, highs] in
// lexicographic order, last argument fastest. fn must not retain args.
func enumerate(lows, highs []*big.Int, fn func(args []*big.Int) bool) {
	args := make([]*big.Int, len(lows))
	for i := range lows {
		args[i] = new(big.Int).Set(lows[i])
	}
	one := big.NewInt(1)
	for {
		if !fn(args) {
			return
		}
		i := len(args) - 1
		for ; i >= 0; i-- {
			if args[i].Cmp(highs[i]) < 0 {
				args[i].Add(args[i], one)
				break
			}
			args[i].Set(lows[i])
		}
		if i < 0 {
			return
		}
	}
}

// sample draws one uniform argument tuple from the box [lows, highs].
func sample(r *rand.Rand, lows, highs []*big.Int) ([]*big.Int, error) {
	args := make([]*big.Int, len(lows))
	for i := range lows {
		v, err := oracle.RandInRange(r, lows[i], highs[i])
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func cloneInts(xs []*big.Int) []*big.Int {
	out := make([]*big.Int, len(xs))
	for i, x := range xs {
		out[i] = new(big.Int).Set(x)
	}
	return out
}
