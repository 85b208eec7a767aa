package campaign

import (
	"math/big"
	"testing"

	"github.com/agbru/qarithcheck/internal/engine"
)

func TestStrategy_Exhaustive(t *testing.T) {
	t.Parallel()
	unary := Circuit{Name: "inc", Op: engine.Op("Arith", "Increment"), Shape: Shape{Kind: UnaryInPlace}}
	binary := Circuit{Name: "add", Op: engine.Op("Arith", "Add"), Shape: Shape{Kind: BinaryInPlace}}
	pinned := binary
	pinned.ExhaustiveWidths = []int{8}

	s := DefaultStrategy()
	tests := []struct {
		name string
		c    Circuit
		n    int
		want bool
	}{
		{"unary at the threshold", unary, 5, true},
		{"unary above the threshold", unary, 6, false},
		{"binary at the threshold", binary, 4, true},
		{"binary above the threshold", binary, 5, false},
		{"explicit widths win", pinned, 8, true},
		{"explicit widths exclude others", pinned, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.Exhaustive(tt.c, tt.n); got != tt.want {
				t.Errorf("Exhaustive(%s, %d) = %v, want %v", tt.c.Name, tt.n, got, tt.want)
			}
		})
	}
}

func TestStrategy_ExhaustiveCapsDomain(t *testing.T) {
	t.Parallel()
	c := Circuit{Name: "add", Op: engine.Op("Arith", "Add"), Shape: Shape{Kind: BinaryInPlace}}
	s := DefaultStrategy()
	s.MaxExhaustiveCases = 100
	if s.Exhaustive(c, 4) {
		t.Error("256 cases should exceed a cap of 100")
	}
	if !s.Exhaustive(c, 3) {
		t.Error("64 cases should fit a cap of 100")
	}
}

func TestEnumerate_LexicographicOrder(t *testing.T) {
	t.Parallel()
	lows := []*big.Int{big.NewInt(0), big.NewInt(5)}
	highs := []*big.Int{big.NewInt(1), big.NewInt(7)}
	var got [][2]int64
	enumerate(lows, highs, func(args []*big.Int) bool {
		got = append(got, [2]int64{args[0].Int64(), args[1].Int64()})
		return true
	})
	want := [][2]int64{{0, 5}, {0, 6}, {0, 7}, {1, 5}, {1, 6}, {1, 7}}
	if len(got) != len(want) {
		t.Fatalf("enumerated %d tuples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tuple %d = %v, want %v", i, got[i], want[i])
		}
	}
	if domainSize(lows, highs).Int64() != 6 {
		t.Errorf("domainSize = %s, want 6", domainSize(lows, highs))
	}
}

func TestEnumerate_StopsEarly(t *testing.T) {
	t.Parallel()
	calls := 0
	enumerate([]*big.Int{big.NewInt(0)}, []*big.Int{big.NewInt(99)}, func([]*big.Int) bool {
		calls++
		return calls < 3
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestEnumerate_NoArguments(t *testing.T) {
	t.Parallel()
	calls := 0
	enumerate(nil, nil, func([]*big.Int) bool { calls++; return true })
	if calls != 1 {
		t.Errorf("an empty box has one tuple, got %d calls", calls)
	}
}

func TestStrategy_Planned(t *testing.T) {
	t.Parallel()
	s := DefaultStrategy()
	add := Circuit{Name: "add", Op: engine.Op("Arith", "Add"), Shape: Shape{Kind: BinaryInPlace},
		Widths: []int{1, 2, 6}, Superposition: []int{6}}
	// 4 + 16 exhaustive, 10 random and 3 superposition checks at n=6.
	if got := s.Planned(add); got != 33 {
		t.Errorf("Planned(add) = %d, want 33", got)
	}
	ctl := Circuit{Name: "inc", Op: engine.Op("Arith", "Increment"), Shape: Shape{Kind: UnaryInPlace, Controlled: true},
		Widths: []int{2, 8}}
	if got := s.Planned(ctl); got != 28 {
		t.Errorf("Planned(controlled) = %d, want 28", got)
	}
}
