package superposition

import (
	"fmt"
	"math/big"
)

func ExampleApplyBinary() {
	x := MustNew(Entry{big.NewInt(200), 0.3}, Entry{big.NewInt(100), 0.7})
	y := Basis(big.NewInt(50))
	sum, _ := ApplyBinary(x, y, func(a, b *big.Int) *big.Int { return a.Add(a, b) })
	fmt.Println(sum)
	// Output: {150: 0.7, 250: 0.3}
}
