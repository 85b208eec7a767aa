package simulator

import (
	"github.com/agbru/qarithcheck/internal/engine"
	"github.com/agbru/qarithcheck/internal/oracle"
)

// FaultyNamespace is the namespace of the deliberately broken circuits.
const FaultyNamespace = "Faulty"

// Broken circuits provided by FaultyLibrary.
var (
	// OpXorAdd forgets every carry: y ^= x.
	OpXorAdd = engine.Op(FaultyNamespace, "XorAdd")
	// OpAddSkipsMax adds correctly except when x is all ones.
	OpAddSkipsMax = engine.Op(FaultyNamespace, "AddSkipsMax")
	// OpOverwrite copies x into y. It is not injective and collapses
	// distinct branches, so the resulting state is not normalized.
	OpOverwrite = engine.Op(FaultyNamespace, "Overwrite")
	// OpUncontrolledAddConstant is a constant adder whose controlled variant
	// ignores its control qubit.
	OpUncontrolledAddConstant = engine.Op(FaultyNamespace, "UncontrolledAddConstant")
	// OpMultiplyDropsHigh multiplies into the output but drops its top bit.
	OpMultiplyDropsHigh = engine.Op(FaultyNamespace, "MultiplyDropsHigh")
	// OpWrongCarry adds but never sets the carry qubit.
	OpWrongCarry = engine.Op(FaultyNamespace, "WrongCarry")
)

// FaultyLibrary returns StandardLibrary extended with the broken circuits.
func FaultyLibrary() *Library {
	return StandardLibrary().
		Define(OpXorAdd.FullName(), func(args []Operand) error {
			if err := expect(args, reg, reg); err != nil {
				return err
			}
			args[1].Value.Xor(args[1].Value, args[0].Value)
			return nil
		}).
		Define(OpAddSkipsMax.FullName(), func(args []Operand) error {
			if err := expect(args, reg, reg); err != nil {
				return err
			}
			if args[0].Value.Cmp(oracle.MaxValue(args[0].Width)) == 0 {
				return nil
			}
			args[1].Value.Add(args[1].Value, args[0].Value)
			return nil
		}).
		Define(OpOverwrite.FullName(), func(args []Operand) error {
			if err := expect(args, reg, reg); err != nil {
				return err
			}
			args[1].Value.Set(args[0].Value)
			return nil
		}).
		Define(OpUncontrolledAddConstant.FullName(), addConstant).
		DefineControlled(OpUncontrolledAddConstant.FullName(), func(args []Operand) error {
			// Drop the leading control operands and add unconditionally.
			if len(args) < 2 {
				return expect(args, cint, reg)
			}
			return addConstant(args[len(args)-2:])
		}).
		Define(OpMultiplyDropsHigh.FullName(), func(args []Operand) error {
			if err := multiply(args); err != nil {
				return err
			}
			args[2].Value.SetBit(args[2].Value, args[2].Width-1, 0)
			return nil
		}).
		Define(OpWrongCarry.FullName(), func(args []Operand) error {
			if err := expect(args, reg, reg, reg); err != nil {
				return err
			}
			args[1].Value.Add(args[1].Value, args[0].Value)
			return nil
		})
}
