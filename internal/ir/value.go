package ir

import "math/big"

// Value is the right-hand operand type: either the source of an Assign or
// the RHS of a binary Op (spec.md §3).
type Value interface{ irValue() }

// ValueUndefined is the `om` constant.
type ValueUndefined struct{}

func (ValueUndefined) irValue() {}

// ValueBuiltinProc names a native procedure tag (used as a callee value).
type ValueBuiltinProc struct{ Tag BuiltinProc }

func (ValueBuiltinProc) irValue() {}

// ValueBuiltinVar names a runtime-populated variable.
type ValueBuiltinVar struct{ Tag BuiltinVar }

func (ValueBuiltinVar) irValue() {}

// ValueType is a type-lattice mask reified as a first-class value (the
// `type` factor).
type ValueType struct{ Mask Type }

func (ValueType) irValue() {}

// ValueVariable reads a temp slot directly (not through a PTR).
type ValueVariable struct{ Slot int }

func (ValueVariable) irValue() {}

// ValueString is an inline decoded string constant.
type ValueString struct{ Value string }

func (ValueString) irValue() {}

// ValueNumber is an inline arbitrary-precision integer constant.
type ValueNumber struct{ Value *big.Int }

func (ValueNumber) irValue() {}

// ValueDouble is an inline floating-point constant.
type ValueDouble struct{ Value float64 }

func (ValueDouble) irValue() {}

// ValueBool is an inline boolean constant.
type ValueBool struct{ Value bool }

func (ValueBool) irValue() {}

// ValueVector holds element values directly (not via slots).
type ValueVector struct{ Elems []Value }

func (ValueVector) irValue() {}

// ValueMatrix holds row-major element values directly.
type ValueMatrix struct{ Rows [][]Value }

func (ValueMatrix) irValue() {}

// ValueProcedure references another procedure by handle (a bound but
// not-yet-wrapped callable, before procedure_new/closure_new runs).
type ValueProcedure struct{ Handle ProcHandle }

func (ValueProcedure) irValue() {}
