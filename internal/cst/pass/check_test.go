package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPassWarnsOnUnreachableStatement(t *testing.T) {
	blk := parseBlock(t, `
		return 1;
		x := 2;
	`)
	cp := &CheckPass{}
	warnings := cp.Run(blk)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "unreachable statement")
}

func TestCheckPassNoWarningWithoutTerminator(t *testing.T) {
	blk := parseBlock(t, `x := 1; y := 2;`)
	cp := &CheckPass{}
	assert.Empty(t, cp.Run(blk))
}

func TestCheckPassBreakOutsideLoopPanics(t *testing.T) {
	blk := parseBlock(t, `break;`)
	cp := &CheckPass{}
	assert.PanicsWithValue(t, CheckError{Pos: blk.Stmts[0].Pos(), Message: "'break' outside a for/while/do-while loop"}, func() {
		cp.Run(blk)
	})
}

func TestCheckPassContinueOutsideLoopPanics(t *testing.T) {
	blk := parseBlock(t, `continue;`)
	cp := &CheckPass{}
	assert.Panics(t, func() { cp.Run(blk) })
}

func TestCheckPassBreakInsideLoopIsLegal(t *testing.T) {
	blk := parseBlock(t, `while (true) { break; }`)
	cp := &CheckPass{}
	assert.NotPanics(t, func() { cp.Run(blk) })
}

func TestCheckPassIllegalAssignTargetPanics(t *testing.T) {
	blk := parseBlock(t, `1 + 1 := 2;`)
	cp := &CheckPass{}
	assert.Panics(t, func() { cp.Run(blk) })
}

func TestCheckPassSetAssignTargetMustBeSingleton(t *testing.T) {
	blk := parseBlock(t, `{a, b} := s;`)
	cp := &CheckPass{}
	assert.Panics(t, func() { cp.Run(blk) })
}

func TestCheckPassSetAssignSingletonIsLegal(t *testing.T) {
	blk := parseBlock(t, `{a} := s;`)
	cp := &CheckPass{}
	assert.NotPanics(t, func() { cp.Run(blk) })
}

func TestCheckPassIterCollectionMayBeSet(t *testing.T) {
	blk := parseBlock(t, `for (x in {1, 2}) { }`)
	cp := &CheckPass{}
	assert.NotPanics(t, func() { cp.Run(blk) }, "the collection being a set is fine, only the LHS pattern is constrained")
}

func TestCheckPassIterLHSSetPatternPanics(t *testing.T) {
	blk := parseBlock(t, `for ({x, y} in c) { }`)
	cp := &CheckPass{}
	assert.Panics(t, func() { cp.Run(blk) })
}

func TestCheckPassAccessibleBodyListIndexMustBeRangeOrSingleton(t *testing.T) {
	blk := parseBlock(t, `x := m[[1, 2]];`)
	cp := &CheckPass{}
	assert.Panics(t, func() { cp.Run(blk) })
}

func TestCheckPassAccessibleBodyListIndexSingletonIsLegal(t *testing.T) {
	blk := parseBlock(t, `x := m[[1]];`)
	cp := &CheckPass{}
	assert.NotPanics(t, func() { cp.Run(blk) })
}

func TestCheckPassAccessibleBodyListIndexRangeIsLegal(t *testing.T) {
	blk := parseBlock(t, `x := m[[1..2]];`)
	cp := &CheckPass{}
	assert.NotPanics(t, func() { cp.Run(blk) })
}

func TestCheckPassAccessibleBodySetKeyMustBeSingleton(t *testing.T) {
	blk := parseBlock(t, `x := m{{1, 2}};`)
	cp := &CheckPass{}
	assert.Panics(t, func() { cp.Run(blk) })
}

func TestCheckPassAccessibleBodySetKeySingletonIsLegal(t *testing.T) {
	blk := parseBlock(t, `x := m{{1}};`)
	cp := &CheckPass{}
	assert.NotPanics(t, func() { cp.Run(blk) })
}

func TestCheckPassAccessibleBodyViolationInsideProcedureBodyIsCaught(t *testing.T) {
	blk := parseBlock(t, `
		f := procedure() {
			return m[[1, 2]];
		};
	`)
	cp := &CheckPass{}
	assert.Panics(t, func() { cp.Run(blk) })
}
