package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"setlx/internal/cst"
)

func TestNoopPassDropsStatementsAfterReturn(t *testing.T) {
	blk := parseBlock(t, `
		return 1;
		x := 2;
		y := 3;
	`)
	np := NewNoopPass()
	out := np.Run(blk)
	assert.Len(t, out.Stmts, 1)
}

func TestNoopPassPrunesInsideNestedBlocks(t *testing.T) {
	blk := parseBlock(t, `
		if (true) {
			break;
			x := 1;
		} else {
			y := 2;
		}
	`)
	np := NewNoopPass()
	out := np.Run(blk)
	ifStmt := out.Stmts[0].(*cst.IfStmt)
	assert.Len(t, ifStmt.Branches[0].Body.Stmts, 1)
	assert.Len(t, ifStmt.Else.Stmts, 1)
}

func TestNoopPassIsIdempotent(t *testing.T) {
	blk := parseBlock(t, `
		return 1;
		x := 2;
	`)
	np := NewNoopPass()
	first := np.Run(blk)
	firstLen := len(first.Stmts)
	second := np.Run(first)
	assert.Len(t, second.Stmts, firstLen)
}

func TestNoopPassLeavesTerminatorFreeBlockUnchanged(t *testing.T) {
	blk := parseBlock(t, `x := 1; y := 2; z := 3;`)
	np := NewNoopPass()
	out := np.Run(blk)
	assert.Len(t, out.Stmts, 3)
}
