package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setlx/internal/cst"
	"setlx/internal/cst/pass"
	"setlx/internal/ir"
	"setlx/internal/parser"
)

// normalize runs the fixed-order C3/C4/C5 pass pipeline spec.md §2 names,
// mirroring what the CLI does before handing a block to LowerProgram.
func normalize(t *testing.T, src string) cst.Block {
	t.Helper()
	blk, err := parser.ParseProgram("test.slx", src)
	require.NoError(t, err)

	blk, err = pass.NewStringPass("test.slx").Run(blk)
	require.NoError(t, err)

	(&pass.CheckPass{}).Run(blk)

	blk = pass.NewNoopPass().Run(blk)
	return *blk
}

func TestLowerProgramEmptyBlockEntryEqualsExit(t *testing.T) {
	prog, handle := LowerProgram(cst.Block{})
	proc := prog.Procedure(handle)

	assert.Equal(t, proc.StartBlock, proc.EndBlock)
	stmts := proc.Block(proc.StartBlock).Stmts
	require.Len(t, stmts, 2)
	ret, ok := stmts[1].(ir.Return)
	require.True(t, ok)
	assign, ok := stmts[0].(ir.Assign)
	require.True(t, ok)
	assert.Equal(t, ir.ValueVariable{Slot: assign.Target.(ir.TargetVariable).Slot}, ret.Value)
}

func TestLowerProgramSimpleAssignReachesReturn(t *testing.T) {
	blk := normalize(t, "x := 1 + 2;")
	prog, handle := LowerProgram(blk)
	proc := prog.Procedure(handle)

	require.NotEqual(t, proc.StartBlock, proc.EndBlock)

	term, ok := proc.Block(proc.EndBlock).Terminator()
	require.True(t, ok)
	_, isReturn := term.(ir.Return)
	assert.True(t, isReturn)

	var sawPlus, sawStackAdd bool
	for _, blk := range proc.Blocks {
		for _, s := range blk.Stmts {
			a, ok := s.(ir.Assign)
			if !ok {
				continue
			}
			switch a.Op.(type) {
			case ir.OpPlus:
				sawPlus = true
			case ir.OpNativeCall:
				if a.Op.(ir.OpNativeCall).Proc == ir.ProcStackAdd {
					sawStackAdd = true
				}
			}
		}
	}
	assert.True(t, sawPlus, "expected a Plus op lowering `1 + 2`")
	assert.True(t, sawStackAdd, "expected a stack_add binding the pre-allocated name `x`")
}

func TestLowerProgramEveryBlockHasAtMostOneTerminator(t *testing.T) {
	blk := normalize(t, `
		x := 0;
		while (x < 3) {
			x := x + 1;
		}
	`)
	prog, handle := LowerProgram(blk)
	proc := prog.Procedure(handle)

	for i, block := range proc.Blocks {
		for j, s := range block.Stmts {
			switch s.(type) {
			case ir.Branch, ir.Goto, ir.Return, ir.Unreachable, ir.Try:
				assert.Equal(t, len(block.Stmts)-1, j, "block %d has a terminator before its last statement", i)
			}
		}
	}
}
