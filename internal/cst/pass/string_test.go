package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setlx/internal/cst"
	"setlx/internal/parser"
)

func parseBlock(t *testing.T, src string) *cst.Block {
	t.Helper()
	blk, err := parser.ParseProgram("test.slx", src)
	require.NoError(t, err)
	return blk
}

func TestStringPassExpandsInterpolation(t *testing.T) {
	blk := parseBlock(t, `s := "hello $ 1+1 $";`)
	out, err := NewStringPass("test.slx").Run(blk)
	require.NoError(t, err)

	assign := out.Stmts[0].(*cst.AssignStmt)
	outer, ok := assign.Value.(*cst.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, cst.OpPlus, outer.Op)

	trailingEmpty, ok := outer.Right.(*cst.Literal)
	require.True(t, ok)
	assert.Equal(t, "", trailingEmpty.Value)

	inner, ok := outer.Left.(*cst.BinaryExpr)
	require.True(t, ok)
	lit, ok := inner.Left.(*cst.Literal)
	require.True(t, ok)
	assert.Equal(t, "hello ", lit.Value)

	sum, ok := inner.Right.(*cst.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, cst.OpPlus, sum.Op)
}

func TestStringPassPlainStringIsSingleLiteral(t *testing.T) {
	blk := parseBlock(t, `s := "hello";`)
	out, err := NewStringPass("test.slx").Run(blk)
	require.NoError(t, err)

	assign := out.Stmts[0].(*cst.AssignStmt)
	lit, ok := assign.Value.(*cst.Literal)
	require.True(t, ok)
	assert.Equal(t, "hello", lit.Value)
}

func TestStringPassUnbalancedDollarIsError(t *testing.T) {
	blk := parseBlock(t, `s := "hello $ 1+1";`)
	_, err := NewStringPass("test.slx").Run(blk)
	assert.Error(t, err)
}

func TestStringPassEscapedDollarIsLiteral(t *testing.T) {
	blk := parseBlock(t, `s := "cost: \$5";`)
	out, err := NewStringPass("test.slx").Run(blk)
	require.NoError(t, err)
	assign := out.Stmts[0].(*cst.AssignStmt)
	lit, ok := assign.Value.(*cst.Literal)
	require.True(t, ok)
	assert.Equal(t, "cost: $5", lit.Value)
}
