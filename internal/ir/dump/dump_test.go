package dump

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setlx/internal/cst/pass"
	"setlx/internal/ir/lower"
	"setlx/internal/parser"
)

func TestTextRendersAssignAndReturn(t *testing.T) {
	blk, err := parser.ParseProgram("test.slx", "x := 1 + 2;")
	require.NoError(t, err)
	blk, err = pass.NewStringPass("test.slx").Run(blk)
	require.NoError(t, err)
	(&pass.CheckPass{}).Run(blk)
	blk = pass.NewNoopPass().Run(blk)
	prog, _ := lower.LowerProgram(*blk)

	text := Text(prog)
	assert.Contains(t, text, "proc 0 \"main\"")
	assert.Contains(t, text, "return")
}

func TestDotRendersProcedureCluster(t *testing.T) {
	blk, err := parser.ParseProgram("test.slx", "x := 1;")
	require.NoError(t, err)
	blk = pass.NewNoopPass().Run(blk)
	prog, _ := lower.LowerProgram(*blk)

	dot := Dot(prog, "test")
	assert.Contains(t, dot, "digraph test {")
	assert.Contains(t, dot, "subgraph cluster_0")
}
