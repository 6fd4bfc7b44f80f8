package dump

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

func TestTextRendersAssignAndIf(t *testing.T) {
	blk := parseBlock(t, `
		x := 1 + 2;
		if (x > 0) {
			y := x;
		} else {
			y := 0;
		}
	`)
	text := Text(blk)
	assert.Contains(t, text, "Assign x := (1 + 2)")
	assert.Contains(t, text, "If")
	assert.Contains(t, text, "else")
}

func TestDotRendersNodesAndEdges(t *testing.T) {
	blk := parseBlock(t, `
		while (x < 3) {
			x := x + 1;
		}
	`)
	dot := Dot(blk, "test")
	assert.Contains(t, dot, "digraph test {")
	assert.Contains(t, dot, "n0 -> n1")
}
