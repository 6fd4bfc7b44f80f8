package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setlx/internal/ir"
)

func newTestBuilder() (*Builder, ir.BlockHandle) {
	b := NewBuilder()
	b.EnterProcedure("main")
	entry := b.NewBlock()
	b.SetBlock(entry)
	return b, entry
}

func TestEmitTempAllocatesDistinctSlots(t *testing.T) {
	b, _ := newTestBuilder()
	s0 := b.EmitTemp(ir.TypeNumber, ir.ValueNumber{}, ir.OpAssign{})
	s1 := b.EmitTemp(ir.TypeNumber, ir.ValueNumber{}, ir.OpAssign{})
	assert.NotEqual(t, s0, s1)
	assert.Len(t, b.Proc().Block(b.CurrentBlockHandle()).Stmts, 2)
}

func TestPushNamePopNameRoundTrip(t *testing.T) {
	b, _ := newTestBuilder()
	slot := b.PushName("x")
	got, ok := b.LookupName("x")
	require.True(t, ok)
	assert.Equal(t, slot, got)

	b.PopName("x")
	_, ok = b.LookupName("x")
	assert.False(t, ok)
}

func TestPushNameShadowsPreviousBinding(t *testing.T) {
	b, _ := newTestBuilder()
	outer := b.PushName("x")
	inner := b.PushName("x")
	assert.NotEqual(t, outer, inner)

	got, _ := b.LookupName("x")
	assert.Equal(t, inner, got)

	b.PopName("x")
	got, _ = b.LookupName("x")
	assert.Equal(t, outer, got)
	b.PopName("x")
}

func TestInvalidateIfOwnedOnlyEmitsWhenOwned(t *testing.T) {
	b, _ := newTestBuilder()
	before := len(b.currentBlock().Stmts)
	b.InvalidateIfOwned(0, false)
	assert.Len(t, b.currentBlock().Stmts, before)

	b.InvalidateIfOwned(0, true)
	assert.Len(t, b.currentBlock().Stmts, before+1)
}

func TestNewCacheIndexIncrements(t *testing.T) {
	b, _ := newTestBuilder()
	assert.Equal(t, 0, b.NewCacheIndex())
	assert.Equal(t, 1, b.NewCacheIndex())
}

func TestGotoEmitsTerminator(t *testing.T) {
	b, entry := newTestBuilder()
	other := b.NewBlock()
	b.SetBlock(entry)
	b.Goto(other)
	term, ok := b.Proc().Block(entry).Terminator()
	require.True(t, ok)
	g, isGoto := term.(ir.Goto)
	require.True(t, isGoto)
	assert.Equal(t, other, g.Target)
}
