package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramAddProcedureHandlesAreStable(t *testing.T) {
	prog := NewProgram()
	h1 := prog.AddProcedure(NewProcedure("main"))
	h2 := prog.AddProcedure(NewProcedure("f"))
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, "main", prog.Procedure(h1).Name)
	assert.Equal(t, "f", prog.Procedure(h2).Name)
}

func TestProcedureAddBlockAndNewSlot(t *testing.T) {
	proc := NewProcedure("main")
	b0 := proc.AddBlock()
	b1 := proc.AddBlock()
	assert.NotEqual(t, b0, b1)

	s0 := proc.NewSlot()
	s1 := proc.NewSlot()
	assert.Equal(t, 0, s0)
	assert.Equal(t, 1, s1)
	assert.Equal(t, 2, proc.NumSlots)
}

func TestBlockTerminatorDetection(t *testing.T) {
	b := &Block{}
	_, ok := b.Terminator()
	assert.False(t, ok, "an empty block has no terminator")

	b.Append(Assign{Target: TargetVariable{Slot: 0}, Source: ValueNumber{}, Op: OpAssign{}})
	_, ok = b.Terminator()
	assert.False(t, ok, "a plain Assign is not a terminator")

	b.Append(Return{Value: ValueUndefined{}})
	term, ok := b.Terminator()
	require.True(t, ok)
	_, isReturn := term.(Return)
	assert.True(t, isReturn)
}

func TestBlockTerminatorBranch(t *testing.T) {
	b := &Block{}
	b.Append(Branch{Cond: ValueBool{Value: true}, Success: 1, Failure: 2})
	term, ok := b.Terminator()
	require.True(t, ok)
	br, isBranch := term.(Branch)
	require.True(t, isBranch)
	assert.Equal(t, BlockHandle(1), br.Success)
	assert.Equal(t, BlockHandle(2), br.Failure)
}
