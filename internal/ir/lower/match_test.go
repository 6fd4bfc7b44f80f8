package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setlx/internal/ir"
)

// TestEmitMatchCompoundPatternConjoinsSubMatches regression-tests the
// reviewer's `case [2, x]:` example: every sub-pattern of a compound list
// pattern must AND into the branch's success slot, not overwrite it, so a
// failing element check can't be masked by a later always-true variable
// binding.
func TestEmitMatchCompoundPatternConjoinsSubMatches(t *testing.T) {
	blk := normalize(t, `
		match (x) {
		case [2, y]:
			z := 1;
		}
	`)
	prog, handle := LowerProgram(blk)
	proc := prog.Procedure(handle)

	var sawAnd bool
	succeededSlots := map[int]bool{}
	for _, blk := range proc.Blocks {
		for _, s := range blk.Stmts {
			a, ok := s.(ir.Assign)
			if !ok {
				continue
			}
			if _, isAnd := a.Op.(ir.OpAnd); isAnd {
				sawAnd = true
				if tv, ok := a.Target.(ir.TargetVariable); ok {
					succeededSlots[tv.Slot] = true
				}
			}
		}
	}
	require.True(t, sawAnd, "expected the match's success slot to be conjoined via OpAnd")

	// Every later write to a slot that was ever ANDed into must itself be an
	// OpAnd (or the seeding OpAssign{Value: true}), never a plain overwrite
	// with an arbitrary sub-match result — that would be the last-match-wins
	// regression the conjunction fix closes.
	for _, blk := range proc.Blocks {
		for _, s := range blk.Stmts {
			a, ok := s.(ir.Assign)
			if !ok {
				continue
			}
			tv, ok := a.Target.(ir.TargetVariable)
			if !ok || !succeededSlots[tv.Slot] {
				continue
			}
			switch op := a.Op.(type) {
			case ir.OpAnd:
			case ir.OpAssign:
				assert.Equal(t, ir.ValueBool{Value: true}, a.Source, "a non-AND write to a conjoined success slot must only be the initial seed to true")
			default:
				t.Fatalf("unexpected op %T writing into conjoined success slot", op)
			}
		}
	}
}
