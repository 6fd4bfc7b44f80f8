package pass

import "setlx/internal/cst"

// NoopPass implements C5: it walks every block and keeps statements only up
// to (and including) the first unconditional terminator
// (return/break/continue/exit/backtrack), dropping everything after.
// Running it twice is idempotent (spec.md §8.7): the second run finds no
// statement past a terminator left to drop.
type NoopPass struct{}

func NewNoopPass() *NoopPass { return &NoopPass{} }

func (np *NoopPass) Run(blk *cst.Block) *cst.Block {
	np.prune(blk)
	return blk
}

func (np *NoopPass) prune(blk *cst.Block) {
	for i, s := range blk.Stmts {
		np.pruneStmt(s)
		if isTerminator(s) {
			blk.Stmts = blk.Stmts[:i+1]
			return
		}
	}
}

func (np *NoopPass) pruneStmt(s cst.Stmt) {
	switch n := s.(type) {
	case *cst.IfStmt:
		for i := range n.Branches {
			np.prune(&n.Branches[i].Body)
		}
		if n.Else != nil {
			np.prune(n.Else)
		}
	case *cst.SwitchStmt:
		for i := range n.Branches {
			np.prune(&n.Branches[i].Body)
		}
		if n.Default != nil {
			np.prune(n.Default)
		}
	case *cst.WhileStmt:
		np.prune(&n.Body)
	case *cst.DoWhileStmt:
		np.prune(&n.Body)
	case *cst.ForStmt:
		np.prune(&n.Body)
	case *cst.TryCatchStmt:
		np.prune(&n.Try)
		for i := range n.Catches {
			np.prune(&n.Catches[i].Body)
		}
	case *cst.CheckStmt:
		np.prune(&n.Body)
		np.prune(&n.AfterBacktrack)
	case *cst.MatchStmt:
		for i := range n.Branches {
			np.prune(&n.Branches[i].Body)
		}
		if n.Default != nil {
			np.prune(n.Default)
		}
	case *cst.ScanStmt:
		for i := range n.Branches {
			np.prune(&n.Branches[i].Body)
		}
	case *cst.ClassStmt:
		np.prune(&n.Body)
		if n.Static != nil {
			np.prune(n.Static)
		}
	}
}
