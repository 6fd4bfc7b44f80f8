// Package ir defines the lowered representation lowering produces: a CFG of
// procedures, each holding a CFG of basic blocks over three-address
// statements (spec.md §3 "IR CFG").
package ir

// ProcHandle addresses a procedure in a Program. The outer graph has no
// edges of its own (spec.md §3 "edges unused"); a procedure is only ever
// referenced by this opaque handle, e.g. from a ValueProcedure or a Call op.
type ProcHandle int

// BlockHandle addresses a basic block within a single Procedure. Blocks are
// appended, never removed (spec.md §5 "append-only mutation"), so a plain
// slice index is a stable handle for the lifetime of this front end; see
// spec.md §9 "model blocks via stable index handles".
type BlockHandle int

// Program is the top-level compilation unit: every procedure reachable from
// source, addressed by ProcHandle.
type Program struct {
	Procedures []*Procedure
	Main       ProcHandle
}

func NewProgram() *Program { return &Program{} }

// AddProcedure appends proc and returns its stable handle.
func (p *Program) AddProcedure(proc *Procedure) ProcHandle {
	p.Procedures = append(p.Procedures, proc)
	return ProcHandle(len(p.Procedures) - 1)
}

func (p *Program) Procedure(h ProcHandle) *Procedure { return p.Procedures[h] }

// Procedure holds one procedure's block CFG and its append-only temp-slot
// vector (spec.md §3).
type Procedure struct {
	// Name is diagnostic only — procedures are addressed by handle, never
	// by name, at the IR layer.
	Name       string
	StartBlock BlockHandle
	EndBlock   BlockHandle
	Blocks     []*Block
	NumSlots   int
}

func NewProcedure(name string) *Procedure { return &Procedure{Name: name} }

// AddBlock appends a new empty block and returns its handle.
func (p *Procedure) AddBlock() BlockHandle {
	p.Blocks = append(p.Blocks, &Block{})
	return BlockHandle(len(p.Blocks) - 1)
}

func (p *Procedure) Block(h BlockHandle) *Block { return p.Blocks[h] }

// NewSlot allocates a fresh temp-variable slot and returns its index.
func (p *Procedure) NewSlot() int {
	slot := p.NumSlots
	p.NumSlots++
	return slot
}

// Block is a maximal straight-line sequence of statements, ending in at most
// one terminator (Branch, Try, Goto, Return, Unreachable).
type Block struct {
	Stmts []Stmt
}

func (b *Block) Append(s Stmt) { b.Stmts = append(b.Stmts, s) }

// Terminator returns the block's final statement if it is a terminator
// variant, and whether one was found (spec.md §8.3).
func (b *Block) Terminator() (Stmt, bool) {
	if len(b.Stmts) == 0 {
		return nil, false
	}
	switch b.Stmts[len(b.Stmts)-1].(type) {
	case Branch, Try, Goto, Return, Unreachable:
		return b.Stmts[len(b.Stmts)-1], true
	default:
		return nil, false
	}
}
