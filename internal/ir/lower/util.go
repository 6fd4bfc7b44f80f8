// Package lower translates a normalised internal/cst tree into internal/ir
// (spec.md §4.3–§4.8, the CST-to-IR lowering half of the front end).
package lower

import "setlx/internal/ir"

// Builder is the shared emission/scope state threaded through every lowering
// function (C7: the ownership/util layer). One Builder lowers one whole
// program; Proc/Block track the emitter's current position, mirroring the
// teacher's own Builder.currentFunc/currentBlock cursor.
type Builder struct {
	Prog  *ir.Program
	proc  *ir.Procedure
	block ir.BlockHandle

	// scope is the compile-time lexical map of in-scope names to the
	// (append-only) stack of temp slots holding their runtime PTR, per
	// spec.md §5 "a mutable lexical map of in-scope bindings". Distinct
	// from the runtime stack the emitted stack_add/stack_pop calls
	// maintain (spec.md §9 "open scope stack → explicit stack").
	scope map[string][]int

	nCached int

	// ret names the active procedure's return-value slot and the block a
	// return statement jumps to (spec.md §4.7's ret_var/end_block
	// indirection, which lets a cached procedure's end block splice in a
	// cache_add before the pop-and-return block).
	ret *procRetCtx

	// loops is the stack of enclosing loop exit points, innermost last, so
	// break/continue lowering can jump without threading state through
	// every statement emitter (spec.md §4.6 "for/while loops").
	loops []loopCtx
}

// loopCtx names where break/continue jump for one enclosing loop.
type loopCtx struct {
	breakBlock    ir.BlockHandle
	continueBlock ir.BlockHandle
}

func (b *Builder) pushLoop(breakBlock, continueBlock ir.BlockHandle) {
	b.loops = append(b.loops, loopCtx{breakBlock: breakBlock, continueBlock: continueBlock})
}

func (b *Builder) popLoop() {
	b.loops = b.loops[:len(b.loops)-1]
}

func (b *Builder) currentLoop() (loopCtx, bool) {
	if len(b.loops) == 0 {
		return loopCtx{}, false
	}
	return b.loops[len(b.loops)-1], true
}

func NewBuilder() *Builder {
	return &Builder{Prog: ir.NewProgram(), scope: make(map[string][]int)}
}

// EnterProcedure switches the builder's cursor to a freshly created
// procedure and returns its handle.
func (b *Builder) EnterProcedure(name string) ir.ProcHandle {
	b.proc = ir.NewProcedure(name)
	h := b.Prog.AddProcedure(b.proc)
	return h
}

// Proc returns the procedure currently being lowered into.
func (b *Builder) Proc() *ir.Procedure { return b.proc }

// SetBlock moves the emission cursor to an existing block.
func (b *Builder) SetBlock(h ir.BlockHandle) { b.block = h }

// CurrentBlockHandle returns the emission cursor.
func (b *Builder) CurrentBlockHandle() ir.BlockHandle { return b.block }

// NewBlock appends a fresh empty block to the current procedure.
func (b *Builder) NewBlock() ir.BlockHandle { return b.proc.AddBlock() }

// NewTemp allocates a fresh temp slot in the current procedure.
func (b *Builder) NewTemp() int { return b.proc.NewSlot() }

func (b *Builder) currentBlock() *ir.Block { return b.proc.Block(b.block) }

// Emit appends a statement to the current block.
func (b *Builder) Emit(s ir.Stmt) { b.currentBlock().Append(s) }

// EmitAssign is the general Assign emitter.
func (b *Builder) EmitAssign(target ir.Target, types ir.Type, source ir.Value, op ir.Op) {
	b.Emit(ir.Assign{Target: target, Types: types, Source: source, Op: op})
}

// EmitTemp allocates a fresh slot, assigns into it, and returns the slot.
func (b *Builder) EmitTemp(types ir.Type, source ir.Value, op ir.Op) int {
	slot := b.NewTemp()
	b.EmitAssign(ir.TargetVariable{Slot: slot}, types, source, op)
	return slot
}

// EmitNativeCall emits a NativeCall op into a fresh temp and returns its
// slot. Most runtime-procedure invocations in lowering go through this.
func (b *Builder) EmitNativeCall(types ir.Type, proc ir.BuiltinProc, args ...ir.Value) int {
	return b.EmitTemp(types, ir.ValueUndefined{}, ir.OpNativeCall{Proc: proc, Args: args})
}

// EmitNativeCallIgnore is EmitNativeCall for its side effect only, per
// spec.md §3 "Ignore" target — no result is retained.
func (b *Builder) EmitNativeCallIgnore(proc ir.BuiltinProc, args ...ir.Value) {
	b.EmitAssign(ir.TargetIgnore{}, ir.TypeUndefined, ir.ValueUndefined{}, ir.OpNativeCall{Proc: proc, Args: args})
}

// EmitInvalidate consumes an owned temp (spec.md §3 "Ownership discipline").
func (b *Builder) EmitInvalidate(slot int) {
	b.EmitNativeCallIgnore(ir.ProcInvalidate, ir.ValueVariable{Slot: slot})
}

// InvalidateIfOwned is the idiom every expression/statement emitter uses to
// discharge its ownership obligation (spec.md §8.5).
func (b *Builder) InvalidateIfOwned(slot int, owned bool) {
	if owned {
		b.EmitInvalidate(slot)
	}
}

// Goto/BranchTo/ReturnValue/MarkUnreachable append the named terminator to
// the current block.
func (b *Builder) Goto(target ir.BlockHandle) { b.Emit(ir.Goto{Target: target}) }
func (b *Builder) BranchTo(cond ir.Value, success, failure ir.BlockHandle) {
	b.Emit(ir.Branch{Cond: cond, Success: success, Failure: failure})
}
func (b *Builder) ReturnValue(v ir.Value) { b.Emit(ir.Return{Value: v}) }
func (b *Builder) MarkUnreachable()       { b.Emit(ir.Unreachable{}) }
func (b *Builder) MarkTryEnd()            { b.Emit(ir.TryEnd{}) }
func (b *Builder) EmitTry(attempt, catch ir.BlockHandle) {
	b.Emit(ir.Try{Attempt: attempt, Catch: catch})
}

// PushFrame/PopFrame bracket a runtime stack frame (procedure entry/exit,
// closure restore).
func (b *Builder) PushFrame() { b.EmitNativeCallIgnore(ir.ProcStackFrameAdd) }
func (b *Builder) PopFrame()  { b.EmitNativeCallIgnore(ir.ProcStackFramePop) }

// PushName creates a fresh runtime binding for name and records it in the
// compile-time lexical map; returns the temp slot holding its PTR.
func (b *Builder) PushName(name string) int {
	slot := b.EmitNativeCall(ir.TypePtr, ir.ProcStackAdd, ir.ValueString{Value: name})
	b.scope[name] = append(b.scope[name], slot)
	return slot
}

// AliasName binds name to a foreign PTR value (rw-parameter passing).
func (b *Builder) AliasName(name string, ptr ir.Value) int {
	slot := b.EmitNativeCall(ir.TypePtr, ir.ProcStackAlias, ir.ValueString{Value: name}, ptr)
	b.scope[name] = append(b.scope[name], slot)
	return slot
}

// PopName drops the most recent runtime binding of name and its
// compile-time lexical entry. Every PushName/AliasName must be matched by
// exactly one PopName on every exit edge (spec.md §8.6).
func (b *Builder) PopName(name string) {
	b.EmitNativeCallIgnore(ir.ProcStackPop, ir.ValueString{Value: name})
	stk := b.scope[name]
	if len(stk) > 0 {
		b.scope[name] = stk[:len(stk)-1]
	}
}

// LookupName resolves a name through the lexical map without emitting
// anything; expression lowering falls back to stack_get_assert on a miss.
func (b *Builder) LookupName(name string) (int, bool) {
	stk := b.scope[name]
	if len(stk) == 0 {
		return 0, false
	}
	return stk[len(stk)-1], true
}

// NewCacheIndex allocates the next cache slot for a cached procedure.
func (b *Builder) NewCacheIndex() int {
	idx := b.nCached
	b.nCached++
	return idx
}
