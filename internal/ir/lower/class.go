package lower

import (
	"setlx/internal/cst"
	"setlx/internal/ir"
)

// buildConstructor ports class.rs's constructor_new: a standalone procedure
// that binds the class's declared parameters, runs the class body, then
// snapshots the frame into a fresh object.
func (b *Builder) buildConstructor(c *cst.ClassStmt) ir.ProcHandle {
	outerProc, outerBlock, outerScope, outerRet := b.proc, b.block, b.scope, b.ret

	b.proc = ir.NewProcedure("constructor")
	b.scope = make(map[string][]int)

	initBlock := b.proc.AddBlock()
	b.proc.StartBlock = initBlock
	b.SetBlock(initBlock)
	b.EmitNativeCallIgnore(ir.ProcStackFrameAdd)
	b.pushProcParams(c.Params)
	b.EmitNativeCallIgnore(ir.ProcStackFrameAdd)

	for _, name := range collectAssignedNames(c.Body) {
		if _, ok := b.scope[name]; ok {
			continue
		}
		b.PushName(name)
	}

	followBlock := b.proc.AddBlock()
	b.proc.EndBlock = followBlock
	b.ret = &procRetCtx{retVar: -1, endBlock: followBlock}

	if !b.EmitBlock(c.Body) {
		b.Goto(followBlock)
	}

	b.SetBlock(followBlock)
	stackSlot := b.EmitNativeCall(ir.TypeList, ir.ProcStackFrameSave)
	b.EmitNativeCallIgnore(ir.ProcStackFramePop)
	objSlot := b.EmitNativeCall(ir.TypeObject, ir.ProcObjectNew, ir.ValueString{Value: c.Name}, ir.ValueVariable{Slot: stackSlot})
	b.ReturnValue(ir.ValueVariable{Slot: objSlot})

	handle := b.Prog.AddProcedure(b.proc)
	b.proc, b.block, b.scope, b.ret = outerProc, outerBlock, outerScope, outerRet
	return handle
}

// buildStaticInit ports class.rs's static_new: runs the optional static
// block once and registers its frame as the class's static namespace.
func (b *Builder) buildStaticInit(c *cst.ClassStmt) ir.ProcHandle {
	outerProc, outerBlock, outerScope, outerRet := b.proc, b.block, b.scope, b.ret

	b.proc = ir.NewProcedure("static")
	b.scope = make(map[string][]int)

	initBlock := b.proc.AddBlock()
	b.proc.StartBlock = initBlock
	b.SetBlock(initBlock)
	b.EmitNativeCallIgnore(ir.ProcStackFrameAdd)
	b.ret = &procRetCtx{retVar: -1, endBlock: initBlock}

	if c.Static != nil {
		for _, name := range collectAssignedNames(*c.Static) {
			if _, ok := b.scope[name]; ok {
				continue
			}
			b.PushName(name)
		}
		b.EmitBlock(*c.Static)
	}

	stackSlot := b.EmitNativeCall(ir.TypeList, ir.ProcStackFrameSave)
	b.EmitNativeCallIgnore(ir.ProcClassStaticSet, ir.ValueString{Value: c.Name}, ir.ValueVariable{Slot: stackSlot})
	b.ReturnValue(ir.ValueUndefined{})
	b.proc.EndBlock = b.block

	handle := b.Prog.AddProcedure(b.proc)
	b.proc, b.block, b.scope, b.ret = outerProc, outerBlock, outerScope, outerRet
	return handle
}

// emitClass ports class.rs's block_class_push: synthesize the constructor
// and static-initializer procedures, then register the class by name.
func (b *Builder) emitClass(c *cst.ClassStmt) {
	constructorHandle := b.buildConstructor(c)
	staticHandle := b.buildStaticInit(c)

	b.EmitNativeCallIgnore(ir.ProcClassAdd,
		ir.ValueString{Value: c.Name},
		ir.ValueProcedure{Handle: staticHandle},
		ir.ValueProcedure{Handle: constructorHandle},
	)
}
