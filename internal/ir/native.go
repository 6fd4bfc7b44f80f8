package ir

import (
	"fmt"

	"github.com/iancoleman/strcase"
)

// BuiltinProc is a tag drawn from the closed native-procedure vocabulary the
// lowerer is allowed to emit NativeCalls against (spec.md §6). Its String
// form is the runtime-facing tag, derived with strcase.ToSnake the same way
// the upstream implementation serialises its enum in snake_case.
type BuiltinProc int

const (
	ProcContains BuiltinProc = iota
	ProcCartesian
	ProcPow
	ProcAmount
	ProcTermNew
	ProcTermAdd
	ProcTermKindEq
	ProcListNew
	ProcListPush
	ProcListExtend
	ProcListRange
	ProcListResize
	ProcListRefSlice
	ProcListTaggedGet
	ProcSetNew
	ProcSetInsert
	ProcSetExtend
	ProcSetRange
	ProcSetListGet
	ProcStackGetAssert
	ProcStackGetOrNew
	ProcStackAlias
	ProcStackAdd
	ProcStackPop
	ProcStackFrameAdd
	ProcStackFramePop
	ProcStackFrameSave
	ProcStackFrameRestore
	ProcStackFrameCopy
	ProcStackCopy
	ProcIterNew
	ProcIterNext
	ProcObjectNew
	ProcObjectGetAssert
	ProcClassStaticSet
	ProcClassAdd
	ProcClosureNew
	ProcProcedureNew
	ProcCacheAdd
	ProcCacheLookup
	ProcRefSlice
	ProcSlice
	ProcCopy
	ProcInvalidate
	ProcTypeOf
	ProcTypeAssert
	ProcAssert
	ProcExit
	ProcThrow
	ProcRegexCompile
	ProcRegexCompileMultiLine
	ProcRegexMatch
	ProcRegexMatchLen
	ProcRegexMatchGroups
	ProcRegexMatchGroupsLen
	ProcRegexMatchGroupsOffset
	ProcAstNodeNew
	ProcAstNodeKindEq
	ProcAstNodeKindStrEq
	ProcAstAssignEq
)

var builtinProcIdent = map[BuiltinProc]string{
	ProcContains: "Contains", ProcCartesian: "Cartesian", ProcPow: "Pow",
	ProcAmount: "Amount", ProcTermNew: "TermNew", ProcTermAdd: "TermAdd",
	ProcTermKindEq: "TermKindEq", ProcListNew: "ListNew", ProcListPush: "ListPush",
	ProcListExtend: "ListExtend", ProcListRange: "ListRange", ProcListResize: "ListResize",
	ProcListRefSlice: "ListRefSlice", ProcListTaggedGet: "ListTaggedGet",
	ProcSetNew: "SetNew", ProcSetInsert: "SetInsert", ProcSetExtend: "SetExtend",
	ProcSetRange: "SetRange", ProcSetListGet: "SetListGet",
	ProcStackGetAssert: "StackGetAssert", ProcStackGetOrNew: "StackGetOrNew",
	ProcStackAlias: "StackAlias", ProcStackAdd: "StackAdd", ProcStackPop: "StackPop",
	ProcStackFrameAdd: "StackFrameAdd", ProcStackFramePop: "StackFramePop",
	ProcStackFrameSave: "StackFrameSave", ProcStackFrameRestore: "StackFrameRestore",
	ProcStackFrameCopy: "StackFrameCopy", ProcStackCopy: "StackCopy",
	ProcIterNew: "IterNew", ProcIterNext: "IterNext",
	ProcObjectNew: "ObjectNew", ProcObjectGetAssert: "ObjectGetAssert",
	ProcClassStaticSet: "ClassStaticSet", ProcClassAdd: "ClassAdd",
	ProcClosureNew: "ClosureNew", ProcProcedureNew: "ProcedureNew",
	ProcCacheAdd: "CacheAdd", ProcCacheLookup: "CacheLookup",
	ProcRefSlice: "RefSlice", ProcSlice: "Slice", ProcCopy: "Copy",
	ProcInvalidate: "Invalidate", ProcTypeOf: "TypeOf", ProcTypeAssert: "TypeAssert",
	ProcAssert: "Assert", ProcExit: "Exit", ProcThrow: "Throw",
	ProcRegexCompile: "RegexCompile", ProcRegexCompileMultiLine: "RegexCompileMultiLine",
	ProcRegexMatch: "RegexMatch", ProcRegexMatchLen: "RegexMatchLen",
	ProcRegexMatchGroups: "RegexMatchGroups", ProcRegexMatchGroupsLen: "RegexMatchGroupsLen",
	ProcRegexMatchGroupsOffset: "RegexMatchGroupsOffset",
	ProcAstNodeNew:             "AstNodeNew", ProcAstNodeKindEq: "AstNodeKindEq",
	ProcAstNodeKindStrEq: "AstNodeKindStrEq", ProcAstAssignEq: "AstAssignEq",
}

func (p BuiltinProc) String() string {
	if ident, ok := builtinProcIdent[p]; ok {
		return strcase.ToSnake(ident)
	}
	return fmt.Sprintf("BuiltinProc(%d)", int(p))
}

// BuiltinVar is a tag drawn from the closed set of runtime-populated
// variables (spec.md §6).
type BuiltinVar int

const (
	VarExceptionVal BuiltinVar = iota
	VarExceptionKind
	VarParams
)

var builtinVarIdent = map[BuiltinVar]string{
	VarExceptionVal: "ExceptionVal", VarExceptionKind: "ExceptionKind", VarParams: "Params",
}

func (v BuiltinVar) String() string {
	if ident, ok := builtinVarIdent[v]; ok {
		return strcase.ToSnake(ident)
	}
	return fmt.Sprintf("BuiltinVar(%d)", int(v))
}

// ExceptionKind values populated into VarExceptionKind on throw (spec.md §6).
const (
	ExceptionLanguage  = 0
	ExceptionUser      = 1
	ExceptionBacktrack = 2
)
