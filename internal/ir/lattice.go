package ir

import "strings"

// Type is a bitflag mask over the runtime type lattice (spec.md §3 "Type
// lattice"). It never drives inference; the lowerer is responsible for
// choosing the correct mask on every Assign it emits.
type Type uint32

const (
	TypePtr Type = 1 << iota
	TypeProcedure
	TypeClosure
	TypeObject
	TypeClass
	TypeNativeRegex
	TypeIterator
	TypeSet
	TypeList
	TypeTerm
	TypeTTerm
	TypeAST
	TypeString
	TypeBool
	TypeNumber
	TypeDouble
	TypeMatrix
	TypeVector
	TypeType
	TypeUndefined
)

// Named shortcuts, per spec.md §3.
const (
	TypeMinus = TypeNumber | TypeDouble | TypeMatrix | TypeVector
	TypePlus  = TypeSet | TypeList | TypeString | TypeMinus
	TypeMul   = TypeMinus | TypeString
	TypeQuot  = TypeMinus
	TypeAny   = TypePtr | TypeProcedure | TypeClosure | TypeObject | TypeClass |
		TypeNativeRegex | TypeIterator | TypeSet | TypeList | TypeTerm | TypeTTerm |
		TypeAST | TypeString | TypeBool | TypeNumber | TypeDouble | TypeMatrix |
		TypeVector | TypeType | TypeUndefined
)

// Has reports whether t includes every flag in mask.
func (t Type) Has(mask Type) bool { return t&mask == mask }

var typeDisplayNames = []struct {
	flag Type
	name string
}{
	{TypePtr, "ptr"},
	{TypeProcedure, "proc"},
	{TypeClosure, "clos"},
	{TypeObject, "obj"},
	{TypeClass, "class"},
	{TypeNativeRegex, "native_regex"},
	{TypeIterator, "iter"},
	{TypeSet, "set"},
	{TypeList, "list"},
	{TypeTerm, "term"},
	{TypeTTerm, "tterm"},
	{TypeAST, "ast"},
	{TypeString, "string"},
	{TypeBool, "bool"},
	{TypeNumber, "number"},
	{TypeDouble, "float"},
	{TypeMatrix, "matrix"},
	{TypeVector, "vector"},
	{TypeType, "type"},
	{TypeUndefined, "om"},
}

// String renders the active flags in declaration order, e.g. "<set, list>".
func (t Type) String() string {
	var parts []string
	for _, d := range typeDisplayNames {
		if t.Has(d.flag) {
			parts = append(parts, d.name)
		}
	}
	if len(parts) == 0 {
		return "<empty>"
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
