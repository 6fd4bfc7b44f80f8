package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuiltinProcStringIsSnakeCase(t *testing.T) {
	assert.Equal(t, "term_kind_eq", ProcTermKindEq.String())
	assert.Equal(t, "list_new", ProcListNew.String())
	assert.Equal(t, "stack_frame_restore", ProcStackFrameRestore.String())
	assert.Equal(t, "ast_node_kind_str_eq", ProcAstNodeKindStrEq.String())
}

func TestBuiltinVarStringIsSnakeCase(t *testing.T) {
	assert.Equal(t, "exception_val", VarExceptionVal.String())
	assert.Equal(t, "exception_kind", VarExceptionKind.String())
	assert.Equal(t, "params", VarParams.String())
}
