package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"setlx/internal/cst"
	"setlx/internal/cst/pass"
)

func TestCompileErrorFormatsWithPosition(t *testing.T) {
	err := Wrap("test.slx", cst.Position{Line: 3, Column: 5}, errors.New("unbalanced $"))
	assert.Equal(t, "test.slx:3:5: unbalanced $", err.Error())
}

func TestCompileErrorFormatsWithoutPosition(t *testing.T) {
	err := Wrap("test.slx", cst.Position{}, errors.New("boom"))
	assert.Equal(t, "test.slx: boom", err.Error())
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap("test.slx", cst.Position{}, nil))
}

func TestReporterDoesNotPanicOnOutOfRangeWarning(t *testing.T) {
	r := NewReporter("test.slx", "x := 1;\n")
	assert.NotPanics(t, func() {
		r.ReportWarning(pass.Warning{Pos: cst.Position{Line: 99, Column: 1}, Message: "unreachable"})
	})
}
