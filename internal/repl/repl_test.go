package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartLowersEachLine(t *testing.T) {
	in := strings.NewReader("x := 1 + 2;\n")
	var out bytes.Buffer

	Start(in, &out)

	got := out.String()
	assert.Contains(t, got, "cst:")
	assert.Contains(t, got, "ir (proc")
	assert.Contains(t, got, "Assign")
}

func TestStartRecoversFromCheckPassPanic(t *testing.T) {
	in := strings.NewReader("break;\n")
	var out bytes.Buffer

	Start(in, &out)

	assert.Contains(t, out.String(), "error:")
}

func TestStartSkipsBlankLines(t *testing.T) {
	in := strings.NewReader("\n\nx := 1;\n")
	var out bytes.Buffer

	Start(in, &out)

	assert.Equal(t, 1, strings.Count(out.String(), "cst:"))
}
