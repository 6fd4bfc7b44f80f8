package cst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnescapeRecognisedEscapes(t *testing.T) {
	assert.Equal(t, "\n\t\r\b\f'\"\\", Unescape(`\n\t\r\b\f\'\"\\`))
}

func TestUnescapeHexAndUnicode(t *testing.T) {
	assert.Equal(t, "A", Unescape(`\x41`))
	assert.Equal(t, "€", Unescape("\\u20ac"))
}

func TestUnescapeOctal(t *testing.T) {
	assert.Equal(t, "A", Unescape(`\101`)) // 0101 octal = 65 = 'A', three-digit form, leading digit 1
	assert.Equal(t, "!", Unescape(`\41`))  // two-digit form, leading digit 4
}

func TestUnescapeMalformedFallsBackToLiteralBackslash(t *testing.T) {
	assert.Equal(t, `\q`, Unescape(`\q`))
	assert.Equal(t, `\`, Unescape(`\`))
}

func TestUnescapeIncompleteUnicodeFallsBack(t *testing.T) {
	assert.Equal(t, `\u12`, Unescape(`\u12`))
}
