package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeHas(t *testing.T) {
	m := TypeSet | TypeList
	assert.True(t, m.Has(TypeSet))
	assert.True(t, m.Has(TypeList))
	assert.False(t, m.Has(TypeString))
}

func TestTypeShortcuts(t *testing.T) {
	assert.True(t, TypePlus.Has(TypeSet))
	assert.True(t, TypePlus.Has(TypeString))
	assert.False(t, TypeMinus.Has(TypeSet))
	assert.True(t, TypeMul.Has(TypeString))
	assert.Equal(t, TypeMinus, TypeQuot)
}

func TestTypeStringEmpty(t *testing.T) {
	assert.Equal(t, "<empty>", Type(0).String())
}

func TestTypeStringListsActiveFlags(t *testing.T) {
	assert.Equal(t, "<set, list>", (TypeSet | TypeList).String())
}
