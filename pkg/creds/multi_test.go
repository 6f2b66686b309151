package creds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiUnion(t *testing.T) {
	m := NewMulti(
		NewPermutator([]rune{'a'}, 1, 1),
		NewPermutator([]rune{'b', 'c'}, 1, 1),
	)
	require.EqualValues(t, 3, m.SearchSpaceSize())
	assert.Equal(t, []string{"a", "b", "c"}, drain(m))
}

func TestMultiCloneIsIndependent(t *testing.T) {
	m := NewMulti(NewConstant("a"), NewConstant("b"))
	_, _ = m.Next()
	clone := m.Clone()
	assert.Equal(t, []string{"a", "b"}, drain(clone))
	assert.Equal(t, []string{"b"}, drain(m))
}
