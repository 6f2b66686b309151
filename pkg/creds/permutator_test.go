package creds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(it Iterator) []string {
	var out []string
	for {
		v, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestPermutatorMatchesLiteralSequence(t *testing.T) {
	p := NewPermutator([]rune{'a', 'b'}, 1, 2)
	require.EqualValues(t, 6, p.SearchSpaceSize())
	assert.Equal(t, []string{"a", "b", "aa", "ab", "ba", "bb"}, drain(p))
}

func TestPermutatorCompleteness(t *testing.T) {
	charset := []rune{'a', 'b', 'c'}
	p := NewPermutator(charset, 1, 3)

	var want uint64
	for i := 1; i <= 3; i++ {
		want += ipow(3, uint64(i))
	}
	require.EqualValues(t, want, p.SearchSpaceSize())

	seen := make(map[string]bool)
	prev := ""
	for {
		v, ok := p.Next()
		if !ok {
			break
		}
		assert.False(t, seen[v], "duplicate permutation %q", v)
		seen[v] = true
		assert.GreaterOrEqual(t, len(v), 1)
		assert.LessOrEqual(t, len(v), 3)
		if len(prev) == len(v) {
			assert.Less(t, prev, v, "permutations must be strictly lexicographic within a length")
		}
		prev = v
	}
	assert.EqualValues(t, want, len(seen))
}

// TestPermutatorCompletenessLengthExceedsCharset exercises permutation
// lengths past the charset size, where carry resolution must look up the
// successor character in charset order rather than confusing a string
// position with a charset index. Mirrors a PIN-cracking scenario: a small
// digit set searched to a length several times its own size.
func TestPermutatorCompletenessLengthExceedsCharset(t *testing.T) {
	charset := []rune{'0', '1', '2', '3'}
	p := NewPermutator(charset, 1, 5)

	var want uint64
	for i := 1; i <= 5; i++ {
		want += ipow(uint64(len(charset)), uint64(i))
	}
	require.EqualValues(t, want, p.SearchSpaceSize())

	seen := make(map[string]bool)
	prev := ""
	for {
		v, ok := p.Next()
		if !ok {
			break
		}
		assert.False(t, seen[v], "duplicate permutation %q", v)
		seen[v] = true
		if len(prev) == len(v) {
			assert.Less(t, prev, v, "permutations must be strictly lexicographic within a length")
		}
		prev = v
	}
	assert.EqualValues(t, want, len(seen))
}

func TestPermutatorClone(t *testing.T) {
	p := NewPermutator([]rune{'x', 'y'}, 1, 1)
	_, _ = p.Next()
	clone := p.Clone()
	assert.Equal(t, []string{"x", "y"}, drain(clone))
}
