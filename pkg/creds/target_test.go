package creds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTargetsSingleHost(t *testing.T) {
	out, err := ExpandTargets("example.invalid", 80)
	require.NoError(t, err)
	assert.Equal(t, []Target{{Host: "example.invalid", Port: 80}}, out)
}

func TestExpandTargetsHostWithPort(t *testing.T) {
	out, err := ExpandTargets("example.invalid:8080", 80)
	require.NoError(t, err)
	assert.Equal(t, []Target{{Host: "example.invalid", Port: 8080}}, out)
}

func TestExpandTargetsCIDR(t *testing.T) {
	out, err := ExpandTargets("10.0.0.0/30", 22)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, "10.0.0.0", out[0].Host)
	assert.Equal(t, "10.0.0.3", out[3].Host)
}

func TestExpandTargetsHostRange(t *testing.T) {
	out, err := ExpandTargets("10.0.0.1-10.0.0.3", 22)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "10.0.0.2", out[1].Host)
}

func TestExpandTargetsCommaList(t *testing.T) {
	out, err := ExpandTargets("a.invalid, b.invalid:2222", 80)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, Target{Host: "a.invalid", Port: 80}, out[0])
	assert.Equal(t, Target{Host: "b.invalid", Port: 2222}, out[1])
}
