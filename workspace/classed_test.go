package workspace_test

import (
	"errors"
	"testing"

	"github.com/katalvlaran/lvconn/signal"
	"github.com/katalvlaran/lvconn/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassed_Variants(t *testing.T) {
	var zero workspace.Classed[int]
	assert.True(t, zero.IsZero())
	assert.Zero(t, zero.Len())
	_, ok := zero.Value()
	assert.False(t, ok)

	s := workspace.Single(7)
	assert.False(t, s.IsPerClass())
	v, ok := s.Value()
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	_, ok = s.Get("")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())

	src := map[signal.Label]int{"z": 1, "a": 2, "m": 3}
	p := workspace.PerClass(src)
	src["q"] = 9 // the Classed keeps its own copy
	assert.True(t, p.IsPerClass())
	assert.Equal(t, []signal.Label{"a", "m", "z"}, p.Classes())
	assert.Equal(t, 3, p.Len())
	v, ok = p.Get("m")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	_, ok = p.Value()
	assert.False(t, ok)
}

func TestApply_KeepsVariantAndOrder(t *testing.T) {
	p := workspace.PerClass(map[signal.Label]int{"b": 2, "a": 1})
	var seen []signal.Label
	out, err := workspace.Apply(p, func(l signal.Label, v int) (string, error) {
		seen = append(seen, l)
		return string(l) + "!", nil
	})
	require.NoError(t, err)
	assert.Equal(t, []signal.Label{"a", "b"}, seen)
	assert.True(t, out.IsPerClass())
	got, _ := out.Get("b")
	assert.Equal(t, "b!", got)

	single, err := workspace.Apply(workspace.Single(2), func(_ signal.Label, v int) (int, error) { return v * 10, nil })
	require.NoError(t, err)
	v, ok := single.Value()
	assert.True(t, ok)
	assert.Equal(t, 20, v)

	boom := errors.New("boom")
	failed, err := workspace.Apply(p, func(signal.Label, int) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, failed.IsZero())

	var visited int
	require.NoError(t, p.Each(func(signal.Label, int) error { visited++; return nil }))
	assert.Equal(t, 2, visited)
}
