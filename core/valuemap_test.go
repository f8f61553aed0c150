package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueMap_SetGetClone(t *testing.T) {
	m := NewValueMap[int]()
	_, ok := m.Get(1)
	require.False(t, ok)

	m.Set(1, ValArray{4, 5})
	v, ok := m.Get(1)
	require.True(t, ok)
	require.Equal(t, ValArray{4, 5}, v)

	clone := m.Clone()
	clone.values[1][0] = 99
	require.Equal(t, 4.0, m.values[1][0], "clone must not alias the original buffer")
}
