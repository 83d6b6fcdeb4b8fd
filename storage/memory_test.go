package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage()

	_, found, err := m.GetItem("k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, m.SetItem("k", "v"))
	v, found, err := m.GetItem("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)

	require.NoError(t, m.RemoveItem("k"))
	_, found, _ = m.GetItem("k")
	assert.False(t, found)
}
