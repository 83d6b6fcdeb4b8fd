package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchAcrossChannels(t *testing.T) {
	store := NewStore(newFakeStorage(), nil)
	require.NoError(t, store.AppendChannel(ChannelTodo, Partial{Role: RoleUser, Content: "deploy the billing service"}))
	require.NoError(t, store.AppendChannel(ChannelRAG, Partial{Role: RoleUser, Content: "leave policy"}))

	matches := Search(store, "billing")
	require.NotEmpty(t, matches)

	var found bool
	for _, m := range matches {
		if m.Channel == ChannelTodo && m.MessageIndex == 1 {
			found = true
			assert.Equal(t, RoleUser, m.Role)
			assert.Equal(t, "deploy the billing service", m.Preview)
		}
	}
	assert.True(t, found)
}

func TestSearchEmptyQuery(t *testing.T) {
	store := NewStore(newFakeStorage(), nil)
	got := Search(store, "   ")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", Preview("a\n  b\tc", 20))

	long := strings.Repeat("x", 50)
	got := Preview(long, 10)
	assert.Equal(t, "xxxxxxx...", got)
}
