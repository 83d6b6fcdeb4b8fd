package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	norm := NewNormalizer(fixedClock)
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		in   MessageLike
		want Message
	}{
		{
			name: "well-formed message is kept",
			in:   Message{Role: RoleUser, Content: "hi", Timestamp: stamp},
			want: Message{Role: RoleUser, Content: "hi", Timestamp: stamp},
		},
		{
			name: "partial without role defaults to assistant",
			in:   Partial{Content: "hello"},
			want: Message{Role: RoleAssistant, Content: "hello", Timestamp: fixedNow},
		},
		{
			name: "type field stands in for role",
			in:   Partial{Type: RoleUser, Content: "q"},
			want: Message{Role: RoleUser, Content: "q", Timestamp: fixedNow},
		},
		{
			name: "role wins over type",
			in:   Partial{Role: "system", Type: RoleUser},
			want: Message{Role: "system", Content: "", Timestamp: fixedNow},
		},
		{
			name: "raw map is probed",
			in: Raw{Value: map[string]any{
				"role":      "user",
				"content":   "from json",
				"timestamp": "2024-01-02T03:04:05.000Z",
			}},
			want: Message{Role: RoleUser, Content: "from json", Timestamp: stamp},
		},
		{
			name: "raw map with wrong field types",
			in:   Raw{Value: map[string]any{"role": 7, "content": []any{"x"}, "timestamp": false}},
			want: Message{Role: RoleAssistant, Content: `["x"]`, Timestamp: fixedNow},
		},
		{
			name: "raw map with numeric content",
			in:   Raw{Value: map[string]any{"role": "assistant", "content": float64(5)}},
			want: Message{Role: RoleAssistant, Content: "5", Timestamp: fixedNow},
		},
		{
			name: "raw map with falsy content",
			in:   Raw{Value: map[string]any{"role": "user", "content": false}},
			want: Message{Role: RoleUser, Content: "", Timestamp: fixedNow},
		},
		{
			name: "raw wrapping a message",
			in:   Raw{Value: Message{Role: RoleUser, Content: "x", Timestamp: stamp}},
			want: Message{Role: RoleUser, Content: "x", Timestamp: stamp},
		},
		{
			name: "raw wrapping a partial",
			in:   Raw{Value: Partial{Type: RoleUser, Content: "y"}},
			want: Message{Role: RoleUser, Content: "y", Timestamp: fixedNow},
		},
		{
			name: "raw map with unparseable timestamp",
			in:   Raw{Value: map[string]any{"content": "x", "timestamp": "yesterday"}},
			want: Message{Role: RoleAssistant, Content: "x", Timestamp: fixedNow},
		},
		{
			name: "raw string",
			in:   Raw{Value: "not a message"},
			want: Message{Role: RoleAssistant, Content: "", Timestamp: fixedNow},
		},
		{
			name: "raw nil",
			in:   Raw{},
			want: Message{Role: RoleAssistant, Content: "", Timestamp: fixedNow},
		},
		{
			name: "nil input",
			in:   nil,
			want: Message{Role: RoleAssistant, Content: "", Timestamp: fixedNow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := norm.Normalize(tt.in)
			assert.Equal(t, tt.want.Role, got.Role)
			assert.Equal(t, tt.want.Content, got.Content)
			assert.True(t, tt.want.Timestamp.Equal(got.Timestamp), "timestamp %v != %v", got.Timestamp, tt.want.Timestamp)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	norm := NewNormalizer(time.Now)

	inputs := []MessageLike{
		Partial{Content: "a"},
		Raw{Value: map[string]any{"type": "user"}},
		Raw{Value: 42},
		Message{Role: RoleUser, Content: "b", Timestamp: fixedNow},
	}

	for _, in := range inputs {
		once := norm.Normalize(in)
		twice := norm.Normalize(once)
		assert.Equal(t, once, twice)
	}
}

func TestNormalizeAllCoercesNonSlices(t *testing.T) {
	norm := NewNormalizer(fixedClock)

	for _, in := range []any{nil, "text", 12, map[string]any{"role": "user"}, struct{}{}} {
		got := norm.NormalizeAll(in)
		require.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestNormalizeAllAcceptsSliceKinds(t *testing.T) {
	norm := NewNormalizer(fixedClock)

	got := norm.NormalizeAll([]map[string]any{
		{"role": "user", "content": "one"},
		{"content": "two"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, RoleUser, got[0].Role)
	assert.Equal(t, RoleAssistant, got[1].Role)

	got = norm.NormalizeAll([]any{Partial{Content: "p"}, "junk"})
	require.Len(t, got, 2)
	assert.Equal(t, "p", got[0].Content)
	assert.Equal(t, "", got[1].Content)
}

func TestMessageJSON(t *testing.T) {
	msg := Message{Role: RoleUser, Content: "**bold**", Timestamp: fixedNow}

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"**bold**","timestamp":"2025-03-14T09:26:53.589Z"}`, string(data))

	var back Message
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, msg, back)
}
