package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/codegen-chat/backend/internal/model/chat"
)

func TestTranscriptAppendKeepsOrder(t *testing.T) {
	transcript := NewTranscript()
	require.Empty(t, transcript.All())

	before := time.Now().UTC()
	first := transcript.Append(model.RoleUser, "hello")
	second := transcript.Append(model.RoleAssistant, "hi there")

	turns := transcript.All()
	require.Len(t, turns, 2)
	assert.Equal(t, first, turns[0])
	assert.Equal(t, second, turns[1])
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, "hi there", turns[1].Content)
	assert.NotEqual(t, turns[0].ID, turns[1].ID)
	assert.False(t, turns[0].Timestamp.Before(before.Add(-time.Second)))
	assert.Equal(t, time.UTC, turns[0].Timestamp.Location())
}

func TestTranscriptAllReturnsSnapshot(t *testing.T) {
	transcript := NewTranscript()
	transcript.Append(model.RoleUser, "one")

	snapshot := transcript.All()
	snapshot[0].Content = "mutated"
	transcript.Append(model.RoleAssistant, "two")

	assert.Len(t, snapshot, 1)
	assert.Equal(t, "one", transcript.All()[0].Content)
	assert.Equal(t, 2, transcript.Len())
}

func TestTranscriptAcceptsAnyRoleAndContent(t *testing.T) {
	transcript := NewTranscript()
	turn := transcript.Append(model.Role("system"), "")

	assert.Equal(t, model.Role("system"), turn.Role)
	assert.Empty(t, turn.Content)
	assert.Equal(t, 1, transcript.Len())
}
