package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/codegen-chat/backend/internal/model/chat"
)

// Transcript is the append-only turn history of one session.
type Transcript struct {
	mu    sync.RWMutex
	turns []chat.Turn
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{turns: make([]chat.Turn, 0, 16)}
}

// Append stamps a new turn with the current UTC time and adds it to the end.
func (t *Transcript) Append(role chat.Role, content string) chat.Turn {
	turn := chat.Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}

	t.mu.Lock()
	t.turns = append(t.turns, turn)
	t.mu.Unlock()

	return turn
}

// All returns a snapshot of the turns in insertion order.
func (t *Transcript) All() []chat.Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	copied := make([]chat.Turn, len(t.turns))
	copy(copied, t.turns)
	return copied
}

// Len reports the number of turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}
