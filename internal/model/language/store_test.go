package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFindByID(t *testing.T) {
	store := NewMemoryStore(Seed())

	for _, key := range []string{"python", "Python", " py ", "python3"} {
		got, ok := store.FindByID(key)
		require.True(t, ok, "lookup %q", key)
		assert.Equal(t, "python", got.ID)
	}

	got, ok := store.FindByID("C++")
	require.True(t, ok)
	assert.Equal(t, "cpp", got.ID)

	_, ok = store.FindByID("")
	assert.False(t, ok)
	_, ok = store.FindByID("cobol")
	assert.False(t, ok)
}

func TestMemoryStoreListIsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())
	list := store.List()
	list[0].Name = "changed"

	assert.Equal(t, "Python", store.List()[0].Name)
}
