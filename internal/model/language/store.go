package language

import "strings"

// Store exposes the language catalog to handlers and tools.
type Store interface {
	List() []Language
	FindByID(id string) (Language, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Language
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied languages.
func NewMemoryStore(items []Language) *MemoryStore {
	return &MemoryStore{items: append([]Language(nil), items...)}
}

// List returns the catalog in seed order.
func (s *MemoryStore) List() []Language {
	return append([]Language(nil), s.items...)
}

// FindByID looks a language up by id, display name or alias, ignoring case.
func (s *MemoryStore) FindByID(id string) (Language, bool) {
	key := strings.ToLower(strings.TrimSpace(id))
	if key == "" {
		return Language{}, false
	}
	for _, item := range s.items {
		if item.ID == key || strings.ToLower(item.Name) == key {
			return item, true
		}
		for _, alias := range item.Aliases {
			if alias == key {
				return item, true
			}
		}
	}
	return Language{}, false
}
