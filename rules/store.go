package rules

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// KeyStore manages key persistence and retrieval
type KeyStore interface {
	// Add a new key
	Add(key *StoredKey) error

	// Get a key by ID
	Get(id string) (*StoredKey, error)

	// List all keys, oldest first
	List() ([]*StoredKey, error)

	// Update an existing key
	Update(key *StoredKey) error

	// Delete a key
	Delete(id string) error
}

// InMemoryKeyStore implements KeyStore using an in-memory map
type InMemoryKeyStore struct {
	keys map[string]*StoredKey
	mu   sync.RWMutex
}

// NewInMemoryKeyStore creates a new in-memory key store
func NewInMemoryKeyStore() *InMemoryKeyStore {
	return &InMemoryKeyStore{
		keys: make(map[string]*StoredKey),
	}
}

// Add adds a new key to the store and stamps CreatedAt/UpdatedAt
func (s *InMemoryKeyStore) Add(key *StoredKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[key.ID]; exists {
		return fmt.Errorf("%w: %s", ErrKeyExists, key.ID)
	}

	now := time.Now()
	key.CreatedAt = now
	key.UpdatedAt = now
	stored := *key
	s.keys[key.ID] = &stored
	return nil
}

// Get retrieves a key by ID
func (s *InMemoryKeyStore) Get(id string) (*StoredKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, exists := s.keys[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}
	out := *key
	return &out, nil
}

// List returns every key ordered by creation time
func (s *InMemoryKeyStore) List() ([]*StoredKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]*StoredKey, 0, len(s.keys))
	for _, key := range s.keys {
		out := *key
		keys = append(keys, &out)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CreatedAt.Equal(keys[j].CreatedAt) {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].CreatedAt.Before(keys[j].CreatedAt)
	})
	return keys, nil
}

// Update replaces an existing key, preserving CreatedAt
func (s *InMemoryKeyStore) Update(key *StoredKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.keys[key.ID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key.ID)
	}

	key.CreatedAt = existing.CreatedAt
	key.UpdatedAt = time.Now()
	stored := *key
	s.keys[key.ID] = &stored
	return nil
}

// Delete removes a key from the store
func (s *InMemoryKeyStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[id]; !exists {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}

	delete(s.keys, id)
	return nil
}
