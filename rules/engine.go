package rules

import (
	"context"
	"fmt"
)

// Engine keeps a library of stored keys and classifies object files against them.
// Key source is parsed before it is accepted, so a stored key always parses.
type Engine struct {
	store KeyStore
	cache KeyCache
}

// NewEngine creates an engine over store and parses every key already in it
func NewEngine(store KeyStore) (*Engine, error) {
	return NewEngineWithCache(store, NewInMemoryKeyCache(DefaultCacheConfig()))
}

// NewEngineWithCache creates an engine with a caller-supplied cache
func NewEngineWithCache(store KeyStore, cache KeyCache) (*Engine, error) {
	en := &Engine{
		store: store,
		cache: cache,
	}

	if err := en.LoadAllKeys(); err != nil {
		return nil, fmt.Errorf("failed to load keys: %w", err)
	}

	return en, nil
}

// LoadAllKeys parses every stored key into the cache
func (en *Engine) LoadAllKeys() error {
	keys, err := en.store.List()
	if err != nil {
		return err
	}

	en.cache.Clear()
	for _, sk := range keys {
		key, err := ParseKey(sk.Name, sk.Source)
		if err != nil {
			return fmt.Errorf("failed to parse key %s: %w", sk.ID, err)
		}
		en.cache.Set(sk.ID, key)
	}

	return nil
}

// AddKey validates sk's source and stores it. The parsed key is returned.
func (en *Engine) AddKey(sk *StoredKey) (Key, error) {
	key, err := ParseKey(sk.Name, sk.Source)
	if err != nil {
		return Key{}, err
	}

	if err := en.store.Add(sk); err != nil {
		return Key{}, err
	}
	en.cache.Set(sk.ID, key)

	return key, nil
}

// UpdateKey validates the new source before replacing the stored key
func (en *Engine) UpdateKey(sk *StoredKey) (Key, error) {
	key, err := ParseKey(sk.Name, sk.Source)
	if err != nil {
		return Key{}, err
	}

	if err := en.store.Update(sk); err != nil {
		return Key{}, err
	}
	en.cache.Set(sk.ID, key)

	return key, nil
}

// DeleteKey removes a key from the store and the cache
func (en *Engine) DeleteKey(id string) error {
	if err := en.store.Delete(id); err != nil {
		return err
	}
	en.cache.Invalidate(id)
	return nil
}

// StoredKey returns the stored record for id
func (en *Engine) StoredKey(id string) (*StoredKey, error) {
	return en.store.Get(id)
}

// ListKeys returns every stored key
func (en *Engine) ListKeys() ([]*StoredKey, error) {
	return en.store.List()
}

// Key returns the parsed key for id, re-parsing from the store on a cache miss
func (en *Engine) Key(id string) (Key, error) {
	if key, ok := en.cache.Get(id); ok {
		return key, nil
	}

	sk, err := en.store.Get(id)
	if err != nil {
		return Key{}, err
	}
	key, err := ParseKey(sk.Name, sk.Source)
	if err != nil {
		return Key{}, fmt.Errorf("failed to parse key %s: %w", id, err)
	}
	en.cache.Set(id, key)

	return key, nil
}

// Classify parses an object file and evaluates every object against key id.
// workers > 1 evaluates objects in parallel; ordering and the
// all-or-nothing error policy are the same either way.
func (en *Engine) Classify(ctx context.Context, id, filename, objects string, workers int) ([]Classification, error) {
	key, err := en.Key(id)
	if err != nil {
		return nil, err
	}

	objs, err := ParseObjects(filename, objects)
	if err != nil {
		return nil, err
	}

	return RunAllParallel(ctx, key, objs, workers)
}
