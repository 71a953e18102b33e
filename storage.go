package word2vec

import "sync"

// MemoryStorage is a VocabularyStorage that keeps the store in memory. It is how a model
// read back with ReadModel hands its store to the coordinator.
type MemoryStorage struct {
	mtx   sync.RWMutex
	store *VocabularyStore
}

var _ VocabularyStorage = (*MemoryStorage)(nil)

// NewMemoryStorage creates a storage holding store, which may be nil
func NewMemoryStorage(store *VocabularyStore) *MemoryStorage {
	return &MemoryStorage{store: store}
}

// Exists reports whether a store has been saved
func (m *MemoryStorage) Exists() bool {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.store != nil
}

// Load returns the saved store
func (m *MemoryStorage) Load() (*VocabularyStore, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	if m.store == nil {
		return nil, ErrModelNotInitialized
	}
	return m.store, nil
}

// Save keeps a reference to store
func (m *MemoryStorage) Save(store *VocabularyStore) error {
	if store == nil {
		return ErrModelNotInitialized
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.store = store
	return nil
}
