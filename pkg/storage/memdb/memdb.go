package memdb

import (
	"context"
	"sync"

	"censorship/pkg/storage"
)

// Store keeps the word list in memory. It is used in development mode and tests.
type Store struct {
	mu    sync.Mutex
	words []string
}

func New() *Store {
	return &Store{}
}

func (db *Store) Words(ctx context.Context) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if len(db.words) == 0 {
		return nil, storage.ErrNoWords
	}
	return append([]string(nil), db.words...), nil
}

func (db *Store) SaveWords(ctx context.Context, words []string) error {
	words = storage.Clean(words)

	db.mu.Lock()
	db.words = words
	db.mu.Unlock()

	return nil
}

func (db *Store) Close() {}
