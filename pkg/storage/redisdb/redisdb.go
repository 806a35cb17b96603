// Package redisdb keeps the word list in a Redis list:
//
//	Key:   <prefix>words
//	Value: one pattern per element, in order
package redisdb

import (
	"context"

	"github.com/redis/go-redis/v9"

	"censorship/pkg/storage"
)

// DefaultKey is the list key used when none is configured.
const DefaultKey = "censor:words"

// Store manages the word list in Redis.
type Store struct {
	client *redis.Client
	key    string
}

// NewStore creates a store on the given client. An empty key selects DefaultKey.
func NewStore(client *redis.Client, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() {
	s.client.Close()
}

func (s *Store) Words(ctx context.Context) ([]string, error) {
	words, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, storage.ErrNoWords
	}
	return words, nil
}

// SaveWords replaces the list in a MULTI/EXEC block so readers never see a partial list.
func (s *Store) SaveWords(ctx context.Context, words []string) error {
	words = storage.Clean(words)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(words) > 0 {
			args := make([]any, len(words))
			for i, w := range words {
				args[i] = w
			}
			pipe.RPush(ctx, s.key, args...)
		}
		return nil
	})
	return err
}
