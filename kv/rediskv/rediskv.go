// Package rediskv backs kv.Store with Redis.
//
// SetNX gives the atomic conditional put the upload path relies on: the
// "does hash X exist" pre-check in the TxFunction store is only a fast path,
// correctness under concurrent uploads of the same payload rests here.
package rediskv

import (
	"context"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/stellar/stellar-turrets/kv"
)

type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix namespaces all keys written by this store.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Redis store with its own client.
func New(addr, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: "turret:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if err == backend.Nil {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("rediskv get: %w", err)
	}
	return v, nil
}

func (s *Store) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	ok, err := s.client.SetNX(ctx, s.key(key), value, 0).Result()
	if err != nil {
		return fmt.Errorf("rediskv setnx: %w", err)
	}
	if !ok {
		return kv.ErrExists
	}
	return nil
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("rediskv exists: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("rediskv del: %w", err)
	}
	return nil
}
