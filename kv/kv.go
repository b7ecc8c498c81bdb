// Package kv defines the opaque associative store behind the TxFunction
// store and the upload allow-list.
package kv

import (
	"context"
	"errors"
)

// Store is a minimal associative store interface.
//
// Contract:
// - Stored values MUST be immutable: PutIfAbsent never overwrites.
// - PutIfAbsent MUST be atomic with respect to concurrent callers of the
//   same key; exactly one concurrent writer wins, the rest get ErrExists.
// - Get MUST return ErrNotFound when the key is absent.
// - All operations honor context cancellation where the backend allows it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	PutIfAbsent(ctx context.Context, key string, value []byte) error
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

var (
	ErrNotFound = errors.New("kv: not found")
	ErrExists   = errors.New("kv: key already exists")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsExists(err error) bool   { return errors.Is(err, ErrExists) }
