// Package state provides the key-value stores behind wizard drafts.
// Backends: in-memory (default for the live server) and one file per key on
// disk (terminal frontend).
package state

import (
	"context"
	"errors"
	"time"
)

// Common store errors.
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrStoreClosed = errors.New("store is closed")
	ErrInvalidData = errors.New("invalid data format")
)

// Store is the interface for state storage backends.
type Store interface {
	// Get retrieves a value by key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value, replacing any previous one. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Keys returns all keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Close closes the store.
	Close() error
}

// Serializer converts values to and from the bytes kept in a Store.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// TypedStore provides type-safe access to a store.
type TypedStore[T any] struct {
	store      Store
	serializer Serializer
}

// NewTypedStore creates a new typed store wrapper.
func NewTypedStore[T any](store Store, serializer Serializer) *TypedStore[T] {
	return &TypedStore[T]{
		store:      store,
		serializer: serializer,
	}
}

// Get retrieves and deserializes a value. Undecodable bytes yield an error
// wrapping ErrInvalidData.
func (ts *TypedStore[T]) Get(ctx context.Context, key string) (T, error) {
	var value T

	data, err := ts.store.Get(ctx, key)
	if err != nil {
		return value, err
	}

	if err := ts.serializer.Unmarshal(data, &value); err != nil {
		var zero T
		return zero, errors.Join(ErrInvalidData, err)
	}
	return value, nil
}

// Set serializes and stores a value.
func (ts *TypedStore[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := ts.serializer.Marshal(value)
	if err != nil {
		return err
	}
	return ts.store.Set(ctx, key, data, ttl)
}

// Delete removes a key.
func (ts *TypedStore[T]) Delete(ctx context.Context, key string) error {
	return ts.store.Delete(ctx, key)
}
