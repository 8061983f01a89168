package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is the key-value collaborator the engine reads answers and reference
// data from. Values are raw bytes; decoding is the caller's concern.
type Store interface {
	// Members lists the members of a set key.
	Members(ctx context.Context, key string) ([]string, error)
	// Scan calls fn for every key matching a glob pattern. Returning an
	// error from fn stops the scan.
	Scan(ctx context.Context, pattern string, fn func(key string) error) error
	// Get returns the value of key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	AddMembers(ctx context.Context, key string, members ...string) error
	RemoveMembers(ctx context.Context, key string, members ...string) error
}
