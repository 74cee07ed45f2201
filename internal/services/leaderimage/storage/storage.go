// Package storage defines the shared key-value port that lets separate
// execution contexts (shell and in-match) see the same leader registrations.
package storage

import (
	"context"
	"errors"
)

// RegistryKey is the well-known key holding the serialized leader registry,
// shaped as {"<leaderId>": <LeaderImageConfig>, ...}.
const RegistryKey = "leaderimage.registry"

// ErrNotFound indicates the key has never been written.
var ErrNotFound = errors.New("record not found")

// SharedStore persists opaque JSON values under string keys.
type SharedStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
