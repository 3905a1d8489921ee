// Package store provides the durable local key-value store owned by the
// coordinator. There are no transactions: concurrent writers race and
// the last write wins, which is acceptable because everything stored
// here is advisory UI state.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Persisted state keys.
const (
	KeyHighlightedChannels = "highlightedChannels"
	KeyWarningSettings     = "warningSettings"
	KeyChannelVotes        = "channelVotes"
	KeyLastAPISync         = "lastAPISync"
	KeyAPISyncEnabled      = "apiSyncEnabled"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("store: key not found")

// Store is an asynchronous durable KV store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON loads and unmarshals a key into out. A missing key returns
// ErrNotFound with out untouched.
func GetJSON(ctx context.Context, s Store, key string, out any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("store: decode %s: %w", key, err)
	}
	return nil
}

// PutJSON marshals v and writes it under key.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	return s.Put(ctx, key, raw)
}
