// Package coordinator owns the local store. Every component that needs
// to read or mutate flagged-channel state goes through it, either
// directly or via the message dispatch table.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/orthrauku-dev/yt-sus/internal/hub"
	"github.com/orthrauku-dev/yt-sus/internal/identity"
	"github.com/orthrauku-dev/yt-sus/internal/model"
	"github.com/orthrauku-dev/yt-sus/internal/store"
)

// Coordinator serializes read-modify-write pairs on the store with a
// single mutex. Peers that bypass it (none should) get last-write-wins.
type Coordinator struct {
	mu  sync.Mutex
	st  store.Store
	hub *hub.Hub

	// Ephemeral scratch, never persisted.
	scratchMu        sync.Mutex
	lastRightClicked string
}

func New(st store.Store, h *hub.Hub) *Coordinator {
	return &Coordinator{st: st, hub: h}
}

// Channels loads the flagged-channel map. A store that has never been
// written yields an empty map, not an error.
func (c *Coordinator) Channels(ctx context.Context) (model.FlaggedSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelsLocked(ctx)
}

func (c *Coordinator) channelsLocked(ctx context.Context) (model.FlaggedSet, error) {
	set := make(model.FlaggedSet)
	err := store.GetJSON(ctx, c.st, store.KeyHighlightedChannels, &set)
	if errors.Is(err, store.ErrNotFound) {
		return set, nil
	}
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (c *Coordinator) saveLocked(ctx context.Context, set model.FlaggedSet) error {
	return store.PutJSON(ctx, c.st, store.KeyHighlightedChannels, set)
}

// storageKey normalizes the map key for new writes. Handle-shaped ids
// store lowercased so @Foo and @foo stay one entry; the display form is
// kept on the entry itself. Reads still match case-insensitively, so
// keys written before normalization keep working.
func storageKey(id string) string {
	if identity.IsHandle(id) {
		return strings.ToLower(id)
	}
	return id
}

// Toggle flips membership for the given channel. Returns whether the
// channel is flagged after the call.
func (c *Coordinator) Toggle(ctx context.Context, id, name, handle string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("coordinator: toggle with empty channel id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	set, err := c.channelsLocked(ctx)
	if err != nil {
		return false, err
	}

	if identity.IsFlagged(id, set) {
		removeMatching(set, id)
		if err := c.saveLocked(ctx, set); err != nil {
			return true, err
		}
		c.broadcastLocked(set)
		return false, nil
	}

	if name == "" {
		name = "Unknown"
	}
	if handle == "" && identity.IsHandle(id) {
		handle = id
	}
	set[storageKey(id)] = model.FlaggedChannel{
		ID:      id,
		Name:    name,
		Handle:  handle,
		AddedAt: time.Now().UTC(),
		Source:  model.SourceManual,
	}
	if err := c.saveLocked(ctx, set); err != nil {
		return false, err
	}
	c.broadcastLocked(set)
	return true, nil
}

// Add inserts a channel with the given source, unless an equivalent id
// is already flagged. Used by the vote-threshold trigger and by direct
// addChannel messages; both must be duplicate-safe.
func (c *Coordinator) Add(ctx context.Context, id, name string, votes int, source model.Source) error {
	if id == "" {
		return fmt.Errorf("coordinator: add with empty channel id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	set, err := c.channelsLocked(ctx)
	if err != nil {
		return err
	}
	if identity.IsFlagged(id, set) {
		return nil
	}

	if name == "" {
		name = "Unknown"
	}
	entry := model.FlaggedChannel{
		ID:      id,
		Name:    name,
		AddedAt: time.Now().UTC(),
		Source:  source,
		Votes:   votes,
	}
	if identity.IsHandle(id) {
		entry.Handle = id
	}
	set[storageKey(id)] = entry

	if err := c.saveLocked(ctx, set); err != nil {
		return err
	}
	c.broadcastLocked(set)
	return nil
}

// ClearAll empties the flagged set.
func (c *Coordinator) ClearAll(ctx context.Context) error {
	return c.clear(ctx, func(model.FlaggedChannel) bool { return false })
}

// ClearAutoAdded removes every entry except the manually added ones.
func (c *Coordinator) ClearAutoAdded(ctx context.Context) error {
	return c.clear(ctx, func(e model.FlaggedChannel) bool { return e.Source == model.SourceManual })
}

// ClearManualAdded removes the manually added entries, the exact
// complement of ClearAutoAdded.
func (c *Coordinator) ClearManualAdded(ctx context.Context) error {
	return c.clear(ctx, func(e model.FlaggedChannel) bool { return e.Source != model.SourceManual })
}

func (c *Coordinator) clear(ctx context.Context, keep func(model.FlaggedChannel) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, err := c.channelsLocked(ctx)
	if err != nil {
		return err
	}
	next := make(model.FlaggedSet, len(set))
	for key, e := range set {
		if keep(e) {
			next[key] = e
		}
	}
	if err := c.saveLocked(ctx, next); err != nil {
		return err
	}
	c.broadcastLocked(next)
	return nil
}

// Merge folds the remote flagged list into the local set. New ids are
// inserted with source remote-sync; ids already present only get their
// vote count refreshed, never their Source or AddedAt.
func (c *Coordinator) Merge(ctx context.Context, remote map[string]model.RemoteChannel) (model.FlaggedSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, err := c.channelsLocked(ctx)
	if err != nil {
		return nil, err
	}

	added := 0
	for id, rc := range remote {
		if key, ok := matchingKey(set, id); ok {
			e := set[key]
			e.Votes = rc.Votes
			set[key] = e
			continue
		}
		name := rc.ChannelName
		if name == "" {
			name = "Unknown"
		}
		addedAt := time.Now().UTC()
		if t, err := time.Parse(time.RFC3339, rc.FlaggedDate); err == nil {
			addedAt = t
		}
		entry := model.FlaggedChannel{
			ID:      id,
			Name:    name,
			AddedAt: addedAt,
			Source:  model.SourceRemoteSync,
			Votes:   rc.Votes,
		}
		if identity.IsHandle(id) {
			entry.Handle = id
		}
		set[storageKey(id)] = entry
		added++
	}

	if err := c.saveLocked(ctx, set); err != nil {
		return nil, err
	}
	if added > 0 {
		log.Printf("coordinator: merged %d new remote channels (%d total)", added, len(set))
	}
	c.broadcastLocked(set)
	return set, nil
}

// Settings loads the warning settings, writing the install-time
// defaults on first access.
func (c *Coordinator) Settings(ctx context.Context) (model.Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s model.Settings
	err := store.GetJSON(ctx, c.st, store.KeyWarningSettings, &s)
	if errors.Is(err, store.ErrNotFound) {
		s = model.DefaultSettings()
		if err := store.PutJSON(ctx, c.st, store.KeyWarningSettings, s); err != nil {
			return s, err
		}
		return s, nil
	}
	if err != nil {
		return s, err
	}
	return s.Normalize(), nil
}

// UpdateSettings persists new settings and broadcasts them. The sync
// flag writes through to its own key, which is what the scheduler
// reads; the two must never drift apart.
func (c *Coordinator) UpdateSettings(ctx context.Context, s model.Settings) error {
	s = s.Normalize()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := store.PutJSON(ctx, c.st, store.KeyWarningSettings, s); err != nil {
		return err
	}
	if err := store.PutJSON(ctx, c.st, store.KeyAPISyncEnabled, s.APISyncEnabled); err != nil {
		return err
	}
	if c.hub != nil {
		c.hub.Broadcast(model.Event{Type: model.EventUpdateSettings, Settings: &s})
	}
	return nil
}

// SetAPISync flips the remote-sync kill switch.
func (c *Coordinator) SetAPISync(ctx context.Context, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := store.PutJSON(ctx, c.st, store.KeyAPISyncEnabled, enabled); err != nil {
		return err
	}

	var s model.Settings
	if err := store.GetJSON(ctx, c.st, store.KeyWarningSettings, &s); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		s = model.DefaultSettings()
	}
	s.APISyncEnabled = enabled
	return store.PutJSON(ctx, c.st, store.KeyWarningSettings, s)
}

// APISyncEnabled reports the kill-switch state, defaulting to enabled.
func (c *Coordinator) APISyncEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := store.GetJSON(ctx, c.st, store.KeyAPISyncEnabled, &enabled)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return enabled, nil
}

// LastSync returns the timestamp of the last successful remote sync, or
// the zero time when no sync ever completed.
func (c *Coordinator) LastSync(ctx context.Context) (time.Time, error) {
	var stamp string
	err := store.GetJSON(ctx, c.st, store.KeyLastAPISync, &stamp)
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

// SetLastSync records a successful sync time.
func (c *Coordinator) SetLastSync(ctx context.Context, t time.Time) error {
	return store.PutJSON(ctx, c.st, store.KeyLastAPISync, t.UTC().Format(time.RFC3339))
}

// VoteCache loads the per-channel vote cache.
func (c *Coordinator) VoteCache(ctx context.Context) (model.VoteCache, error) {
	cache := make(model.VoteCache)
	err := store.GetJSON(ctx, c.st, store.KeyChannelVotes, &cache)
	if errors.Is(err, store.ErrNotFound) {
		return cache, nil
	}
	if err != nil {
		return nil, err
	}
	return cache, nil
}

// PutVoteCacheEntry overwrites one channel's cached vote count.
func (c *Coordinator) PutVoteCacheEntry(ctx context.Context, channelID string, e model.VoteCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cache, err := c.VoteCache(ctx)
	if err != nil {
		return err
	}
	cache[channelID] = e
	return store.PutJSON(ctx, c.st, store.KeyChannelVotes, cache)
}

// SetLastRightClicked records the ephemeral last-right-clicked scratch
// value. Memory only.
func (c *Coordinator) SetLastRightClicked(id string) {
	c.scratchMu.Lock()
	defer c.scratchMu.Unlock()
	c.lastRightClicked = id
}

// LastRightClicked returns the scratch value.
func (c *Coordinator) LastRightClicked() string {
	c.scratchMu.Lock()
	defer c.scratchMu.Unlock()
	return c.lastRightClicked
}

func (c *Coordinator) broadcastLocked(set model.FlaggedSet) {
	if c.hub != nil {
		c.hub.Broadcast(model.Event{Type: model.EventUpdateHighlights, Channels: set})
	}
}

// removeMatching deletes every entry equivalent to id under the
// IsFlagged rules, covering sets with inconsistent historical keys.
func removeMatching(set model.FlaggedSet, id string) {
	for key, e := range set {
		if identity.IsFlagged(id, model.FlaggedSet{key: e}) {
			delete(set, key)
		}
	}
}

// matchingKey finds the storage key of the entry equivalent to id.
func matchingKey(set model.FlaggedSet, id string) (string, bool) {
	for key, e := range set {
		if identity.IsFlagged(id, model.FlaggedSet{key: e}) {
			return key, true
		}
	}
	return "", false
}
