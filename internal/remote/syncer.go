package remote

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/orthrauku-dev/yt-sus/internal/coordinator"
	"github.com/orthrauku-dev/yt-sus/internal/model"
)

// ErrVoteNotDelivered reports a vote submission that never reached the
// server. The count returned with it is only a local approximation.
var ErrVoteNotDelivered = errors.New("vote not delivered")

const (
	// SyncInterval is the effective cadence of the full-list sync. The
	// scheduler fires more often, but the gate below keeps it daily.
	SyncInterval = 24 * time.Hour
	// VoteTTL bounds how long a per-channel vote lookup is served from
	// cache.
	VoteTTL = time.Hour
	// checkEvery is how often the scheduler re-evaluates the 24h gate.
	checkEvery = time.Hour
)

// Syncer merges the community flagged list into local state and serves
// vote counts through the 1-hour cache.
type Syncer struct {
	coord  *coordinator.Coordinator
	client *Client

	// now is swappable for tests.
	now func() time.Time
}

func NewSyncer(coord *coordinator.Coordinator, client *Client) *Syncer {
	return &Syncer{coord: coord, client: client, now: time.Now}
}

// Sync performs the flagged-list sync. Unforced calls are a no-op when
// sync is disabled or the last successful sync is younger than 24h. On
// any failure local state is left untouched and the next attempt is the
// next scheduled interval or an explicit refresh; there is no immediate
// retry beyond the client's own bounded ones.
func (s *Syncer) Sync(ctx context.Context, force bool) (model.FlaggedSet, error) {
	if !force {
		enabled, err := s.coord.APISyncEnabled(ctx)
		if err != nil {
			return nil, err
		}
		if !enabled {
			return nil, nil
		}
		last, err := s.coord.LastSync(ctx)
		if err != nil {
			return nil, err
		}
		if s.now().Sub(last) < SyncInterval {
			return nil, nil
		}
	}

	remote, err := s.client.FetchFlaggedChannels(ctx)
	if err != nil {
		log.Printf("sync: fetch failed, keeping local state: %v", err)
		return nil, err
	}

	set, err := s.coord.Merge(ctx, remote)
	if err != nil {
		return nil, err
	}
	if err := s.coord.SetLastSync(ctx, s.now()); err != nil {
		return set, err
	}
	log.Printf("sync: merged %d remote channels", len(remote))
	return set, nil
}

// Refresh is the explicit user-initiated sync; it bypasses the 24h gate
// and the enabled toggle.
func (s *Syncer) Refresh(ctx context.Context) (model.FlaggedSet, error) {
	return s.Sync(ctx, true)
}

// Votes returns the vote count for a channel, serving from the cache
// within the TTL. On a miss it fetches once and records the result; on
// fetch failure it falls back to the last known value, stale or not,
// and to zero when nothing was ever cached.
func (s *Syncer) Votes(ctx context.Context, channelID string) (int, error) {
	cache, err := s.coord.VoteCache(ctx)
	if err != nil {
		return 0, err
	}

	entry, cached := cache[channelID]
	if cached && !entry.Expired(s.now(), VoteTTL) {
		return entry.Votes, nil
	}

	votes, err := s.client.CheckChannel(ctx, channelID)
	if err != nil {
		if cached {
			log.Printf("votes: fetch failed for %s, serving stale count %d: %v", channelID, entry.Votes, err)
			return entry.Votes, nil
		}
		log.Printf("votes: fetch failed for %s, no cache, serving 0: %v", channelID, err)
		return 0, nil
	}

	if err := s.coord.PutVoteCacheEntry(ctx, channelID, model.VoteCacheEntry{Votes: votes, FetchedAt: s.now()}); err != nil {
		return votes, err
	}
	return votes, nil
}

// Vote submits one vote. On success the cache takes the server count.
// On failure it returns an optimistic local increment alongside
// ErrVoteNotDelivered: display code may show the approximation, but the
// submission did not happen and must not count as one.
func (s *Syncer) Vote(ctx context.Context, channelID, channelName string) (int, error) {
	votes, err := s.client.SubmitVote(ctx, channelID, channelName)
	if err != nil {
		cache, cerr := s.coord.VoteCache(ctx)
		if cerr != nil {
			return 0, cerr
		}
		votes = cache[channelID].Votes + 1
		log.Printf("votes: submit failed for %s, optimistic count %d: %v", channelID, votes, err)
		return votes, fmt.Errorf("%w: %v", ErrVoteNotDelivered, err)
	}

	if err := s.coord.PutVoteCacheEntry(ctx, channelID, model.VoteCacheEntry{Votes: votes, FetchedAt: s.now()}); err != nil {
		return votes, err
	}
	return votes, nil
}

// RunScheduler re-evaluates the sync gate hourly until ctx is done. The
// effective cadence stays daily regardless of how often the ticker
// fires, because Sync checks the stored last-sync timestamp.
func (s *Syncer) RunScheduler(ctx context.Context) {
	log.Printf("sync: scheduler started (check every %s, sync every %s)", checkEvery, SyncInterval)

	// One pass at startup so a long-stopped agent catches up promptly.
	if _, err := s.Sync(ctx, false); err != nil {
		log.Printf("sync: startup attempt failed: %v", err)
	}

	ticker := time.NewTicker(checkEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sync(ctx, false); err != nil {
				log.Printf("sync: scheduled attempt failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("sync: scheduler stopping (context cancelled)")
			return
		}
	}
}
