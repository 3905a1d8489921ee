package model

import "time"

// VoteCacheEntry is the last known vote count for one channel, together
// with when it was fetched. Entries are advisory: they may be served
// stale on network failure and silently overwritten on every successful
// fetch.
type VoteCacheEntry struct {
	Votes     int       `json:"votes"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// VoteCache maps channel id to its cached vote count.
type VoteCache map[string]VoteCacheEntry

// Expired reports whether the entry is older than ttl at time now.
func (e VoteCacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) >= ttl
}
