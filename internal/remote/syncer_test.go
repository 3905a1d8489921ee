package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/orthrauku-dev/yt-sus/internal/coordinator"
	"github.com/orthrauku-dev/yt-sus/internal/model"
	"github.com/orthrauku-dev/yt-sus/internal/store"
)

type fakeAPI struct {
	flagged map[string]model.RemoteChannel
	votes   map[string]int

	listCalls  atomic.Int64
	checkCalls atomic.Int64
	voteCalls  atomic.Int64

	failAll bool
}

func (f *fakeAPI) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/flagged_channels", func(w http.ResponseWriter, r *http.Request) {
		f.listCalls.Add(1)
		if f.failAll {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(f.flagged)
	})
	mux.HandleFunc("/api/check_channel", func(w http.ResponseWriter, r *http.Request) {
		f.checkCalls.Add(1)
		if f.failAll {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		id := r.URL.Query().Get("channelId")
		json.NewEncoder(w).Encode(model.CheckChannelResponse{
			Flagged:   f.votes[id] > 0,
			ChannelID: id,
			Votes:     f.votes[id],
		})
	})
	mux.HandleFunc("/api/vote_channel", func(w http.ResponseWriter, r *http.Request) {
		f.voteCalls.Add(1)
		if f.failAll {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		var req model.VoteChannelRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.votes[req.ChannelID]++
		json.NewEncoder(w).Encode(model.VoteChannelResponse{Votes: f.votes[req.ChannelID]})
	})
	return httptest.NewServer(mux)
}

func newTestSyncer(t *testing.T, api *fakeAPI) (*Syncer, *coordinator.Coordinator, func()) {
	t.Helper()
	srv := api.server()
	coord := coordinator.New(store.NewMemory(), nil)
	s := NewSyncer(coord, NewClient(srv.URL))
	return s, coord, srv.Close
}

func TestSyncMergesAndRecordsTimestamp(t *testing.T) {
	api := &fakeAPI{
		flagged: map[string]model.RemoteChannel{
			"UC1": {ChannelName: "One", FlaggedDate: "2025-05-05T00:00:00Z", Votes: 12},
		},
		votes: map[string]int{},
	}
	s, coord, done := newTestSyncer(t, api)
	defer done()
	ctx := context.Background()

	set, err := s.Sync(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 1 || set["UC1"].Source != model.SourceRemoteSync {
		t.Errorf("merged set = %+v", set)
	}
	last, _ := coord.LastSync(ctx)
	if last.IsZero() {
		t.Error("lastAPISync not recorded")
	}
}

func TestSyncHonors24hGate(t *testing.T) {
	api := &fakeAPI{flagged: map[string]model.RemoteChannel{}, votes: map[string]int{}}
	s, _, done := newTestSyncer(t, api)
	defer done()
	ctx := context.Background()

	if _, err := s.Sync(ctx, false); err != nil {
		t.Fatal(err)
	}
	if got := api.listCalls.Load(); got != 1 {
		t.Fatalf("list calls = %d, want 1", got)
	}

	// Within the window: no network traffic.
	if _, err := s.Sync(ctx, false); err != nil {
		t.Fatal(err)
	}
	if got := api.listCalls.Load(); got != 1 {
		t.Errorf("list calls after gated sync = %d, want 1", got)
	}

	// 25 hours later the gate opens.
	s.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if _, err := s.Sync(ctx, false); err != nil {
		t.Fatal(err)
	}
	if got := api.listCalls.Load(); got != 2 {
		t.Errorf("list calls past gate = %d, want 2", got)
	}
}

func TestSyncDisabledSkipsScheduledRuns(t *testing.T) {
	api := &fakeAPI{flagged: map[string]model.RemoteChannel{}, votes: map[string]int{}}
	s, coord, done := newTestSyncer(t, api)
	defer done()
	ctx := context.Background()

	coord.SetAPISync(ctx, false)

	if _, err := s.Sync(ctx, false); err != nil {
		t.Fatal(err)
	}
	if got := api.listCalls.Load(); got != 0 {
		t.Errorf("list calls with sync disabled = %d, want 0", got)
	}

	// Explicit refresh goes through regardless.
	if _, err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if got := api.listCalls.Load(); got != 1 {
		t.Errorf("list calls after refresh = %d, want 1", got)
	}
}

func TestSyncFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeAPI{flagged: map[string]model.RemoteChannel{}, votes: map[string]int{}, failAll: true}
	s, coord, done := newTestSyncer(t, api)
	defer done()
	ctx := context.Background()

	coord.Toggle(ctx, "@local", "Local", "")

	if _, err := s.Sync(ctx, false); err == nil {
		t.Fatal("Sync succeeded against a failing server")
	}
	set, _ := coord.Channels(ctx)
	if len(set) != 1 {
		t.Errorf("local state mutated on failed sync: %+v", set)
	}
	last, _ := coord.LastSync(ctx)
	if !last.IsZero() {
		t.Error("lastAPISync recorded on failed sync")
	}
}

func TestVotesServedFromCacheWithinTTL(t *testing.T) {
	api := &fakeAPI{flagged: map[string]model.RemoteChannel{}, votes: map[string]int{"UC1": 5}}
	s, _, done := newTestSyncer(t, api)
	defer done()
	ctx := context.Background()

	n, err := s.Votes(ctx, "UC1")
	if err != nil || n != 5 {
		t.Fatalf("Votes = (%d, %v), want (5, nil)", n, err)
	}
	if got := api.checkCalls.Load(); got != 1 {
		t.Fatalf("check calls = %d, want 1", got)
	}

	// Second lookup within the TTL must not hit the network.
	if _, err := s.Votes(ctx, "UC1"); err != nil {
		t.Fatal(err)
	}
	if got := api.checkCalls.Load(); got != 1 {
		t.Errorf("check calls within TTL = %d, want 1", got)
	}

	// Past the TTL: exactly one more call, and the timestamp refreshes.
	later := time.Now().Add(2 * time.Hour)
	s.now = func() time.Time { return later }
	api.votes["UC1"] = 6
	n, _ = s.Votes(ctx, "UC1")
	if n != 6 {
		t.Errorf("Votes past TTL = %d, want 6", n)
	}
	if got := api.checkCalls.Load(); got != 2 {
		t.Errorf("check calls past TTL = %d, want 2", got)
	}
}

func TestVotesFallsBackToStaleCacheThenZero(t *testing.T) {
	api := &fakeAPI{flagged: map[string]model.RemoteChannel{}, votes: map[string]int{"UC1": 5}}
	s, _, done := newTestSyncer(t, api)
	defer done()
	ctx := context.Background()

	if _, err := s.Votes(ctx, "UC1"); err != nil {
		t.Fatal(err)
	}

	api.failAll = true
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	n, err := s.Votes(ctx, "UC1")
	if err != nil || n != 5 {
		t.Errorf("stale fallback = (%d, %v), want (5, nil)", n, err)
	}

	n, err = s.Votes(ctx, "UCnever")
	if err != nil || n != 0 {
		t.Errorf("no-cache fallback = (%d, %v), want (0, nil)", n, err)
	}
}

func TestVoteOptimisticFallback(t *testing.T) {
	api := &fakeAPI{flagged: map[string]model.RemoteChannel{}, votes: map[string]int{"UC1": 8}}
	s, coord, done := newTestSyncer(t, api)
	defer done()
	ctx := context.Background()

	// Prime the cache, then take the server down.
	if _, err := s.Votes(ctx, "UC1"); err != nil {
		t.Fatal(err)
	}
	api.failAll = true

	n, err := s.Vote(ctx, "UC1", "One")
	if n != 9 {
		t.Errorf("optimistic count = %d, want 9", n)
	}
	if !errors.Is(err, ErrVoteNotDelivered) {
		t.Errorf("Vote error = %v, want ErrVoteNotDelivered", err)
	}

	// The failed submission must not look like a success to the cache.
	cache, _ := coord.VoteCache(ctx)
	if cache["UC1"].Votes != 8 {
		t.Errorf("cached count = %d, want untouched 8", cache["UC1"].Votes)
	}
}

func TestVoteSuccessTakesServerCount(t *testing.T) {
	api := &fakeAPI{flagged: map[string]model.RemoteChannel{}, votes: map[string]int{"UC1": 8}}
	s, coord, done := newTestSyncer(t, api)
	defer done()
	ctx := context.Background()

	n, err := s.Vote(ctx, "UC1", "One")
	if err != nil || n != 9 {
		t.Fatalf("Vote = (%d, %v), want (9, nil)", n, err)
	}

	cache, _ := coord.VoteCache(ctx)
	if cache["UC1"].Votes != 9 {
		t.Errorf("cached count = %d, want 9", cache["UC1"].Votes)
	}
}
