package voting

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/orthrauku-dev/yt-sus/internal/coordinator"
	"github.com/orthrauku-dev/yt-sus/internal/hub"
	"github.com/orthrauku-dev/yt-sus/internal/model"
	"github.com/orthrauku-dev/yt-sus/internal/remote"
	"github.com/orthrauku-dev/yt-sus/internal/store"
)

type fakeBackend struct {
	counts    map[string]int
	voteCalls int
	failVote  bool
}

func (f *fakeBackend) Votes(_ context.Context, channelID string) (int, error) {
	return f.counts[channelID], nil
}

func (f *fakeBackend) Vote(_ context.Context, channelID, _ string) (int, error) {
	if f.failVote {
		return 0, errors.New("backend down")
	}
	f.voteCalls++
	f.counts[channelID]++
	return f.counts[channelID], nil
}

func newTestEngine(t *testing.T, counts map[string]int) (*Engine, *fakeBackend, *coordinator.Coordinator) {
	t.Helper()
	if counts == nil {
		counts = make(map[string]int)
	}
	backend := &fakeBackend{counts: counts}
	coord := coordinator.New(store.NewMemory(), hub.New())
	return NewEngine(backend, coord), backend, coord
}

func TestVoteOncePerSession(t *testing.T) {
	e, backend, _ := newTestEngine(t, map[string]int{"@aifarm": 3})
	ctx := context.Background()

	n, err := e.Vote(ctx, "@aifarm", "AI Farm")
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if n != 4 {
		t.Errorf("votes after first vote = %d, want 4", n)
	}
	if got := e.State("@aifarm"); got != StateVoted {
		t.Errorf("state = %v, want %v", got, StateVoted)
	}

	if _, err := e.Vote(ctx, "@aifarm", "AI Farm"); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("second vote err = %v, want ErrAlreadyVoted", err)
	}
	// Handle keys compare case-insensitively.
	if _, err := e.Vote(ctx, "@AIFarm", "AI Farm"); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("case-variant vote err = %v, want ErrAlreadyVoted", err)
	}
	if backend.voteCalls != 1 {
		t.Errorf("backend vote calls = %d, want 1", backend.voteCalls)
	}
}

func TestVoteFailureRevertsToUnvoted(t *testing.T) {
	e, backend, _ := newTestEngine(t, map[string]int{"@aifarm": 3})
	backend.failVote = true
	ctx := context.Background()

	if _, err := e.Vote(ctx, "@aifarm", "AI Farm"); err == nil {
		t.Fatal("vote succeeded against failing backend")
	}
	if got := e.State("@aifarm"); got != StateUnvoted {
		t.Errorf("state after failure = %v, want %v", got, StateUnvoted)
	}

	// Retry after recovery must be allowed.
	backend.failVote = false
	if _, err := e.Vote(ctx, "@aifarm", "AI Farm"); err != nil {
		t.Errorf("retry after recovery: %v", err)
	}
}

func TestThresholdFlagsExactlyOnce(t *testing.T) {
	e, _, coord := newTestEngine(t, map[string]int{"UCslop01": 8})
	ctx := context.Background()

	// Default threshold is 10. The 9th vote must not flag.
	if _, err := e.Vote(ctx, "UCslop01", "Slop Inc"); err != nil {
		t.Fatalf("vote: %v", err)
	}
	set, err := coord.Channels(ctx)
	if err != nil {
		t.Fatalf("channels: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("flagged at 9 votes: %v", set)
	}

	// The 10th observation flags it.
	n, err := e.Votes(ctx, "UCslop01")
	if err != nil {
		t.Fatalf("votes: %v", err)
	}
	if n != 9 {
		t.Fatalf("count = %d, want 9", n)
	}
	e.backend.(*fakeBackend).counts["UCslop01"] = 10
	if _, err := e.Votes(ctx, "UCslop01"); err != nil {
		t.Fatalf("votes at threshold: %v", err)
	}

	set, _ = coord.Channels(ctx)
	entry, ok := set["UCslop01"]
	if !ok {
		t.Fatalf("channel not flagged at threshold: %v", set)
	}
	if entry.Source != model.SourceVoteThreshold {
		t.Errorf("source = %v, want %v", entry.Source, model.SourceVoteThreshold)
	}

	// The user removes the flag. Further observations above threshold
	// must not re-add it this session.
	if err := coord.ClearAutoAdded(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := e.Votes(ctx, "UCslop01"); err != nil {
		t.Fatalf("votes after clear: %v", err)
	}
	set, _ = coord.Channels(ctx)
	if len(set) != 0 {
		t.Errorf("auto-flag reapplied after user removed it: %v", set)
	}
}

func TestThresholdRespectsConfiguredValue(t *testing.T) {
	e, _, coord := newTestEngine(t, map[string]int{"UCslop01": 2})
	ctx := context.Background()

	s := model.DefaultSettings()
	s.VoteThreshold = 3
	if err := coord.UpdateSettings(ctx, s); err != nil {
		t.Fatalf("settings: %v", err)
	}

	if _, err := e.Vote(ctx, "UCslop01", "Slop Inc"); err != nil {
		t.Fatalf("vote: %v", err)
	}
	set, _ := coord.Channels(ctx)
	if _, ok := set["UCslop01"]; !ok {
		t.Errorf("channel not flagged at configured threshold: %v", set)
	}
}

func TestAlreadyFlaggedChannelNotReAdded(t *testing.T) {
	e, _, coord := newTestEngine(t, map[string]int{"UCslop01": 50})
	ctx := context.Background()

	if err := coord.Add(ctx, "UCslop01", "Slop Inc", 0, model.SourceManual); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := e.Votes(ctx, "UCslop01"); err != nil {
		t.Fatalf("votes: %v", err)
	}

	set, _ := coord.Channels(ctx)
	if entry := set["UCslop01"]; entry.Source != model.SourceManual {
		t.Errorf("manual flag overwritten: source = %v", entry.Source)
	}
}

// A submission that never reaches the server must not consume the
// session vote, must not show as voted, and above all must not push a
// channel over the threshold.
func TestFailedSubmissionNeverAutoFlags(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	apiURL := srv.URL
	srv.Close() // every request now fails at the transport

	coord := coordinator.New(store.NewMemory(), hub.New())
	syncer := remote.NewSyncer(coord, remote.NewClient(apiURL))
	e := NewEngine(syncer, coord)
	ctx := context.Background()

	// One vote short of the default threshold in the local cache.
	if err := coord.PutVoteCacheEntry(ctx, "@aifarm", model.VoteCacheEntry{Votes: 9, FetchedAt: time.Now()}); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	if _, err := e.Vote(ctx, "@aifarm", "AI Farm"); err == nil {
		t.Fatal("Vote over a dead transport returned nil error")
	}
	if got := e.State("@aifarm"); got != StateUnvoted {
		t.Errorf("state after failed submit = %v, want %v", got, StateUnvoted)
	}

	set, _ := coord.Channels(ctx)
	if _, ok := set["@aifarm"]; ok {
		t.Error("failed submission auto-flagged the channel")
	}

	// The session vote was not consumed: a retry reaches the backend.
	if _, err := e.Vote(ctx, "@aifarm", "AI Farm"); errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("retry after failure rejected: %v", err)
	}
}

func TestVotingDisabledBlocksSubmitAndAutoFlag(t *testing.T) {
	e, backend, coord := newTestEngine(t, map[string]int{"@aifarm": 50})
	ctx := context.Background()

	s, err := coord.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	s.ShowVoting = false
	if err := coord.UpdateSettings(ctx, s); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	if _, err := e.Vote(ctx, "@aifarm", "AI Farm"); !errors.Is(err, ErrVotingDisabled) {
		t.Errorf("Vote err = %v, want ErrVotingDisabled", err)
	}
	if backend.voteCalls != 0 {
		t.Errorf("backend vote calls = %d, want 0", backend.voteCalls)
	}

	// Reads still work, but the threshold trigger stays off.
	if n, err := e.Votes(ctx, "@aifarm"); err != nil || n != 50 {
		t.Errorf("Votes = (%d, %v), want (50, nil)", n, err)
	}
	set, _ := coord.Channels(ctx)
	if _, ok := set["@aifarm"]; ok {
		t.Error("auto-flag fired with voting disabled")
	}
}
