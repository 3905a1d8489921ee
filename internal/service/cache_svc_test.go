package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/orthrauku-dev/yt-sus/internal/model"
)

func setupTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	return NewCacheServiceWithClient(rdb), s
}

func TestFlaggedListRoundtrip(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	list := map[string]model.RemoteChannel{
		"UCsynth001": {ChannelName: "Synth Factory", Votes: 12, Reason: "community votes"},
	}
	if err := cache.SetFlaggedList(ctx, list); err != nil {
		t.Fatalf("set: %v", err)
	}

	data, err := cache.GetFlaggedList(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var got map[string]model.RemoteChannel
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["UCsynth001"].Votes != 12 {
		t.Errorf("votes = %d, want 12", got["UCsynth001"].Votes)
	}
}

func TestFlaggedListMissIsNil(t *testing.T) {
	cache, _ := setupTestCache(t)

	data, err := cache.GetFlaggedList(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if data != nil {
		t.Errorf("cold cache returned %q, want nil", data)
	}
}

func TestFlaggedListExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	if err := cache.SetFlaggedList(ctx, map[string]model.RemoteChannel{}); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Fast-forward time in miniredis past the TTL.
	mr.FastForward(FlaggedListTTL + 1)

	data, err := cache.GetFlaggedList(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if data != nil {
		t.Error("entry survived past TTL")
	}
}

func TestChannelInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	resp := model.CheckChannelResponse{Flagged: true, ChannelID: "UCsynth001", Votes: 10}
	if err := cache.SetChannel(ctx, "UCsynth001", resp); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.InvalidateChannel(ctx, "UCsynth001"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	data, err := cache.GetChannel(ctx, "UCsynth001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if data != nil {
		t.Error("channel still cached after invalidation")
	}
}

func TestDisabledCacheIsNoOp(t *testing.T) {
	cache := &CacheService{}
	ctx := context.Background()

	if err := cache.SetFlaggedList(ctx, map[string]model.RemoteChannel{}); err != nil {
		t.Errorf("set on disabled cache: %v", err)
	}
	data, err := cache.GetFlaggedList(ctx)
	if err != nil || data != nil {
		t.Errorf("get on disabled cache = (%v, %v), want (nil, nil)", data, err)
	}
	if err := cache.InvalidateFlaggedList(ctx); err != nil {
		t.Errorf("invalidate on disabled cache: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Errorf("close on disabled cache: %v", err)
	}
}
