package service

import (
	"context"
	"log"

	"github.com/orthrauku-dev/yt-sus/internal/model"
	"github.com/orthrauku-dev/yt-sus/internal/repository"
)

type VoteService struct {
	repo      *repository.ChannelRepo
	cache     *CacheService
	threshold int
}

func NewVoteService(repo *repository.ChannelRepo, cache *CacheService, threshold int) *VoteService {
	return &VoteService{repo: repo, cache: cache, threshold: threshold}
}

// Submit records one vote for a channel, deduped per anonymous voter
// hash, and returns the resulting count. Crossing the threshold flags
// the channel server-side inside the same transaction.
func (s *VoteService) Submit(ctx context.Context, req model.VoteChannelRequest, voterHash string) (*model.VoteChannelResponse, error) {
	votes, err := s.repo.AddVote(ctx, req.ChannelID, req.ChannelName, voterHash, s.threshold)
	if err != nil {
		return nil, err
	}

	// The cached check response and flagged list are both stale now.
	if s.cache != nil {
		if err := s.cache.InvalidateChannel(ctx, req.ChannelID); err != nil {
			log.Printf("cache: invalidate channel error: %v", err)
		}
		if votes >= s.threshold {
			if err := s.cache.InvalidateFlaggedList(ctx); err != nil {
				log.Printf("cache: invalidate flagged list error: %v", err)
			}
		}
	}

	return &model.VoteChannelResponse{Votes: votes}, nil
}
