package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/orthrauku-dev/yt-sus/internal/model"
	"github.com/orthrauku-dev/yt-sus/internal/repository"
)

type ChannelService struct {
	repo  *repository.ChannelRepo
	cache *CacheService
}

func NewChannelService(repo *repository.ChannelRepo, cache *CacheService) *ChannelService {
	return &ChannelService{repo: repo, cache: cache}
}

// ListFlagged returns the full flagged list, cache-aside: check Redis
// first, fall back to DB, then populate cache.
func (s *ChannelService) ListFlagged(ctx context.Context) (map[string]model.RemoteChannel, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlaggedList(ctx)
		if err != nil {
			log.Printf("cache: flagged list get error: %v", err)
		} else if cached != nil {
			var out map[string]model.RemoteChannel
			if err := json.Unmarshal(cached, &out); err == nil {
				return out, nil
			}
		}
	}

	out, err := s.repo.ListFlagged(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetFlaggedList(ctx, out); err != nil {
			log.Printf("cache: flagged list set error: %v", err)
		}
	}
	return out, nil
}

// Check answers whether one channel is flagged. A channel the server
// has never seen is simply not flagged; that is a normal 200 response,
// not an error.
func (s *ChannelService) Check(ctx context.Context, channelID string) (*model.CheckChannelResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.GetChannel(ctx, channelID)
		if err != nil {
			log.Printf("cache: channel get error: %v", err)
		} else if cached != nil {
			var resp model.CheckChannelResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	resp := &model.CheckChannelResponse{ChannelID: channelID}
	row, err := s.repo.Find(ctx, channelID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Unknown channel: flagged=false, votes=0.
	case err != nil:
		return nil, err
	default:
		resp.Flagged = row.Flagged
		resp.Votes = row.Votes
		if row.Flagged {
			resp.Details = &model.RemoteChannel{
				ChannelName: row.ChannelName,
				FlaggedDate: row.FlaggedDate.UTC().Format(time.RFC3339),
				Reason:      row.Reason,
				Votes:       row.Votes,
			}
		}
	}

	if s.cache != nil {
		if err := s.cache.SetChannel(ctx, channelID, resp); err != nil {
			log.Printf("cache: channel set error: %v", err)
		}
	}
	return resp, nil
}
