package service

import (
	"context"

	"github.com/orthrauku-dev/yt-sus/internal/repository"
)

type StatsService struct {
	repo *repository.ChannelRepo
}

func NewStatsService(repo *repository.ChannelRepo) *StatsService {
	return &StatsService{repo: repo}
}

func (s *StatsService) GetStats(ctx context.Context) (*repository.Stats, error) {
	return s.repo.GetStats(ctx)
}
