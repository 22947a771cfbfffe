package service

import (
	"context"

	"github.com/avelkine/filevault/internal/repository"
)

// Stats reports instance-wide record counts.
type Stats struct {
	Users int64
	Files int64
}

// StatsService exposes the counters behind GET /stats.
type StatsService interface {
	Counts(ctx context.Context) (Stats, error)
}

type StatsServiceImpl struct {
	users repository.UserRepository
	files repository.FileRepository
}

// NewStatsService constructs StatsService over both repositories.
func NewStatsService(users repository.UserRepository, files repository.FileRepository) *StatsServiceImpl {
	return &StatsServiceImpl{users: users, files: files}
}

// Counts returns the number of users and file nodes.
func (s *StatsServiceImpl) Counts(ctx context.Context) (Stats, error) {
	nu, err := s.users.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	nf, err := s.files.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Users: nu, Files: nf}, nil
}
