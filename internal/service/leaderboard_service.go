package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aiclub-uj/challenge-api/internal/dto"
	"github.com/aiclub-uj/challenge-api/internal/repository"
)

const defaultLeaderboardLimit = 50

// LeaderboardService serves the derived ranking read models.
type LeaderboardService interface {
	Global(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error)
	Challenge(ctx context.Context, challengeID uint, limit int) ([]dto.ChallengeLeaderboardEntry, error)
}

type leaderboardService struct {
	users       repository.UserRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewLeaderboardService builds the leaderboard aggregator.
func NewLeaderboardService(userRepo repository.UserRepository, submissionRepo repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) LeaderboardService {
	return &leaderboardService{
		users:       userRepo,
		submissions: submissionRepo,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "leaderboard_service").Logger(),
	}
}

func (s *leaderboardService) Global(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	cacheKey := fmt.Sprintf("leaderboard:global:%d", limit)
	if cached, ok := s.fromCache(ctx, cacheKey); ok {
		var entries []dto.LeaderboardEntry
		if err := json.Unmarshal(cached, &entries); err == nil {
			return entries, nil
		}
	}

	users, err := s.users.ListTopByPoints(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.LeaderboardEntry, 0, len(users))
	for _, user := range users {
		entries = append(entries, dto.LeaderboardEntry{
			UserID: user.ID,
			Name:   user.Name,
			Points: user.Points,
			Rank:   user.Rank,
		})
	}

	s.toCache(ctx, cacheKey, entries)

	return entries, nil
}

func (s *leaderboardService) Challenge(ctx context.Context, challengeID uint, limit int) ([]dto.ChallengeLeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	cacheKey := fmt.Sprintf("leaderboard:challenge:%d:%d", challengeID, limit)
	if cached, ok := s.fromCache(ctx, cacheKey); ok {
		var entries []dto.ChallengeLeaderboardEntry
		if err := json.Unmarshal(cached, &entries); err == nil {
			return entries, nil
		}
	}

	submissions, err := s.submissions.ListGradedByChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	// Rows arrive ordered by points descending, so the first attempt seen per
	// user is their best one.
	seen := make(map[uint]struct{}, len(submissions))
	entries := make([]dto.ChallengeLeaderboardEntry, 0, limit)
	rank := 0
	lastPoints := 0

	for _, submission := range submissions {
		if _, dup := seen[submission.UserID]; dup {
			continue
		}
		seen[submission.UserID] = struct{}{}

		if len(entries) == 0 || submission.PointsAwarded != lastPoints {
			rank++
			lastPoints = submission.PointsAwarded
		}

		entries = append(entries, dto.ChallengeLeaderboardEntry{
			UserID:        submission.UserID,
			Name:          submission.User.Name,
			AttemptNumber: submission.AttemptNumber,
			Score:         submission.Score,
			MaxScore:      submission.MaxScore,
			PointsAwarded: submission.PointsAwarded,
			ChallengeRank: rank,
		})

		if len(entries) >= limit {
			break
		}
	}

	s.toCache(ctx, cacheKey, entries)

	return entries, nil
}

func (s *leaderboardService) fromCache(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read leaderboard cache")
		}
		return nil, false
	}

	return []byte(cached), true
}

func (s *leaderboardService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store leaderboard cache")
	}
}
