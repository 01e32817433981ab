package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aiclub-uj/challenge-api/internal/models"
)

func newLeaderboardFixtures(t *testing.T) (*fakeUserRepo, *fakeSubmissionRepo, *miniredis.Miniredis, LeaderboardService) {
	t.Helper()

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	users := &fakeUserRepo{top: []models.User{
		{ID: 1, Name: "Jane", Points: 90, Rank: 1},
		{ID: 2, Name: "Ben", Points: 70, Rank: 2},
	}}
	submissions := &fakeSubmissionRepo{}

	svc := NewLeaderboardService(users, submissions, cache, time.Minute, testLogger())

	return users, submissions, mr, svc
}

func TestGlobalLeaderboardReflectsStoredRanks(t *testing.T) {
	_, _, _, svc := newLeaderboardFixtures(t)

	entries, err := svc.Global(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Jane", entries[0].Name)
	require.Equal(t, 1, entries[0].Rank)
	require.Equal(t, 2, entries[1].Rank)
}

func TestGlobalLeaderboardServesFromCache(t *testing.T) {
	users, _, _, svc := newLeaderboardFixtures(t)

	_, err := svc.Global(context.Background(), 10)
	require.NoError(t, err)

	// Mutate the backing data; the cached snapshot must win until it expires.
	users.top = []models.User{{ID: 3, Name: "Zoe", Points: 999, Rank: 1}}

	entries, err := svc.Global(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Jane", entries[0].Name)
}

func TestGlobalLeaderboardCacheExpires(t *testing.T) {
	users, _, mr, svc := newLeaderboardFixtures(t)

	_, err := svc.Global(context.Background(), 10)
	require.NoError(t, err)

	users.top = []models.User{{ID: 3, Name: "Zoe", Points: 999, Rank: 1}}
	mr.FastForward(2 * time.Minute)

	entries, err := svc.Global(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Zoe", entries[0].Name)
}

func TestChallengeLeaderboardRanksBestAttemptPerUser(t *testing.T) {
	_, submissions, _, svc := newLeaderboardFixtures(t)

	// Rows arrive ordered by points descending, as the repository guarantees.
	submissions.graded = []models.ChallengeSubmission{
		{UserID: 1, AttemptNumber: 2, PointsAwarded: 50, User: models.User{ID: 1, Name: "Jane"}},
		{UserID: 2, AttemptNumber: 1, PointsAwarded: 50, User: models.User{ID: 2, Name: "Ben"}},
		{UserID: 1, AttemptNumber: 1, PointsAwarded: 40, User: models.User{ID: 1, Name: "Jane"}},
		{UserID: 3, AttemptNumber: 3, PointsAwarded: 30, User: models.User{ID: 3, Name: "Zoe"}},
	}

	entries, err := svc.Challenge(context.Background(), 10, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3, "each user appears once, with their best attempt")

	require.Equal(t, 1, entries[0].ChallengeRank)
	require.Equal(t, 1, entries[1].ChallengeRank, "equal awards share a rank")
	require.Equal(t, 2, entries[2].ChallengeRank, "ranks are dense")
	require.Equal(t, 2, entries[0].AttemptNumber)
	require.Equal(t, "Zoe", entries[2].Name)
}

func TestChallengeLeaderboardHonorsLimit(t *testing.T) {
	_, submissions, _, svc := newLeaderboardFixtures(t)
	submissions.graded = []models.ChallengeSubmission{
		{UserID: 1, PointsAwarded: 50, User: models.User{ID: 1, Name: "Jane"}},
		{UserID: 2, PointsAwarded: 40, User: models.User{ID: 2, Name: "Ben"}},
		{UserID: 3, PointsAwarded: 30, User: models.User{ID: 3, Name: "Zoe"}},
	}

	entries, err := svc.Challenge(context.Background(), 10, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
