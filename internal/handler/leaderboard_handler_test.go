package handler_test

import (
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/aiclub-uj/challenge-api/internal/dto"
	"github.com/aiclub-uj/challenge-api/internal/models"
)

func TestGlobalLeaderboardIsPublic(t *testing.T) {
	app, db := setupChallengeApp(t)

	for i, entry := range []struct {
		name   string
		points int
		rank   int
	}{{"Jane", 90, 1}, {"Ben", 70, 2}, {"Zoe", 70, 2}} {
		user := models.User{
			Name:   entry.name,
			Email:  entry.name + "@example.com",
			Points: entry.points,
			Rank:   entry.rank,
		}
		require.NoError(t, db.Create(&user).Error, "seed user %d", i)
	}

	resp := doRequest(t, app, "GET", "/api/v1/leaderboard", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                   `json:"success"`
		Data    []dto.LeaderboardEntry `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Len(t, body.Data, 3)
	require.Equal(t, "Jane", body.Data[0].Name)
	require.Equal(t, 1, body.Data[0].Rank)
	require.Equal(t, body.Data[1].Rank, body.Data[2].Rank, "tied totals share a rank")
}

func TestGlobalLeaderboardLimit(t *testing.T) {
	app, db := setupChallengeApp(t)

	for i := 0; i < 5; i++ {
		user := models.User{
			Name:   "user-" + strconv.Itoa(i),
			Email:  "user-" + strconv.Itoa(i) + "@example.com",
			Points: 10 * (i + 1),
			Rank:   5 - i,
		}
		require.NoError(t, db.Create(&user).Error)
	}

	resp := doRequest(t, app, "GET", "/api/v1/leaderboard?limit=2", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.LeaderboardEntry `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 2)
	require.Equal(t, 50, body.Data[0].Points)
}

func TestChallengeLeaderboardShowsBestGradedAttempts(t *testing.T) {
	app, db := setupChallengeApp(t)
	student, challenge := seedChallengeFixtures(t, db)

	rival := models.User{Name: "Ben", Email: "ben@example.com"}
	require.NoError(t, db.Create(&rival).Error)

	var notebook models.ChallengeNotebook
	require.NoError(t, db.First(&notebook).Error)

	rows := []models.ChallengeSubmission{
		{UserID: student.ID, ChallengeID: challenge.ID, NotebookID: notebook.ID, AttemptNumber: 1, Status: models.SubmissionStatusGraded, PointsAwarded: 40},
		{UserID: student.ID, ChallengeID: challenge.ID, NotebookID: notebook.ID, AttemptNumber: 2, Status: models.SubmissionStatusGraded, PointsAwarded: 50},
		{UserID: rival.ID, ChallengeID: challenge.ID, NotebookID: notebook.ID, AttemptNumber: 1, Status: models.SubmissionStatusGraded, PointsAwarded: 30},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	base := "/api/v1/challenges/" + strconv.FormatUint(uint64(challenge.ID), 10)
	resp := doRequest(t, app, "GET", base+"/leaderboard", nil, asUser(student))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.ChallengeLeaderboardEntry `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 2, "one row per user, best attempt only")
	require.Equal(t, student.ID, body.Data[0].UserID)
	require.Equal(t, 2, body.Data[0].AttemptNumber)
	require.Equal(t, 1, body.Data[0].ChallengeRank)
	require.Equal(t, 2, body.Data[1].ChallengeRank)
}
