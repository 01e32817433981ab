package dto

// LeaderboardEntry is one row of the global points leaderboard.
type LeaderboardEntry struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Rank   int    `json:"rank"`
}

// ChallengeLeaderboardEntry is one row of a per-challenge leaderboard,
// reflecting each user's best graded attempt.
type ChallengeLeaderboardEntry struct {
	UserID        uint     `json:"user_id"`
	Name          string   `json:"name"`
	AttemptNumber int      `json:"attempt_number"`
	Score         *float64 `json:"score"`
	MaxScore      *float64 `json:"max_score"`
	PointsAwarded int      `json:"points_awarded"`
	ChallengeRank int      `json:"challenge_rank"`
}
