package models

import "time"

// GlobalLeaderboardEntry aggregates one user's completed attempts.
type GlobalLeaderboardEntry struct {
	UserID           string    `json:"user_id"`
	Name             string    `json:"name"`
	TotalScore       int       `json:"total_score"`
	TriviasCompleted int       `json:"trivias_completed"`
	AverageScore     float64   `json:"average_score"`
	BestScore        int       `json:"best_score"`
	LastActivity     time.Time `json:"last_activity"`
}

// TriviaLeaderboardEntry is one row of a per-trivia ranking.
type TriviaLeaderboardEntry struct {
	Position    int       `json:"position"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Score       int       `json:"score"`
	Percentage  int       `json:"percentage"`
	CompletedAt time.Time `json:"completed_at"`
}

// RecentActivity is one of the caller's latest completed attempts.
type RecentActivity struct {
	TriviaID       string    `json:"trivia_id"`
	TriviaTitle    string    `json:"trivia_title"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CorrectAnswers int       `json:"correct_answers"`
	Percentage     int       `json:"percentage"`
	CompletedAt    time.Time `json:"completed_at"`
}

// UserStats summarizes a user's play history plus their global rank.
type UserStats struct {
	TriviasCompleted int              `json:"trivias_completed"`
	TotalScore       int              `json:"total_score"`
	AverageScore     float64          `json:"average_score"`
	BestScore        int              `json:"best_score"`
	GlobalRank       int              `json:"global_rank,omitempty"`
	RecentActivity   []RecentActivity `json:"recent_activity"`
}

// TriviaStatistics describes participation across one trivia.
type TriviaStatistics struct {
	TotalParticipants     int     `json:"total_participants"`
	CompletedParticipants int     `json:"completed_participants"`
	AverageScore          float64 `json:"average_score"`
	HighestScore          int     `json:"highest_score"`
	LowestScore           int     `json:"lowest_score"`
	AverageElapsedMinutes int     `json:"average_elapsed_minutes"`
}
