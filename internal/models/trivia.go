package models

import "time"

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type Trivia struct {
	ID                   string    `bson:"_id,omitempty" json:"id"`
	Title                string    `bson:"title" json:"title"`
	Description          string    `bson:"description" json:"description"`
	Code                 string    `bson:"code" json:"code"`
	Difficulty           string    `bson:"difficulty" json:"difficulty"`
	CreatedBy            string    `bson:"created_by" json:"created_by"`
	QuestionIDs          []string  `bson:"questions" json:"questions"`
	IsActive             bool      `bson:"is_active" json:"is_active"`
	IsPublic             bool      `bson:"is_public" json:"is_public"`
	AllowDownloadResults bool      `bson:"allow_download_results" json:"allow_download_results"`
	TimeLimitMinutes     int       `bson:"time_limit_minutes" json:"time_limit_minutes"`
	CreatedAt            time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidDifficulty reports whether d is one of the supported levels.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// TriviaSummary is the listing view: no question bodies, only counts
// and the distinct categories covered.
type TriviaSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Code             string    `json:"code"`
	Difficulty       string    `json:"difficulty"`
	CreatedBy        string    `json:"created_by"`
	QuestionsCount   int       `json:"questions_count"`
	Categories       []string  `json:"categories"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	CreatedAt        time.Time `json:"created_at"`
}
