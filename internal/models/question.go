package models

import "time"

type Question struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Text          string    `bson:"text" json:"text"`
	Options       []string  `bson:"options" json:"options"`
	CorrectAnswer int       `bson:"correct_answer" json:"correct_answer"`
	Category      string    `bson:"category" json:"category"`
	Difficulty    string    `bson:"difficulty" json:"difficulty"`
	TriviaID      string    `bson:"trivia_id" json:"trivia_id"`
	Explanation   string    `bson:"explanation,omitempty" json:"explanation,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// PublicQuestion is the answer-hidden view handed to players before
// they submit. It never carries the correct index.
type PublicQuestion struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
}

// Public strips the grading fields from a question.
func (q *Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:         q.ID,
		Text:       q.Text,
		Options:    q.Options,
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}
}
