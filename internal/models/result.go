package models

import "time"

// PointsPerCorrect is the uniform score value of one correct answer,
// applied on both the incremental and the one-shot grading paths.
const PointsPerCorrect = 100

// AnswerRecord is the graded outcome of one submitted answer inside an
// attempt. Records are keyed by question id and replaced on revision.
type AnswerRecord struct {
	QuestionID     string `bson:"question_id" json:"question_id"`
	SelectedAnswer int    `bson:"selected_answer" json:"selected_answer"`
	IsCorrect      bool   `bson:"is_correct" json:"is_correct"`
	Points         int    `bson:"points" json:"points"`
}

// Result is one user's attempt at one trivia. At most one exists per
// (user, trivia) pair. Version backs the compare-and-swap update loop.
type Result struct {
	ID          string         `bson:"_id,omitempty" json:"id"`
	UserID      string         `bson:"user_id" json:"user_id"`
	TriviaID    string         `bson:"trivia_id" json:"trivia_id"`
	Score       int            `bson:"score" json:"score"`
	Answers     []AnswerRecord `bson:"answers" json:"answers"`
	TimeStarted time.Time      `bson:"time_started" json:"time_started"`
	CompletedAt *time.Time     `bson:"completed_at" json:"completed_at"`
	Version     int64          `bson:"version" json:"-"`
}

// Completed reports whether the attempt has been finalized.
func (r *Result) Completed() bool {
	return r.CompletedAt != nil
}

// CorrectCount counts the correctly answered questions.
func (r *Result) CorrectCount() int {
	n := 0
	for _, a := range r.Answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// AnswerFor returns the index of the record for a question, or -1.
func (r *Result) AnswerFor(questionID string) int {
	for i, a := range r.Answers {
		if a.QuestionID == questionID {
			return i
		}
	}
	return -1
}
