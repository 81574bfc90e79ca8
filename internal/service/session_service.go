package service

import (
	"context"
	"errors"
	"math"
	"time"

	"trivia-service/internal/domain"
	"trivia-service/internal/models"
)

// SessionService is the grading engine: it owns the attempt lifecycle
// from StartAttempt through CompleteAttempt and enforces the
// one-attempt-per-(user,trivia) invariant.
type SessionService struct {
	Results   ResultStore
	Trivias   TriviaStore
	Questions QuestionStore
}

func NewSessionService(results ResultStore, trivias TriviaStore, questions QuestionStore) *SessionService {
	return &SessionService{Results: results, Trivias: trivias, Questions: questions}
}

// StartedAttempt is the payload returned when a user opens a trivia.
// Questions are the public view: correct answers are never included.
type StartedAttempt struct {
	SessionID        string                  `json:"session_id"`
	TriviaID         string                  `json:"trivia_id"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	TimeLimitMinutes int                     `json:"time_limit_minutes"`
	Questions        []models.PublicQuestion `json:"questions"`
}

// AnswerOutcome reveals the correct index only after a submission.
type AnswerOutcome struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer int    `json:"correct_answer"`
	Points        int    `json:"points"`
	TotalScore    int    `json:"total_score"`
	Explanation   string `json:"explanation,omitempty"`
}

// CompletionSummary is the finalized view of an attempt.
type CompletionSummary struct {
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CorrectAnswers int       `json:"correct_answers"`
	Percentage     int       `json:"percentage"`
	CompletedAt    time.Time `json:"completed_at"`
}

// AnswerSubmission is one entry of the one-shot grading path.
type AnswerSubmission struct {
	QuestionID     string `json:"question_id" binding:"required"`
	SelectedAnswer int    `json:"selected_answer"`
}

// GradedSet is the outcome of SubmitFullAnswerSet. Skipped carries the
// question ids that could not be resolved instead of silently
// under-counting the score.
type GradedSet struct {
	Score          int                   `json:"score"`
	TotalQuestions int                   `json:"total_questions"`
	Percentage     int                   `json:"percentage"`
	Graded         []models.AnswerRecord `json:"graded"`
	Skipped        []string              `json:"skipped,omitempty"`
}

// StartAttempt looks up or creates the attempt for (user, trivia).
// Calling it twice returns the same session id.
func (s *SessionService) StartAttempt(ctx context.Context, userID, triviaID string) (*StartedAttempt, error) {
	trivia, err := s.Trivias.FindByID(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	if !trivia.IsActive {
		return nil, domain.ErrUnavailable
	}

	result, err := s.Results.FindByUserAndTrivia(ctx, userID, triviaID)
	if errors.Is(err, domain.ErrNotFound) {
		result = &models.Result{
			UserID:      userID,
			TriviaID:    triviaID,
			Score:       0,
			Answers:     []models.AnswerRecord{},
			TimeStarted: time.Now(),
		}
		err = s.Results.Create(ctx, result)
		if errors.Is(err, domain.ErrConflict) {
			// Lost a start race; the winner's attempt is ours too.
			result, err = s.Results.FindByUserAndTrivia(ctx, userID, triviaID)
		}
	}
	if err != nil {
		return nil, err
	}

	questions, err := s.Questions.FindByTrivia(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	public := make([]models.PublicQuestion, 0, len(questions))
	for i := range questions {
		public = append(public, questions[i].Public())
	}

	return &StartedAttempt{
		SessionID:        result.ID,
		TriviaID:         trivia.ID,
		Title:            trivia.Title,
		Description:      trivia.Description,
		TimeLimitMinutes: trivia.TimeLimitMinutes,
		Questions:        public,
	}, nil
}

// SubmitAnswer grades one answer against the stored correct index and
// folds it into the attempt. Re-answering a question replaces the old
// record and adjusts the score by the delta, so revising an answer or
// re-sending the same one never double-counts.
func (s *SessionService) SubmitAnswer(ctx context.Context, userID, triviaID, questionID string, selected int) (*AnswerOutcome, error) {
	question, err := s.Questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.TriviaID != triviaID {
		return nil, domain.ErrNotFound
	}
	if selected < 0 || selected >= len(question.Options) {
		return nil, domain.ErrInvalidInput
	}

	isCorrect := question.CorrectAnswer == selected
	points := 0
	if isCorrect {
		points = models.PointsPerCorrect
	}
	record := models.AnswerRecord{
		QuestionID:     questionID,
		SelectedAnswer: selected,
		IsCorrect:      isCorrect,
		Points:         points,
	}

	result, err := s.Results.AtomicUpdate(ctx, userID, triviaID, func(r *models.Result) error {
		if i := r.AnswerFor(questionID); i >= 0 {
			r.Score += points - r.Answers[i].Points
			r.Answers[i] = record
		} else {
			r.Answers = append(r.Answers, record)
			r.Score += points
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &AnswerOutcome{
		Correct:       isCorrect,
		CorrectAnswer: question.CorrectAnswer,
		Points:        points,
		TotalScore:    result.Score,
		Explanation:   question.Explanation,
	}, nil
}

// CompleteAttempt finalizes the attempt. The first call stamps the
// completion time; later calls are no-ops that return the stored
// summary unchanged.
func (s *SessionService) CompleteAttempt(ctx context.Context, userID, triviaID string) (*CompletionSummary, error) {
	trivia, err := s.Trivias.FindByID(ctx, triviaID)
	if err != nil {
		return nil, err
	}

	result, err := s.Results.AtomicUpdate(ctx, userID, triviaID, func(r *models.Result) error {
		if r.CompletedAt == nil {
			now := time.Now()
			r.CompletedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := len(trivia.QuestionIDs)
	return &CompletionSummary{
		Score:          result.Score,
		TotalQuestions: total,
		CorrectAnswers: result.CorrectCount(),
		Percentage:     scorePercentage(result.Score, total),
		CompletedAt:    *result.CompletedAt,
	}, nil
}

// SubmitFullAnswerSet is the one-shot grading path: every answer is
// graded at once and the attempt is persisted already complete. A
// prior completed attempt is a hard reject, not an upsert. Answers
// naming unresolvable questions are reported in Skipped.
func (s *SessionService) SubmitFullAnswerSet(ctx context.Context, userID, triviaID string, answers []AnswerSubmission) (*GradedSet, error) {
	trivia, err := s.Trivias.FindByID(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	if !trivia.IsActive {
		return nil, domain.ErrUnavailable
	}

	existing, err := s.Results.FindByUserAndTrivia(ctx, userID, triviaID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Completed() {
		return nil, domain.ErrConflict
	}

	score := 0
	graded := make([]models.AnswerRecord, 0, len(answers))
	var skipped []string
	for _, a := range answers {
		question, err := s.Questions.FindByID(ctx, a.QuestionID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && question.TriviaID != triviaID) {
			skipped = append(skipped, a.QuestionID)
			continue
		}
		if err != nil {
			return nil, err
		}
		if a.SelectedAnswer < 0 || a.SelectedAnswer >= len(question.Options) {
			return nil, domain.ErrInvalidInput
		}
		isCorrect := question.CorrectAnswer == a.SelectedAnswer
		points := 0
		if isCorrect {
			points = models.PointsPerCorrect
		}
		score += points
		graded = append(graded, models.AnswerRecord{
			QuestionID:     a.QuestionID,
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      isCorrect,
			Points:         points,
		})
	}

	now := time.Now()
	if existing != nil {
		_, err = s.Results.AtomicUpdate(ctx, userID, triviaID, func(r *models.Result) error {
			r.Score = score
			r.Answers = graded
			r.CompletedAt = &now
			return nil
		})
	} else {
		err = s.Results.Create(ctx, &models.Result{
			UserID:      userID,
			TriviaID:    triviaID,
			Score:       score,
			Answers:     graded,
			TimeStarted: now,
			CompletedAt: &now,
		})
	}
	if err != nil {
		return nil, err
	}

	total := len(trivia.QuestionIDs)
	return &GradedSet{
		Score:          score,
		TotalQuestions: total,
		Percentage:     scorePercentage(score, total),
		Graded:         graded,
		Skipped:        skipped,
	}, nil
}

// scorePercentage maps a score onto 0-100 given the trivia's question
// count, with every question worth PointsPerCorrect.
func scorePercentage(score, questionCount int) int {
	if questionCount == 0 {
		return 0
	}
	max := float64(questionCount * models.PointsPerCorrect)
	return int(math.Round(float64(score) / max * 100))
}
