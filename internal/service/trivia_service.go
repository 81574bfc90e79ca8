package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"sort"
	"time"

	"trivia-service/internal/domain"
	"trivia-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// codeAttempts bounds join-code generation before giving up with a
// conflict. With a million possible codes, exhaustion means the code
// space itself is nearly full.
const codeAttempts = 8

// TriviaService owns the trivia catalog and the role/ownership policy
// around it. Every denial is an explicit ErrForbidden, never a
// silently filtered response.
type TriviaService struct {
	Trivias   TriviaStore
	Questions QuestionStore
	Results   ResultStore
}

func NewTriviaService(trivias TriviaStore, questions QuestionStore, results ResultStore) *TriviaService {
	return &TriviaService{Trivias: trivias, Questions: questions, Results: results}
}

// QuestionInput is the authoring shape for a question.
type QuestionInput struct {
	Text          string   `json:"text" binding:"required"`
	Options       []string `json:"options" binding:"required"`
	CorrectAnswer int      `json:"correct_answer"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	Explanation   string   `json:"explanation"`
}

func (in *QuestionInput) validate() error {
	if in.Text == "" || len(in.Options) < 2 {
		return domain.ErrInvalidInput
	}
	if in.CorrectAnswer < 0 || in.CorrectAnswer >= len(in.Options) {
		return domain.ErrInvalidInput
	}
	if in.Difficulty != "" && !models.ValidDifficulty(in.Difficulty) {
		return domain.ErrInvalidInput
	}
	return nil
}

// CreateTriviaInput is the authoring shape for a trivia.
type CreateTriviaInput struct {
	Title                string          `json:"title" binding:"required"`
	Description          string          `json:"description"`
	Difficulty           string          `json:"difficulty" binding:"required"`
	IsPublic             bool            `json:"is_public"`
	AllowDownloadResults bool            `json:"allow_download_results"`
	TimeLimitMinutes     int             `json:"time_limit_minutes"`
	Questions            []QuestionInput `json:"questions"`
}

// List returns the active catalog with per-trivia question counts and
// the distinct categories covered. Category and difficulty filters are
// optional; a category filter matches trivias containing at least one
// question in that category.
func (s *TriviaService) List(ctx context.Context, category, difficulty string) ([]models.TriviaSummary, error) {
	if difficulty != "" && !models.ValidDifficulty(difficulty) {
		return nil, domain.ErrInvalidInput
	}
	trivias, err := s.Trivias.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.TriviaSummary, 0, len(trivias))
	for _, t := range trivias {
		if difficulty != "" && t.Difficulty != difficulty {
			continue
		}
		summary := models.TriviaSummary{
			ID:               t.ID,
			Title:            t.Title,
			Description:      t.Description,
			Code:             t.Code,
			Difficulty:       t.Difficulty,
			CreatedBy:        t.CreatedBy,
			QuestionsCount:   len(t.QuestionIDs),
			TimeLimitMinutes: t.TimeLimitMinutes,
			CreatedAt:        t.CreatedAt,
		}
		if questions, err := s.Questions.FindByTrivia(ctx, t.ID); err == nil {
			summary.Categories = distinctCategories(questions)
		}
		if category != "" && !contains(summary.Categories, category) {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// TriviaDetail pairs a trivia with its questions. Questions carries
// the full records only for the owner and admins; everyone else gets
// PublicQuestions with the correct index stripped.
type TriviaDetail struct {
	Trivia          models.Trivia           `json:"trivia"`
	Questions       []models.Question       `json:"questions,omitempty"`
	PublicQuestions []models.PublicQuestion `json:"public_questions,omitempty"`
}

// Get returns a trivia with its questions. Inactive trivias are
// reported as unavailable rather than hidden. caller may be nil for
// anonymous reads; correct answers are only included for the trivia's
// owner and admins.
func (s *TriviaService) Get(ctx context.Context, caller *models.User, id string) (*TriviaDetail, error) {
	trivia, err := s.Trivias.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !trivia.IsActive {
		return nil, domain.ErrUnavailable
	}
	questions, err := s.Questions.FindByTrivia(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &TriviaDetail{Trivia: *trivia}
	if caller != nil && (caller.ID == trivia.CreatedBy || caller.Role == models.RoleAdmin) {
		detail.Questions = questions
		return detail, nil
	}
	detail.PublicQuestions = make([]models.PublicQuestion, 0, len(questions))
	for i := range questions {
		detail.PublicQuestions = append(detail.PublicQuestions, questions[i].Public())
	}
	return detail, nil
}

// Create authors a trivia with an optional question list. Restricted
// to the privileged roles. Question validation runs before anything is
// written, so a malformed question fails the whole request instead of
// leaving a partial trivia behind.
func (s *TriviaService) Create(ctx context.Context, caller *models.User, in CreateTriviaInput) (*models.Trivia, error) {
	if !models.CanCreateTrivia(caller.Role) {
		return nil, domain.ErrForbidden
	}
	if in.Title == "" || !models.ValidDifficulty(in.Difficulty) {
		return nil, domain.ErrInvalidInput
	}
	for i := range in.Questions {
		if err := in.Questions[i].validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	trivia := &models.Trivia{
		Title:                in.Title,
		Description:          in.Description,
		Difficulty:           in.Difficulty,
		CreatedBy:            caller.ID,
		QuestionIDs:          []string{},
		IsActive:             true,
		IsPublic:             in.IsPublic,
		AllowDownloadResults: in.AllowDownloadResults,
		TimeLimitMinutes:     in.TimeLimitMinutes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	var err error
	for i := 0; i < codeAttempts; i++ {
		trivia.Code = generateJoinCode()
		err = s.Trivias.Create(ctx, trivia)
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	for _, q := range in.Questions {
		question := &models.Question{
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
			Explanation:   q.Explanation,
			TriviaID:      trivia.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.Questions.Create(ctx, question); err != nil {
			return nil, err
		}
		trivia.QuestionIDs = append(trivia.QuestionIDs, question.ID)
	}
	if len(trivia.QuestionIDs) > 0 {
		if err := s.Trivias.Update(ctx, trivia.ID, bson.M{"questions": trivia.QuestionIDs, "updated_at": time.Now()}); err != nil {
			return nil, err
		}
	}
	return trivia, nil
}

// Mine lists the caller's own trivias; admins see every trivia.
func (s *TriviaService) Mine(ctx context.Context, caller *models.User) ([]models.Trivia, error) {
	if !models.CanCreateTrivia(caller.Role) {
		return nil, domain.ErrForbidden
	}
	if caller.Role == models.RoleAdmin {
		return s.Trivias.FindAll(ctx)
	}
	return s.Trivias.FindByCreator(ctx, caller.ID)
}

// JoinByCode locates an active trivia by its join code and returns the
// answer-hidden view.
func (s *TriviaService) JoinByCode(ctx context.Context, code string) (*StartedAttempt, error) {
	trivia, err := s.Trivias.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !trivia.IsActive {
		return nil, domain.ErrNotFound
	}
	questions, err := s.Questions.FindByTrivia(ctx, trivia.ID)
	if err != nil {
		return nil, err
	}
	public := make([]models.PublicQuestion, 0, len(questions))
	for i := range questions {
		public = append(public, questions[i].Public())
	}
	return &StartedAttempt{
		TriviaID:         trivia.ID,
		Title:            trivia.Title,
		Description:      trivia.Description,
		TimeLimitMinutes: trivia.TimeLimitMinutes,
		Questions:        public,
	}, nil
}

// AddQuestion appends one question to an existing trivia, owner only.
func (s *TriviaService) AddQuestion(ctx context.Context, caller *models.User, triviaID string, in QuestionInput) (*models.Question, error) {
	trivia, err := s.Trivias.FindByID(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	if trivia.CreatedBy != caller.ID {
		return nil, domain.ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	question := &models.Question{
		Text:          in.Text,
		Options:       in.Options,
		CorrectAnswer: in.CorrectAnswer,
		Category:      in.Category,
		Difficulty:    in.Difficulty,
		Explanation:   in.Explanation,
		TriviaID:      triviaID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Questions.Create(ctx, question); err != nil {
		return nil, err
	}
	update := bson.M{
		"questions":  append(trivia.QuestionIDs, question.ID),
		"updated_at": now,
	}
	if err := s.Trivias.Update(ctx, triviaID, update); err != nil {
		return nil, err
	}
	return question, nil
}

// ToggleActive flips the active flag, owner only. Returns the new
// state.
func (s *TriviaService) ToggleActive(ctx context.Context, caller *models.User, triviaID string) (bool, error) {
	trivia, err := s.Trivias.FindByID(ctx, triviaID)
	if err != nil {
		return false, err
	}
	if trivia.CreatedBy != caller.ID {
		return false, domain.ErrForbidden
	}
	next := !trivia.IsActive
	err = s.Trivias.Update(ctx, triviaID, bson.M{"is_active": next, "updated_at": time.Now()})
	if err != nil {
		return false, err
	}
	return next, nil
}

// Delete removes a trivia and cascades to its questions and attempts,
// so no dangling references survive.
func (s *TriviaService) Delete(ctx context.Context, caller *models.User, triviaID string) error {
	trivia, err := s.Trivias.FindByID(ctx, triviaID)
	if err != nil {
		return err
	}
	if trivia.CreatedBy != caller.ID && caller.Role != models.RoleAdmin {
		return domain.ErrForbidden
	}
	if err := s.Questions.DeleteByTrivia(ctx, triviaID); err != nil {
		return err
	}
	if err := s.Results.DeleteByTrivia(ctx, triviaID); err != nil {
		return err
	}
	return s.Trivias.Delete(ctx, triviaID)
}

// CanDownloadResults gates the CSV export: creator only, and only when
// the trivia allows downloads.
func (s *TriviaService) CanDownloadResults(ctx context.Context, caller *models.User, triviaID string) (*models.Trivia, error) {
	trivia, err := s.Trivias.FindByID(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	if trivia.CreatedBy != caller.ID {
		return nil, domain.ErrForbidden
	}
	if !trivia.AllowDownloadResults {
		return nil, domain.ErrForbidden
	}
	return trivia, nil
}

// generateJoinCode produces the 6-digit numeric code players type in.
func generateJoinCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand failing is a broken platform; fall back to a
		// constant-free panic rather than predictable codes.
		panic(err)
	}
	code := n.Int64() + 100000
	return big.NewInt(code).String()
}

func distinctCategories(questions []models.Question) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, q := range questions {
		if q.Category == "" {
			continue
		}
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		categories = append(categories, q.Category)
	}
	sort.Strings(categories)
	return categories
}
