package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trivia-service/internal/domain"
	"trivia-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// In-memory stores backing the service tests. They implement the same
// interfaces as the mongo repositories, including the unique-pair and
// unique-code constraints the real indexes enforce.

type memUsers struct {
	mu    sync.Mutex
	seq   int
	users map[string]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]models.User)}
}

func (m *memUsers) add(name, email, role string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	u := models.User{
		ID:       fmt.Sprintf("u%d", m.seq),
		Name:     name,
		Email:    email,
		Role:     role,
		IsActive: true,
	}
	m.users[u.ID] = u
	return &u
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrConflict
		}
	}
	m.seq++
	user.ID = fmt.Sprintf("u%d", m.seq)
	m.users[user.ID] = *user
	return nil
}

func (m *memUsers) Update(_ context.Context, id string, update bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	if v, ok := update["name"].(string); ok {
		u.Name = v
	}
	if v, ok := update["is_verified"].(bool); ok {
		u.IsVerified = v
	}
	if v, ok := update["password_hash"].(string); ok {
		u.PasswordHash = v
	}
	m.users[id] = u
	return nil
}

func (m *memUsers) FindByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type memTrivias struct {
	mu      sync.Mutex
	seq     int
	trivias map[string]models.Trivia

	// createConflicts forces the first N creates to fail with
	// ErrConflict, simulating join-code collisions.
	createConflicts int
}

func newMemTrivias() *memTrivias {
	return &memTrivias{trivias: make(map[string]models.Trivia)}
}

func (m *memTrivias) add(t models.Trivia) models.Trivia {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if t.ID == "" {
		t.ID = fmt.Sprintf("t%d", m.seq)
	}
	m.trivias[t.ID] = t
	return t
}

func (m *memTrivias) FindActive(_ context.Context) ([]models.Trivia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Trivia
	for _, t := range m.trivias {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTrivias) FindAll(_ context.Context) ([]models.Trivia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Trivia
	for _, t := range m.trivias {
		out = append(out, t)
	}
	return out, nil
}

func (m *memTrivias) FindByCreator(_ context.Context, userID string) ([]models.Trivia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Trivia
	for _, t := range m.trivias {
		if t.CreatedBy == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTrivias) FindByID(_ context.Context, id string) (*models.Trivia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trivias[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (m *memTrivias) FindByCode(_ context.Context, code string) (*models.Trivia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trivias {
		if t.Code == code {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTrivias) Create(_ context.Context, trivia *models.Trivia) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createConflicts > 0 {
		m.createConflicts--
		return domain.ErrConflict
	}
	for _, t := range m.trivias {
		if t.Code == trivia.Code {
			return domain.ErrConflict
		}
	}
	m.seq++
	trivia.ID = fmt.Sprintf("t%d", m.seq)
	m.trivias[trivia.ID] = *trivia
	return nil
}

func (m *memTrivias) Update(_ context.Context, id string, update bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trivias[id]
	if !ok {
		return domain.ErrNotFound
	}
	if v, ok := update["questions"].([]string); ok {
		t.QuestionIDs = v
	}
	if v, ok := update["is_active"].(bool); ok {
		t.IsActive = v
	}
	if v, ok := update["updated_at"].(time.Time); ok {
		t.UpdatedAt = v
	}
	m.trivias[id] = t
	return nil
}

func (m *memTrivias) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trivias[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.trivias, id)
	return nil
}

type memQuestions struct {
	mu        sync.Mutex
	seq       int
	questions map[string]models.Question
}

func newMemQuestions() *memQuestions {
	return &memQuestions{questions: make(map[string]models.Question)}
}

func (m *memQuestions) add(q models.Question) models.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if q.ID == "" {
		q.ID = fmt.Sprintf("q%d", m.seq)
	}
	m.questions[q.ID] = q
	return q
}

func (m *memQuestions) FindByID(_ context.Context, id string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &q, nil
}

func (m *memQuestions) FindByTrivia(_ context.Context, triviaID string) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Question
	for _, q := range m.questions {
		if q.TriviaID == triviaID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memQuestions) Create(_ context.Context, question *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	question.ID = fmt.Sprintf("q%d", m.seq)
	m.questions[question.ID] = *question
	return nil
}

func (m *memQuestions) DeleteByTrivia(_ context.Context, triviaID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, q := range m.questions {
		if q.TriviaID == triviaID {
			delete(m.questions, id)
		}
	}
	return nil
}

type memResults struct {
	mu      sync.Mutex
	seq     int
	results map[string]models.Result
}

func newMemResults() *memResults {
	return &memResults{results: make(map[string]models.Result)}
}

func (m *memResults) add(r models.Result) models.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if r.ID == "" {
		r.ID = fmt.Sprintf("r%d", m.seq)
	}
	m.results[r.ID] = r
	return r
}

func (m *memResults) FindByID(_ context.Context, id string) (*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *memResults) FindByUserAndTrivia(_ context.Context, userID, triviaID string) (*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findLocked(userID, triviaID)
}

func (m *memResults) findLocked(userID, triviaID string) (*models.Result, error) {
	for _, r := range m.results {
		if r.UserID == userID && r.TriviaID == triviaID {
			out := r
			out.Answers = append([]models.AnswerRecord(nil), r.Answers...)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memResults) FindByTrivia(_ context.Context, triviaID string) ([]models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Result
	for _, r := range m.results {
		if r.TriviaID == triviaID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memResults) FindCompleted(_ context.Context) ([]models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Result
	for _, r := range m.results {
		if r.CompletedAt != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memResults) FindCompletedByTrivia(_ context.Context, triviaID string) ([]models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Result
	for _, r := range m.results {
		if r.TriviaID == triviaID && r.CompletedAt != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memResults) FindCompletedByUser(_ context.Context, userID string) ([]models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Result
	for _, r := range m.results {
		if r.UserID == userID && r.CompletedAt != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memResults) Create(_ context.Context, result *models.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.findLocked(result.UserID, result.TriviaID); err == nil {
		return domain.ErrConflict
	}
	m.seq++
	result.ID = fmt.Sprintf("r%d", m.seq)
	m.results[result.ID] = *result
	return nil
}

func (m *memResults) AtomicUpdate(_ context.Context, userID, triviaID string, mutate func(*models.Result) error) (*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.findLocked(userID, triviaID)
	if err != nil {
		return nil, err
	}
	if err := mutate(r); err != nil {
		return nil, err
	}
	r.Version++
	m.results[r.ID] = *r
	return r, nil
}

func (m *memResults) DeleteByTrivia(_ context.Context, triviaID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.results {
		if r.TriviaID == triviaID {
			delete(m.results, id)
		}
	}
	return nil
}

func completedAt(t time.Time) *time.Time {
	return &t
}
