package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-service/internal/domain"
	"trivia-service/internal/models"
)

type triviaFixture struct {
	svc       *TriviaService
	trivias   *memTrivias
	questions *memQuestions
	results   *memResults
	users     *memUsers
}

func newTriviaFixture(t *testing.T) *triviaFixture {
	t.Helper()
	trivias := newMemTrivias()
	questions := newMemQuestions()
	results := newMemResults()
	return &triviaFixture{
		svc:       NewTriviaService(trivias, questions, results),
		trivias:   trivias,
		questions: questions,
		results:   results,
		users:     newMemUsers(),
	}
}

func validCreateInput() CreateTriviaInput {
	return CreateTriviaInput{
		Title:      "Capitals",
		Difficulty: models.DifficultyEasy,
		Questions: []QuestionInput{
			{Text: "Capital of France?", Options: []string{"Paris", "Rome"}, CorrectAnswer: 0, Category: "geography"},
			{Text: "Capital of Italy?", Options: []string{"Paris", "Rome"}, CorrectAnswer: 1, Category: "geography"},
		},
	}
}

func TestCreateTriviaRequiresPrivilegedRole(t *testing.T) {
	f := newTriviaFixture(t)
	participant := f.users.add("Player", "p@example.com", models.RoleParticipant)

	_, err := f.svc.Create(context.Background(), participant, validCreateInput())
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for participant, got %v", err)
	}

	for _, role := range []string{models.RoleFacilitator, models.RoleAdmin} {
		caller := f.users.add("Author", "a@example.com", role)
		if _, err := f.svc.Create(context.Background(), caller, validCreateInput()); err != nil {
			t.Errorf("Expected %s to create trivia, got %v", role, err)
		}
	}
}

func TestCreateTriviaPersistsQuestions(t *testing.T) {
	f := newTriviaFixture(t)
	author := f.users.add("Author", "a@example.com", models.RoleFacilitator)

	trivia, err := f.svc.Create(context.Background(), author, validCreateInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(trivia.Code) != 6 {
		t.Errorf("Expected 6-digit join code, got %q", trivia.Code)
	}
	if !trivia.IsActive {
		t.Error("Expected new trivia to be active")
	}
	if len(trivia.QuestionIDs) != 2 {
		t.Errorf("Expected 2 question ids, got %d", len(trivia.QuestionIDs))
	}
	questions, err := f.questions.FindByTrivia(context.Background(), trivia.ID)
	if err != nil {
		t.Fatalf("FindByTrivia failed: %v", err)
	}
	if len(questions) != 2 {
		t.Errorf("Expected 2 stored questions, got %d", len(questions))
	}
}

func TestCreateTriviaRejectsMalformedQuestionBeforeWriting(t *testing.T) {
	f := newTriviaFixture(t)
	author := f.users.add("Author", "a@example.com", models.RoleFacilitator)

	in := validCreateInput()
	in.Questions = append(in.Questions, QuestionInput{Text: "broken", Options: []string{"a", "b"}, CorrectAnswer: 5})

	_, err := f.svc.Create(context.Background(), author, in)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
	if len(f.trivias.trivias) != 0 {
		t.Errorf("Expected no trivia written, got %d", len(f.trivias.trivias))
	}
	if len(f.questions.questions) != 0 {
		t.Errorf("Expected no questions written, got %d", len(f.questions.questions))
	}
}

func TestCreateTriviaRetriesJoinCodeCollision(t *testing.T) {
	f := newTriviaFixture(t)
	author := f.users.add("Author", "a@example.com", models.RoleFacilitator)

	f.trivias.createConflicts = 3
	if _, err := f.svc.Create(context.Background(), author, validCreateInput()); err != nil {
		t.Errorf("Expected create to survive 3 collisions, got %v", err)
	}

	f.trivias.createConflicts = codeAttempts
	if _, err := f.svc.Create(context.Background(), author, validCreateInput()); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Expected ErrConflict once retries are exhausted, got %v", err)
	}
}

func TestGetInactiveTriviaIsUnavailable(t *testing.T) {
	f := newTriviaFixture(t)
	trivia := f.trivias.add(models.Trivia{Title: "Paused", IsActive: false})

	_, err := f.svc.Get(context.Background(), nil, trivia.ID)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestGetStripsAnswersForNonOwners(t *testing.T) {
	f := newTriviaFixture(t)
	owner := f.users.add("Owner", "o@example.com", models.RoleFacilitator)
	player := f.users.add("Player", "p@example.com", models.RoleParticipant)
	trivia := f.trivias.add(models.Trivia{Title: "Capitals", CreatedBy: owner.ID, IsActive: true})
	f.questions.add(models.Question{Text: "q", Options: []string{"a", "b"}, CorrectAnswer: 1, TriviaID: trivia.ID})

	for _, caller := range []*models.User{nil, player} {
		detail, err := f.svc.Get(context.Background(), caller, trivia.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(detail.Questions) != 0 {
			t.Error("Expected no full questions for non-owner")
		}
		if len(detail.PublicQuestions) != 1 {
			t.Errorf("Expected 1 public question, got %d", len(detail.PublicQuestions))
		}
	}

	detail, err := f.svc.Get(context.Background(), owner, trivia.ID)
	if err != nil {
		t.Fatalf("Get failed for owner: %v", err)
	}
	if len(detail.Questions) != 1 || detail.Questions[0].CorrectAnswer != 1 {
		t.Errorf("Expected owner to see full questions, got %+v", detail.Questions)
	}
}

func TestJoinByCode(t *testing.T) {
	f := newTriviaFixture(t)
	trivia := f.trivias.add(models.Trivia{Title: "Capitals", Code: "123456", IsActive: true})
	f.questions.add(models.Question{Text: "q", Options: []string{"a", "b"}, CorrectAnswer: 1, TriviaID: trivia.ID})

	attempt, err := f.svc.JoinByCode(context.Background(), "123456")
	if err != nil {
		t.Fatalf("JoinByCode failed: %v", err)
	}
	if attempt.TriviaID != trivia.ID || len(attempt.Questions) != 1 {
		t.Errorf("Expected trivia with 1 question, got %+v", attempt)
	}

	if _, err := f.svc.JoinByCode(context.Background(), "000000"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown code, got %v", err)
	}

	trivia.IsActive = false
	f.trivias.trivias[trivia.ID] = trivia
	if _, err := f.svc.JoinByCode(context.Background(), "123456"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for inactive trivia, got %v", err)
	}
}

func TestAddQuestionOwnerOnly(t *testing.T) {
	f := newTriviaFixture(t)
	owner := f.users.add("Owner", "o@example.com", models.RoleFacilitator)
	other := f.users.add("Other", "x@example.com", models.RoleFacilitator)
	trivia := f.trivias.add(models.Trivia{Title: "Capitals", CreatedBy: owner.ID, IsActive: true})

	in := QuestionInput{Text: "Capital of Spain?", Options: []string{"Madrid", "Lisbon"}, CorrectAnswer: 0}
	if _, err := f.svc.AddQuestion(context.Background(), other, trivia.ID, in); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for non-owner, got %v", err)
	}

	question, err := f.svc.AddQuestion(context.Background(), owner, trivia.ID, in)
	if err != nil {
		t.Fatalf("AddQuestion failed: %v", err)
	}
	stored, err := f.trivias.FindByID(context.Background(), trivia.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if len(stored.QuestionIDs) != 1 || stored.QuestionIDs[0] != question.ID {
		t.Errorf("Expected question id appended, got %v", stored.QuestionIDs)
	}
}

func TestToggleActiveOwnerOnly(t *testing.T) {
	f := newTriviaFixture(t)
	owner := f.users.add("Owner", "o@example.com", models.RoleFacilitator)
	other := f.users.add("Other", "x@example.com", models.RoleFacilitator)
	trivia := f.trivias.add(models.Trivia{Title: "Capitals", CreatedBy: owner.ID, IsActive: true})

	if _, err := f.svc.ToggleActive(context.Background(), other, trivia.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for non-owner, got %v", err)
	}

	active, err := f.svc.ToggleActive(context.Background(), owner, trivia.ID)
	if err != nil {
		t.Fatalf("ToggleActive failed: %v", err)
	}
	if active {
		t.Error("Expected trivia toggled off")
	}
	active, err = f.svc.ToggleActive(context.Background(), owner, trivia.ID)
	if err != nil {
		t.Fatalf("ToggleActive failed: %v", err)
	}
	if !active {
		t.Error("Expected trivia toggled back on")
	}
}

func TestDeleteCascadesToQuestionsAndResults(t *testing.T) {
	f := newTriviaFixture(t)
	owner := f.users.add("Owner", "o@example.com", models.RoleFacilitator)
	other := f.users.add("Other", "x@example.com", models.RoleFacilitator)
	admin := f.users.add("Admin", "adm@example.com", models.RoleAdmin)

	trivia := f.trivias.add(models.Trivia{Title: "Capitals", CreatedBy: owner.ID, IsActive: true})
	f.questions.add(models.Question{Text: "q", Options: []string{"a", "b"}, TriviaID: trivia.ID})
	f.results.add(models.Result{UserID: "u1", TriviaID: trivia.ID, TimeStarted: time.Now()})

	if err := f.svc.Delete(context.Background(), other, trivia.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for non-owner, got %v", err)
	}

	if err := f.svc.Delete(context.Background(), owner, trivia.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(f.trivias.trivias) != 0 || len(f.questions.questions) != 0 || len(f.results.results) != 0 {
		t.Errorf("Expected cascade delete, got %d trivias, %d questions, %d results",
			len(f.trivias.trivias), len(f.questions.questions), len(f.results.results))
	}

	// admins may delete trivias they do not own
	second := f.trivias.add(models.Trivia{Title: "Rivers", CreatedBy: owner.ID, IsActive: true})
	if err := f.svc.Delete(context.Background(), admin, second.ID); err != nil {
		t.Errorf("Expected admin delete to succeed, got %v", err)
	}
}

func TestCanDownloadResults(t *testing.T) {
	f := newTriviaFixture(t)
	owner := f.users.add("Owner", "o@example.com", models.RoleFacilitator)
	other := f.users.add("Other", "x@example.com", models.RoleFacilitator)

	locked := f.trivias.add(models.Trivia{Title: "Locked", CreatedBy: owner.ID, IsActive: true})
	open := f.trivias.add(models.Trivia{Title: "Open", CreatedBy: owner.ID, AllowDownloadResults: true, IsActive: true})

	if _, err := f.svc.CanDownloadResults(context.Background(), other, open.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for non-owner, got %v", err)
	}
	if _, err := f.svc.CanDownloadResults(context.Background(), owner, locked.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden when downloads are disabled, got %v", err)
	}
	if _, err := f.svc.CanDownloadResults(context.Background(), owner, open.ID); err != nil {
		t.Errorf("Expected owner download access, got %v", err)
	}
}

func TestMineScopesByRole(t *testing.T) {
	f := newTriviaFixture(t)
	owner := f.users.add("Owner", "o@example.com", models.RoleFacilitator)
	other := f.users.add("Other", "x@example.com", models.RoleFacilitator)
	admin := f.users.add("Admin", "adm@example.com", models.RoleAdmin)
	participant := f.users.add("Player", "p@example.com", models.RoleParticipant)

	f.trivias.add(models.Trivia{Title: "A", CreatedBy: owner.ID})
	f.trivias.add(models.Trivia{Title: "B", CreatedBy: other.ID})

	mine, err := f.svc.Mine(context.Background(), owner)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	if len(mine) != 1 || mine[0].Title != "A" {
		t.Errorf("Expected only owner's trivia, got %v", mine)
	}

	all, err := f.svc.Mine(context.Background(), admin)
	if err != nil {
		t.Fatalf("Mine failed for admin: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected admin to see 2 trivias, got %d", len(all))
	}

	if _, err := f.svc.Mine(context.Background(), participant); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for participant, got %v", err)
	}
}

func TestListSummarizesActiveTrivias(t *testing.T) {
	f := newTriviaFixture(t)
	active := f.trivias.add(models.Trivia{Title: "Active", QuestionIDs: []string{"q1", "q2"}, IsActive: true})
	f.trivias.add(models.Trivia{Title: "Hidden", IsActive: false})
	f.questions.add(models.Question{Text: "q", Options: []string{"a", "b"}, Category: "geography", TriviaID: active.ID})
	f.questions.add(models.Question{Text: "q", Options: []string{"a", "b"}, Category: "history", TriviaID: active.ID})

	summaries, err := f.svc.List(context.Background(), "", "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 active trivia, got %d", len(summaries))
	}
	if summaries[0].QuestionsCount != 2 {
		t.Errorf("Expected 2 questions counted, got %d", summaries[0].QuestionsCount)
	}
	if len(summaries[0].Categories) != 2 {
		t.Errorf("Expected 2 categories, got %v", summaries[0].Categories)
	}
}

func TestListFilters(t *testing.T) {
	f := newTriviaFixture(t)
	geo := f.trivias.add(models.Trivia{Title: "Geo", Difficulty: models.DifficultyEasy, IsActive: true})
	f.trivias.add(models.Trivia{Title: "Hist", Difficulty: models.DifficultyHard, IsActive: true})
	f.questions.add(models.Question{Text: "q", Options: []string{"a", "b"}, Category: "geography", TriviaID: geo.ID})

	byDifficulty, err := f.svc.List(context.Background(), "", models.DifficultyEasy)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byDifficulty) != 1 || byDifficulty[0].Title != "Geo" {
		t.Errorf("Expected only the easy trivia, got %v", byDifficulty)
	}

	byCategory, err := f.svc.List(context.Background(), "geography", "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].Title != "Geo" {
		t.Errorf("Expected only the geography trivia, got %v", byCategory)
	}

	if _, err := f.svc.List(context.Background(), "", "impossible"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown difficulty, got %v", err)
	}
}

func TestGenerateJoinCodeShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := generateJoinCode()
		if len(code) != 6 {
			t.Fatalf("Expected 6-digit code, got %q", code)
		}
		if code[0] == '0' {
			t.Fatalf("Expected no leading zero, got %q", code)
		}
	}
}
