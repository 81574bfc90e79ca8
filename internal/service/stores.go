package service

import (
	"context"

	"trivia-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// The store interfaces are satisfied by the mongo repositories and by
// the in-memory fakes the tests use. AtomicUpdate is the load-bearing
// contract: the whole find-mutate-save sequence for one attempt must
// apply as a single logical write.

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id string, update bson.M) error
	FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

type TriviaStore interface {
	FindActive(ctx context.Context) ([]models.Trivia, error)
	FindAll(ctx context.Context) ([]models.Trivia, error)
	FindByCreator(ctx context.Context, userID string) ([]models.Trivia, error)
	FindByID(ctx context.Context, id string) (*models.Trivia, error)
	FindByCode(ctx context.Context, code string) (*models.Trivia, error)
	Create(ctx context.Context, trivia *models.Trivia) error
	Update(ctx context.Context, id string, update bson.M) error
	Delete(ctx context.Context, id string) error
}

type QuestionStore interface {
	FindByID(ctx context.Context, id string) (*models.Question, error)
	FindByTrivia(ctx context.Context, triviaID string) ([]models.Question, error)
	Create(ctx context.Context, question *models.Question) error
	DeleteByTrivia(ctx context.Context, triviaID string) error
}

type ResultStore interface {
	FindByID(ctx context.Context, id string) (*models.Result, error)
	FindByUserAndTrivia(ctx context.Context, userID, triviaID string) (*models.Result, error)
	FindByTrivia(ctx context.Context, triviaID string) ([]models.Result, error)
	FindCompleted(ctx context.Context) ([]models.Result, error)
	FindCompletedByTrivia(ctx context.Context, triviaID string) ([]models.Result, error)
	FindCompletedByUser(ctx context.Context, userID string) ([]models.Result, error)
	Create(ctx context.Context, result *models.Result) error
	AtomicUpdate(ctx context.Context, userID, triviaID string, mutate func(*models.Result) error) (*models.Result, error)
	DeleteByTrivia(ctx context.Context, triviaID string) error
}
